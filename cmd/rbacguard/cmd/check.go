package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var checkTrace bool

var checkCmd = &cobra.Command{
	Use:   "check <sub> <obj> <act> [...]",
	Short: "Evaluate a single request against the configured model and policy",
	Long: `check builds the Engine named by the config's instance field and
evaluates a request vector against it, printing "allow" or "deny".

The request arguments are matched positionally against the model's
request_definition (e.g. r = sub, obj, act needs at least 3 arguments;
fewer is an error, and arguments beyond the declared fields are ignored).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkTrace, "trace", false, "print the trace ID and number of rows examined")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	engine, _, err := buildEngine(ctx, registry)
	if err != nil {
		return err
	}

	_, mtr := newMetricsRegistry()

	enforcer, shutdown, err := wrapEnforcer(engine)
	if err != nil {
		return err
	}
	defer shutdown(ctx)

	if checkTrace {
		trace, err := engine.EnforceWithTrace(ctx, args)
		if err != nil {
			return fmt.Errorf("enforce: %w", err)
		}
		mtr.ObserveEnforce(trace.Allowed, 0)
		fmt.Printf("trace=%s examined=%d request=%v\n", trace.ID, trace.Examined, trace.Request)
		return printDecision(trace.Allowed)
	}

	start := time.Now()
	allowed, err := enforcer.Enforce(ctx, args)
	mtr.ObserveEnforce(allowed, time.Since(start))
	if err != nil {
		return fmt.Errorf("enforce: %w", err)
	}
	return printDecision(allowed)
}

// printDecision prints "allow" or "deny" to stdout and exits non-zero on
// deny, so the command is usable directly in shell conditionals.
func printDecision(allowed bool) error {
	if allowed {
		fmt.Println("allow")
		return nil
	}
	fmt.Println("deny")
	os.Exit(1)
	return nil
}
