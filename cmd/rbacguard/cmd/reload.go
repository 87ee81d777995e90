package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Force a Registry reload of the configured instance",
	Long: `reload rebuilds the Engine for the config's instance from the
current model and policy source and swaps it into the Registry. Any Engine
pointer already held by a running process is unaffected; only future
Registry.Get calls observe the new instance.`,
	RunE: runReload,
}

func init() {
	rootCmd.AddCommand(reloadCmd)
}

func runReload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	_, mtr := newMetricsRegistry()

	_, cfg, err := buildEngine(ctx, registry)
	mtr.ObserveReload(err)
	if err != nil {
		return err
	}

	fmt.Printf("reloaded instance %q\n", cfg.Instance)
	return nil
}
