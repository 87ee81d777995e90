// Package cmd provides the rbacguard CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sentinelgate/rbacguard/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "rbacguard",
	Short: "rbacguard - an embeddable RBAC/ABAC authorization engine",
	Long: `rbacguard evaluates authorization requests against a Casbin-style
model and policy set: a role manager for RBAC graphs, a matcher compiler for
the model's matcher expression, and an effector that reduces per-policy-row
decisions into a single allow/deny.

Configuration:
  Config is loaded from rbacguard.yaml in the current directory,
  $HOME/.rbacguard/, or /etc/rbacguard/.

  Environment variables can override config values with the RBACGUARD_ prefix.
  Example: RBACGUARD_POLICY_FILE_PATH=/etc/rbacguard/policy.csv

Commands:
  check    Evaluate a single request against the configured model and policy
  reload   Force a Registry reload of a named instance
  version  Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./rbacguard.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
