package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand(ctx *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "maintain",
		Short:         "Idempotent data repairs for the deal desk database",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configPath, "config", "c", ctx.configPath, "Path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&ctx.jsonOutput, "json", false, "Print reports as JSON")

	rootCmd.AddCommand(newReconcileCommand(ctx))
	rootCmd.AddCommand(newLicensesCommand(ctx))
	rootCmd.AddCommand(newAllCommand(ctx))

	return rootCmd
}
