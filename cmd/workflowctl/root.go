package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var flags rootFlags

	ctx := newCommandContext(&flags)

	rootCmd := &cobra.Command{
		Use:           "workflowctl",
		Short:         "Move candidates through the hiring pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.server, "server", "", "Workflow service base URL (overrides server_url)")
	rootCmd.PersistentFlags().StringVar(&flags.transport, "transport", transportHTTP, "Transport to the workflow service: http or grpc")
	rootCmd.PersistentFlags().StringVar(&flags.grpcAddr, "grpc-addr", "", "Workflow gRPC address (overrides grpc_addr)")
	rootCmd.PersistentFlags().BoolVarP(&flags.yes, "yes", "y", false, "Confirm transitions without prompting")

	rootCmd.AddCommand(newStagesCommand(ctx))
	rootCmd.AddCommand(newCandidatesCommand(ctx))
	rootCmd.AddCommand(newNextCommand(ctx))
	rootCmd.AddCommand(newMoveCommand(ctx))
	rootCmd.AddCommand(newRescheduleCommand(ctx))

	return rootCmd
}
