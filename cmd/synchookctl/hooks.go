package main

import (
	"github.com/spf13/cobra"

	"github.com/potooio/synchook/internal/protocol"
)

func hooksCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hooks",
		Short: "List the built-in hooks",
		Long: `List every built-in hook with the parent kinds it reconciles and the
operations it serves.

Examples:
  synchookctl hooks
  synchookctl hooks -o table`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDispatcher(opts)
			if err != nil {
				return err
			}
			return outputResult(cmd.OutOrStdout(), protocol.DescribeAll(d.Registry()), opts.output)
		},
	}
}
