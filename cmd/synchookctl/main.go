// synchookctl runs synchook hooks offline against request files.
//
// Usage:
//
//	synchookctl hooks
//	synchookctl sync -f request.yaml
//	synchookctl sync -f request.yaml --hook configmappropagation --finalize
//	synchookctl customize -f parent.yaml -o json
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/potooio/synchook/internal/config"
	"github.com/potooio/synchook/internal/hooks/builtin"
	"github.com/potooio/synchook/internal/protocol"
	"github.com/potooio/synchook/internal/types"
)

var version = "dev"

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	output  string
	verbose bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "synchookctl",
		Short: "Run synchook hooks offline",
		Long: `synchookctl runs the synchook reconciliation hooks against request
files, without a server or a cluster. Input files may be YAML or JSON and use
the same shape as the HTTP request bodies.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.output {
			case "json", "yaml", "table":
				return nil
			}
			return fmt.Errorf("unknown output format %q (want json, yaml or table)", opts.output)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "yaml", "Output format: json, yaml, table")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log dispatch details to stderr")

	rootCmd.AddCommand(hooksCmd(opts))
	rootCmd.AddCommand(syncCmd(opts))
	rootCmd.AddCommand(customizeCmd(opts))
	return rootCmd
}

// newDispatcher builds a dispatcher over every built-in hook.
func newDispatcher(opts *rootOptions) (*protocol.Dispatcher, error) {
	logger := zap.NewNop()
	if opts.verbose {
		l, err := config.NewLogger("debug", "console")
		if err != nil {
			return nil, err
		}
		logger = l
	}
	registry, err := builtin.NewRegistry(nil)
	if err != nil {
		return nil, err
	}
	return protocol.NewDispatcher(registry, logger), nil
}

// printError reports hook errors with their kind so scripts can tell a
// rejected request from a failed computation.
func printError(w io.Writer, err error) {
	var he *types.HookError
	if errors.As(err, &he) {
		fmt.Fprintf(w, "Error: %s: %v\n", he.Kind, he.Err)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}
