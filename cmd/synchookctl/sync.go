package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/yaml"

	"github.com/potooio/synchook/internal/protocol"
	"github.com/potooio/synchook/internal/types"
)

type runOptions struct {
	filename string
	hook     string
	finalize bool
}

func syncCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Compute the desired children for a sync request",
		Long: `Run one reconcile for a sync request file and print the response.

The hook is chosen from the parent kind unless --hook is given.

Examples:
  # Reconcile an IndexedJob
  synchookctl sync -f request.yaml

  # Finalize a propagation as JSON
  synchookctl sync -f request.yaml --hook configmappropagation --finalize -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDispatcher(root)
			if err != nil {
				return err
			}
			resp, err := runSync(cmd.Context(), d, opts)
			if err != nil {
				return err
			}
			return outputResult(cmd.OutOrStdout(), resp, root.output)
		},
	}

	cmd.Flags().StringVarP(&opts.filename, "filename", "f", "", "Sync request file (required)")
	cmd.Flags().StringVar(&opts.hook, "hook", "", "Hook name (default: chosen by parent kind)")
	cmd.Flags().BoolVar(&opts.finalize, "finalize", false, "Run the finalize operation instead of sync")
	_ = cmd.MarkFlagRequired("filename")
	return cmd
}

func customizeCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "customize",
		Short: "Print the related resources a parent depends on",
		Long: `Print the related-resource rules for a parent.

The file may hold a customize request ({"parent": ...}) or a bare parent object.

Examples:
  synchookctl customize -f propagation.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDispatcher(root)
			if err != nil {
				return err
			}
			resp, err := runCustomize(cmd.Context(), d, opts)
			if err != nil {
				return err
			}
			return outputResult(cmd.OutOrStdout(), resp, root.output)
		},
	}

	cmd.Flags().StringVarP(&opts.filename, "filename", "f", "", "Parent or customize request file (required)")
	cmd.Flags().StringVar(&opts.hook, "hook", "", "Hook name (default: chosen by parent kind)")
	_ = cmd.MarkFlagRequired("filename")
	return cmd
}

func runSync(ctx context.Context, d *protocol.Dispatcher, opts *runOptions) (*types.SyncResponse, error) {
	operation := protocol.OperationSync
	if opts.finalize {
		operation = protocol.OperationFinalize
	}

	body, err := readJSON(opts.filename)
	if err != nil {
		return nil, err
	}
	label := displayName(opts.hook) + "/" + string(operation)
	req, err := protocol.DecodeSyncRequest(label, body)
	if err != nil {
		return nil, err
	}
	hook, err := selectHook(d, opts.hook, label, req.Parent)
	if err != nil {
		return nil, err
	}
	return d.Sync(ctx, hook, operation, req)
}

func runCustomize(ctx context.Context, d *protocol.Dispatcher, opts *runOptions) (*types.CustomizeResponse, error) {
	body, err := readJSON(opts.filename)
	if err != nil {
		return nil, err
	}
	body, err = wrapParent(body)
	if err != nil {
		return nil, err
	}
	label := displayName(opts.hook) + "/" + string(protocol.OperationCustomize)
	req, err := protocol.DecodeCustomizeRequest(label, body)
	if err != nil {
		return nil, err
	}
	hook, err := selectHook(d, opts.hook, label, req.Parent)
	if err != nil {
		return nil, err
	}
	return d.Customize(ctx, hook, req)
}

// selectHook resolves --hook, or the hook registered for the parent kind.
func selectHook(d *protocol.Dispatcher, name, label string, parent *unstructured.Unstructured) (types.Hook, error) {
	if name != "" {
		hook := d.Registry().ForName(name)
		if hook == nil {
			return nil, types.Unsupportedf(label, "no hook named %q", name)
		}
		return hook, nil
	}
	hook := d.Registry().ForGVK(parent.GroupVersionKind())
	if hook == nil {
		return nil, types.Unsupportedf(label, "no hook handles parent kind %s", types.KeyFor(parent.GroupVersionKind()))
	}
	return hook, nil
}

// readJSON reads a YAML or JSON file and returns it as JSON.
func readJSON(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	body, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return body, nil
}

// wrapParent turns a bare parent object into a customize request.
func wrapParent(body []byte) ([]byte, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}
	if _, ok := top["parent"]; ok {
		return body, nil
	}
	return json.Marshal(map[string]json.RawMessage{"parent": body})
}

func displayName(hook string) string {
	if hook == "" {
		return "auto"
	}
	return hook
}
