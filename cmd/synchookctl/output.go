package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"sigs.k8s.io/yaml"

	"github.com/potooio/synchook/internal/protocol"
	"github.com/potooio/synchook/internal/types"
)

// outputResult writes result in the specified format.
func outputResult(w io.Writer, result interface{}, format string) error {
	switch format {
	case "json":
		return outputJSON(w, result)
	case "table":
		return outputTable(w, result)
	default:
		return outputYAML(w, result)
	}
}

func outputJSON(w io.Writer, result interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputYAML(w io.Writer, result interface{}) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func outputTable(out io.Writer, result interface{}) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	switch r := result.(type) {
	case []protocol.HookInfo:
		return outputHooksTable(w, r)
	case *types.SyncResponse:
		return outputSyncTable(w, r)
	case *types.CustomizeResponse:
		return outputCustomizeTable(w, r)
	default:
		// Fall back to JSON for unknown types
		return outputJSON(out, result)
	}
}

func outputHooksTable(w *tabwriter.Writer, hooks []protocol.HookInfo) error {
	fmt.Fprintln(w, "NAME\tPARENTS\tOPERATIONS")
	for _, h := range hooks {
		ops := make([]string, 0, len(h.Operations))
		for _, op := range h.Operations {
			ops = append(ops, string(op))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", h.Name, strings.Join(h.Parents, ","), strings.Join(ops, ","))
	}
	return nil
}

func outputSyncTable(w *tabwriter.Writer, r *types.SyncResponse) error {
	if r.Finalized {
		fmt.Fprintf(w, "FINALIZED:\ttrue\n")
	}
	status, err := json.Marshal(r.Status)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "STATUS:\t%s\n\n", status)

	fmt.Fprintln(w, "KIND\tNAMESPACE\tNAME")
	for _, child := range r.Children {
		fmt.Fprintf(w, "%s\t%s\t%s\n", types.KeyFor(child.GroupVersionKind()), child.GetNamespace(), child.GetName())
	}
	return nil
}

func outputCustomizeTable(w *tabwriter.Writer, r *types.CustomizeResponse) error {
	fmt.Fprintln(w, "APIVERSION\tRESOURCE\tNAMESPACE\tNAMES\tSELECTOR")
	for _, rule := range r.RelatedResources {
		selector := ""
		if rule.LabelSelector != nil {
			data, err := json.Marshal(rule.LabelSelector)
			if err != nil {
				return err
			}
			selector = string(data)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			rule.APIVersion, rule.Resource, rule.Namespace, strings.Join(rule.Names, ","), selector)
	}
	return nil
}
