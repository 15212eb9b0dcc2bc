package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/msgraph-cli/internal/core/ports/driving"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printJSON writes v as JSON: indented for terminals or with --pretty,
// one line otherwise so output pipes cleanly into other tools.
func printJSON(cmd *cobra.Command, v any) error {
	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	if pretty || isTerminal(out) {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// resultJSON shapes a result like an OData collection response.
func resultJSON(r *driving.Result) map[string]any {
	out := make(map[string]any)
	if len(r.Values) > 0 {
		out["value"] = r.Values
	} else {
		value := make([]any, len(r.Records))
		for i, rec := range r.Records {
			value[i] = rec
		}
		out["value"] = value
	}
	if r.NextLink != "" {
		out["@odata.nextLink"] = r.NextLink
	}
	if r.DeltaLink != "" {
		out["@odata.deltaLink"] = r.DeltaLink
	}
	if r.Count != nil {
		out["@odata.count"] = *r.Count
	}
	return out
}
