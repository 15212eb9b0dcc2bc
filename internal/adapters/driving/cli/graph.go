package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/msgraph-cli/internal/core/domain"
	"github.com/custodia-labs/msgraph-cli/internal/core/ports/driving"
)

var getCmd = &cobra.Command{
	Use:   "get [resource]",
	Short: "Fetch a single entity",
	Long: `Fetch a single entity and print it typed against the schema.

Examples:
  msgraph get me
  msgraph get me/manager --select displayName,mail
  msgraph get users/adele@contoso.com`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

var listCmd = &cobra.Command{
	Use:   "list [resource]",
	Short: "Fetch a collection",
	Long: `Fetch a collection. Only the first page is returned unless --all is set.

Examples:
  msgraph list users --top 10
  msgraph list me/messages --filter "importance eq 'high'" --all
  msgraph list groups --search '"displayName:sales"' --count`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

var downloadCmd = &cobra.Command{
	Use:   "download [resource] [path]",
	Short: "Download media content",
	Long: `Download the content of a media entity or stream property to a file.

Examples:
  msgraph download me/photo/$value photo.jpg
  msgraph download me/drive/items/01ABC/content report.pdf`,
	Args: cobra.ExactArgs(2),
	RunE: runDownload,
}

var invokeCmd = &cobra.Command{
	Use:   "invoke [resource] [action]",
	Short: "Invoke a bound action",
	Long: `Invoke an action bound to the resource's type.

Parameters are given as key=value. Values that parse as JSON are sent as
JSON, anything else as a string. --body supplies the whole parameter
object instead.

Examples:
  msgraph invoke users/1 revokeSignInSessions
  msgraph invoke me sendMail --body @mail.json
  msgraph invoke groups/1 addFavorite`,
	Args: cobra.ExactArgs(2),
	RunE: runInvoke,
}

var callCmd = &cobra.Command{
	Use:   "call [resource] [function]",
	Short: "Call a bound function",
	Long: `Call a function bound to the resource's type.

Examples:
  msgraph call me reminderView -p StartDateTime=2024-01-01T00:00:00 -p EndDateTime=2024-01-02T00:00:00
  msgraph call users delta`,
	Args: cobra.ExactArgs(2),
	RunE: runCall,
}

// Query option flags, shared by get and list.
var (
	querySelect  []string
	queryExpand  []string
	queryFilter  string
	queryOrderBy []string
	querySearch  string
	queryTop     int
	querySkip    int
	queryCount   bool
	listAll      bool
)

// Operation flags, shared by invoke and call.
var (
	opParams []string
	opBody   string
)

func init() {
	for _, c := range []*cobra.Command{getCmd, listCmd} {
		c.Flags().StringSliceVar(&querySelect, "select", nil, "Properties to return ($select)")
		c.Flags().StringSliceVar(&queryExpand, "expand", nil, "Navigation properties to expand ($expand)")
	}
	listCmd.Flags().StringVar(&queryFilter, "filter", "", "Filter expression ($filter)")
	listCmd.Flags().StringSliceVar(&queryOrderBy, "orderby", nil, "Sort order ($orderby)")
	listCmd.Flags().StringVar(&querySearch, "search", "", "Search expression ($search)")
	listCmd.Flags().IntVar(&queryTop, "top", 0, "Page size ($top)")
	listCmd.Flags().IntVar(&querySkip, "skip", 0, "Items to skip ($skip)")
	listCmd.Flags().BoolVar(&queryCount, "count", false, "Include the total count ($count)")
	listCmd.Flags().BoolVar(&listAll, "all", false, "Follow next links until the collection is exhausted")

	for _, c := range []*cobra.Command{invokeCmd, callCmd} {
		c.Flags().StringArrayVarP(&opParams, "param", "p", nil, "Parameter as key=value (repeatable)")
		c.Flags().StringVar(&opBody, "body", "", "Parameters as a JSON object, or @file to read one")
	}

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(invokeCmd)
	rootCmd.AddCommand(callCmd)
}

func graph() (driving.GraphService, error) {
	if graphService == nil {
		return nil, errors.New("graph service not configured")
	}
	return graphService, nil
}

func queryOptions() domain.QueryOptions {
	return domain.QueryOptions{
		Select:  querySelect,
		Expand:  queryExpand,
		Filter:  queryFilter,
		OrderBy: queryOrderBy,
		Search:  querySearch,
		Top:     queryTop,
		Skip:    querySkip,
		Count:   queryCount,
	}
}

func runGet(cmd *cobra.Command, args []string) error {
	svc, err := graph()
	if err != nil {
		return err
	}
	rec, err := svc.Get(cmd.Context(), args[0], queryOptions())
	if err != nil {
		return err
	}
	return printJSON(cmd, rec)
}

func runList(cmd *cobra.Command, args []string) error {
	if queryTop < 0 || querySkip < 0 {
		return fmt.Errorf("--top and --skip must not be negative: %w", domain.ErrInvalidInput)
	}
	svc, err := graph()
	if err != nil {
		return err
	}
	res, err := svc.List(cmd.Context(), args[0], queryOptions(), listAll)
	if err != nil {
		return err
	}
	return printJSON(cmd, resultJSON(res))
}

func runDownload(cmd *cobra.Command, args []string) error {
	svc, err := graph()
	if err != nil {
		return err
	}
	n, err := svc.Download(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	cmd.PrintErrf("Wrote %d bytes to %s\n", n, args[1])
	return nil
}

func runInvoke(cmd *cobra.Command, args []string) error {
	svc, err := graph()
	if err != nil {
		return err
	}
	params, err := operationParams(opBody, opParams)
	if err != nil {
		return err
	}
	res, err := svc.Invoke(cmd.Context(), args[0], args[1], params)
	if err != nil {
		return err
	}
	return printOperationResult(cmd, res)
}

func runCall(cmd *cobra.Command, args []string) error {
	svc, err := graph()
	if err != nil {
		return err
	}
	params, err := operationParams(opBody, opParams)
	if err != nil {
		return err
	}
	res, err := svc.Call(cmd.Context(), args[0], args[1], params)
	if err != nil {
		return err
	}
	return printOperationResult(cmd, res)
}

// printOperationResult prints nothing for actions without a return value.
func printOperationResult(cmd *cobra.Command, res *driving.Result) error {
	if res == nil || (len(res.Records) == 0 && len(res.Values) == 0 && res.NextLink == "" && res.DeltaLink == "") {
		cmd.PrintErrln("Done.")
		return nil
	}
	return printJSON(cmd, resultJSON(res))
}

// operationParams merges the --body object with key=value pairs.
// Pairs win over body keys of the same name.
func operationParams(body string, pairs []string) (map[string]any, error) {
	params := make(map[string]any)

	if body != "" {
		raw := []byte(body)
		if path, ok := strings.CutPrefix(body, "@"); ok {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read body: %w", err)
			}
			raw = data
		}
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, fmt.Errorf("body must be a JSON object: %w", domain.ErrInvalidInput)
		}
	}

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("parameter %q is not key=value: %w", pair, domain.ErrInvalidInput)
		}
		params[key] = paramValue(value)
	}
	return params, nil
}

// paramValue decodes JSON literals (numbers, booleans, objects, quoted
// strings) and keeps anything else as a plain string.
func paramValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}
