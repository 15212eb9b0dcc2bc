package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/msgraph-cli/internal/core/domain"
	"github.com/custodia-labs/msgraph-cli/internal/core/ports/driving"
	"github.com/custodia-labs/msgraph-cli/internal/odata/csdl"
	"github.com/custodia-labs/msgraph-cli/internal/odata/model"
)

// fixtureRegistry builds the registry from the shared test metadata.
func fixtureRegistry(t *testing.T) *model.Registry {
	t.Helper()
	f, err := os.Open("../../../odata/csdl/testdata/metadata.xml")
	require.NoError(t, err)
	defer f.Close()

	schema, err := csdl.Parse(f)
	require.NoError(t, err)
	reg, err := model.NewRegistry(schema)
	require.NoError(t, err)
	return reg
}

// mockSchemaService implements driving.SchemaService for testing.
type mockSchemaService struct {
	reg *model.Registry
	err error
}

func (m *mockSchemaService) Registry(_ context.Context) (*model.Registry, error) {
	return m.reg, m.err
}

// graphCall records one GraphService invocation.
type graphCall struct {
	method    string
	resource  string
	operation string
	opts      domain.QueryOptions
	all       bool
	params    map[string]any
	path      string
}

// mockGraphService implements driving.GraphService for testing.
type mockGraphService struct {
	calls  []graphCall
	record *model.Record
	result *driving.Result
	bytes  int64
	err    error
}

func (m *mockGraphService) List(
	_ context.Context, resource string, opts domain.QueryOptions, all bool,
) (*driving.Result, error) {
	m.calls = append(m.calls, graphCall{method: "List", resource: resource, opts: opts, all: all})
	return m.result, m.err
}

func (m *mockGraphService) Get(_ context.Context, resource string, opts domain.QueryOptions) (*model.Record, error) {
	m.calls = append(m.calls, graphCall{method: "Get", resource: resource, opts: opts})
	return m.record, m.err
}

func (m *mockGraphService) Download(_ context.Context, resource, path string) (int64, error) {
	m.calls = append(m.calls, graphCall{method: "Download", resource: resource, path: path})
	return m.bytes, m.err
}

func (m *mockGraphService) Invoke(
	_ context.Context, resource, action string, params map[string]any,
) (*driving.Result, error) {
	m.calls = append(m.calls, graphCall{method: "Invoke", resource: resource, operation: action, params: params})
	return m.result, m.err
}

func (m *mockGraphService) Call(
	_ context.Context, resource, function string, params map[string]any,
) (*driving.Result, error) {
	m.calls = append(m.calls, graphCall{method: "Call", resource: resource, operation: function, params: params})
	return m.result, m.err
}

// mockAccountService implements driving.AccountService for testing.
type mockAccountService struct {
	account *driving.Account
	err     error
}

func (m *mockAccountService) WhoAmI(_ context.Context) (*driving.Account, error) {
	return m.account, m.err
}

// mockConfigStore implements driven.ConfigStore in memory.
type mockConfigStore struct {
	settings *domain.Settings
	saved    *domain.Settings
	err      error
}

func (m *mockConfigStore) Load() (*domain.Settings, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.settings == nil {
		s := domain.DefaultSettings()
		return &s, nil
	}
	s := *m.settings
	return &s, nil
}

func (m *mockConfigStore) Save(settings *domain.Settings) error {
	if m.err != nil {
		return m.err
	}
	m.saved = settings
	return nil
}

func (m *mockConfigStore) Path() string {
	return "/tmp/msgraph/config.toml"
}

// withServices installs s for the duration of the test.
func withServices(t *testing.T, s *Services) {
	t.Helper()
	oldSchema, oldGraph, oldAccount, oldConfig := schemaService, graphService, accountService, configStore
	t.Cleanup(func() {
		schemaService, graphService, accountService, configStore = oldSchema, oldGraph, oldAccount, oldConfig
	})
	schemaService, graphService, accountService, configStore = s.Schema, s.Graph, s.Account, s.Config
}

// run executes the root command with args and returns stdout and stderr.
func run(t *testing.T, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()
	oldOut := rootCmd.OutOrStdout()
	oldIn := rootCmd.InOrStdin()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if stdin != nil {
		rootCmd.SetIn(stdin)
	}
	rootCmd.SetArgs(args)
	resetFlags(rootCmd)
	defer func() {
		rootCmd.SetOut(oldOut)
		rootCmd.SetErr(os.Stderr)
		rootCmd.SetIn(oldIn)
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// resetFlags restores every flag to its default so values do not leak
// between tests sharing the package-level command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
