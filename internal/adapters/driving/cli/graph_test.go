package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/msgraph-cli/internal/core/domain"
	"github.com/custodia-labs/msgraph-cli/internal/core/ports/driving"
	"github.com/custodia-labs/msgraph-cli/internal/odata/model"
)

func userRecord(t *testing.T, reg *model.Registry, id, name string) *model.Record {
	t.Helper()
	rec, err := reg.Construct("user", map[string]any{"id": id, "displayName": name, "unknown": true})
	require.NoError(t, err)
	return rec
}

func TestGetCmd(t *testing.T) {
	// Given
	reg := fixtureRegistry(t)
	graph := &mockGraphService{record: userRecord(t, reg, "1", "Ada")}
	withServices(t, &Services{Graph: graph})

	// When
	out, _, err := run(t, nil, "get", "me", "--select", "id,displayName", "--expand", "manager")

	// Then
	require.NoError(t, err)
	require.Len(t, graph.calls, 1)
	call := graph.calls[0]
	assert.Equal(t, "Get", call.method)
	assert.Equal(t, "me", call.resource)
	assert.Equal(t, []string{"id", "displayName"}, call.opts.Select)
	assert.Equal(t, []string{"manager"}, call.opts.Expand)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "#microsoft.graph.user", got["@odata.type"])
	assert.Equal(t, "Ada", got["displayName"])
	assert.NotContains(t, got, "unknown")
}

func TestGetCmd_Pretty(t *testing.T) {
	reg := fixtureRegistry(t)
	withServices(t, &Services{Graph: &mockGraphService{record: userRecord(t, reg, "1", "Ada")}})

	out, _, err := run(t, nil, "get", "me", "--pretty")

	require.NoError(t, err)
	assert.Contains(t, out, "\n  \"displayName\": \"Ada\"")
}

func TestGetCmd_Error(t *testing.T) {
	withServices(t, &Services{Graph: &mockGraphService{err: domain.ErrNotFound}})

	_, _, err := run(t, nil, "get", "users/missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListCmd(t *testing.T) {
	// Given
	reg := fixtureRegistry(t)
	count := int64(42)
	graph := &mockGraphService{result: &driving.Result{
		Records:  []*model.Record{userRecord(t, reg, "1", "Ada"), userRecord(t, reg, "2", "Grace")},
		NextLink: "https://graph.microsoft.com/v1.0/users?$skiptoken=x",
		Count:    &count,
	}}
	withServices(t, &Services{Graph: graph})

	// When
	out, _, err := run(t, nil, "list", "users",
		"--filter", "startswith(displayName,'A')",
		"--orderby", "displayName desc",
		"--search", `"displayName:a"`,
		"--top", "2", "--skip", "1", "--count", "--all")

	// Then
	require.NoError(t, err)
	require.Len(t, graph.calls, 1)
	call := graph.calls[0]
	assert.Equal(t, "users", call.resource)
	assert.True(t, call.all)
	assert.Equal(t, domain.QueryOptions{
		Filter:  "startswith(displayName,'A')",
		OrderBy: []string{"displayName desc"},
		Search:  `"displayName:a"`,
		Top:     2,
		Skip:    1,
		Count:   true,
	}, call.opts)

	var got struct {
		Value    []map[string]any `json:"value"`
		NextLink string           `json:"@odata.nextLink"`
		Count    int64            `json:"@odata.count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Value, 2)
	assert.Equal(t, "Grace", got.Value[1]["displayName"])
	assert.Equal(t, int64(42), got.Count)
	assert.Contains(t, got.NextLink, "skiptoken")
}

func TestListCmd_DefaultsAndValidation(t *testing.T) {
	graph := &mockGraphService{result: &driving.Result{}}
	withServices(t, &Services{Graph: graph})

	out, _, err := run(t, nil, "list", "groups")
	require.NoError(t, err)
	require.Len(t, graph.calls, 1)
	assert.False(t, graph.calls[0].all, "flags from earlier runs do not leak")
	assert.Equal(t, domain.QueryOptions{}, graph.calls[0].opts)
	assert.JSONEq(t, `{"value":[]}`, out)

	_, _, err = run(t, nil, "list", "groups", "--top", "-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListCmd_PrimitiveValues(t *testing.T) {
	withServices(t, &Services{Graph: &mockGraphService{result: &driving.Result{Values: []any{"a", "b"}}}})

	out, _, err := run(t, nil, "list", "me/businessPhones")

	require.NoError(t, err)
	assert.JSONEq(t, `{"value":["a","b"]}`, out)
}

func TestDownloadCmd(t *testing.T) {
	graph := &mockGraphService{bytes: 1024}
	withServices(t, &Services{Graph: graph})

	_, errOut, err := run(t, nil, "download", "me/photo/$value", "photo.jpg")

	require.NoError(t, err)
	require.Len(t, graph.calls, 1)
	assert.Equal(t, "me/photo/$value", graph.calls[0].resource)
	assert.Equal(t, "photo.jpg", graph.calls[0].path)
	assert.Contains(t, errOut, "Wrote 1024 bytes to photo.jpg")
}

func TestInvokeCmd_Params(t *testing.T) {
	// Given
	graph := &mockGraphService{}
	withServices(t, &Services{Graph: graph})

	// When
	_, errOut, err := run(t, nil, "invoke", "me", "sendMail",
		"--body", `{"Message":{"subject":"hi"},"SaveToSentItems":true}`,
		"-p", "SaveToSentItems=false",
		"-p", "Comment=plain text")

	// Then
	require.NoError(t, err)
	require.Len(t, graph.calls, 1)
	call := graph.calls[0]
	assert.Equal(t, "Invoke", call.method)
	assert.Equal(t, "sendMail", call.operation)
	assert.Equal(t, map[string]any{
		"Message":         map[string]any{"subject": "hi"},
		"SaveToSentItems": false,
		"Comment":         "plain text",
	}, call.params)
	assert.Contains(t, errOut, "Done.")
}

func TestInvokeCmd_BodyFromFile(t *testing.T) {
	graph := &mockGraphService{}
	withServices(t, &Services{Graph: graph})
	path := filepath.Join(t.TempDir(), "mail.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Message":{"subject":"from file"}}`), 0600))

	_, _, err := run(t, nil, "invoke", "me", "sendMail", "--body", "@"+path)

	require.NoError(t, err)
	require.Len(t, graph.calls, 1)
	assert.Equal(t, map[string]any{"subject": "from file"}, graph.calls[0].params["Message"])
}

func TestInvokeCmd_InvalidParams(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing equals", []string{"-p", "flag"}},
		{"empty key", []string{"-p", "=1"}},
		{"body not an object", []string{"--body", "[1,2]"}},
		{"body not json", []string{"--body", "subject=hi"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graph := &mockGraphService{}
			withServices(t, &Services{Graph: graph})

			args := append([]string{"invoke", "me", "sendMail"}, tt.args...)
			_, _, err := run(t, nil, args...)

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Empty(t, graph.calls)
		})
	}
}

func TestCallCmd(t *testing.T) {
	// Given
	reg := fixtureRegistry(t)
	reminder, err := reg.Construct("reminder", map[string]any{"eventSubject": "standup"})
	require.NoError(t, err)
	graph := &mockGraphService{result: &driving.Result{Records: []*model.Record{reminder}}}
	withServices(t, &Services{Graph: graph})

	// When
	out, _, err := run(t, nil, "call", "me", "reminderView",
		"-p", "StartDateTime=2024-01-01T00:00:00",
		"-p", "EndDateTime=2024-01-02T00:00:00")

	// Then
	require.NoError(t, err)
	require.Len(t, graph.calls, 1)
	assert.Equal(t, "Call", graph.calls[0].method)
	assert.Equal(t, "2024-01-01T00:00:00", graph.calls[0].params["StartDateTime"])
	assert.Contains(t, out, `"eventSubject":"standup"`)
	assert.Contains(t, out, `"@odata.type":"#microsoft.graph.reminder"`)
}

func TestCallCmd_Error(t *testing.T) {
	notFound := errors.New("function frobnicate: not found")
	withServices(t, &Services{Graph: &mockGraphService{err: notFound}})

	_, _, err := run(t, nil, "call", "me", "frobnicate")

	assert.ErrorIs(t, err, notFound)
}

func TestParamValue(t *testing.T) {
	assert.Equal(t, float64(5), paramValue("5"))
	assert.Equal(t, true, paramValue("true"))
	assert.Equal(t, "quoted", paramValue(`"quoted"`))
	assert.Equal(t, "2024-01-01", paramValue("2024-01-01"))
	assert.Equal(t, []any{"a"}, paramValue(`["a"]`))
	assert.Nil(t, paramValue("null"))
}
