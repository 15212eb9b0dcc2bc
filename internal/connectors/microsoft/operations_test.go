package microsoft

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/msgraph-cli/internal/core/domain"
)

func TestClient_InvokeAction(t *testing.T) {
	reg := testRegistry(t)
	user, ok := reg.Lookup("user")
	require.True(t, ok)

	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1.0/me/sendMail", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"subject": "hi"}, body["Message"])
		assert.Equal(t, false, body["SaveToSentItems"])
		w.WriteHeader(http.StatusAccepted)
	})

	env, err := c.InvokeAction(context.Background(), "me", user.Actions["sendMail"], map[string]any{
		"Message":         map[string]any{"subject": "hi"},
		"SaveToSentItems": false,
	})
	require.NoError(t, err)
	assert.Equal(t, EnvelopeEmpty, env.Kind)
}

func TestClient_InvokeAction_Validation(t *testing.T) {
	reg := testRegistry(t)
	user, _ := reg.Lookup("user")
	c := NewClient("http://127.0.0.1:0")

	tests := []struct {
		name   string
		params map[string]any
	}{
		{name: "missing required", params: map[string]any{"SaveToSentItems": true}},
		{name: "unknown parameter", params: map[string]any{"Message": map[string]any{}, "Importance": "high"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.InvokeAction(context.Background(), "me", user.Actions["sendMail"], tt.params)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestClient_CallFunction(t *testing.T) {
	reg := testRegistry(t)
	user, _ := reg.Lookup("user")

	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1.0/me/reminderView(StartDateTime='2024-01-01T00:00:00Z',EndDateTime='it''s later')", r.URL.Path)
		_, _ = w.Write([]byte(`{"@odata.context":"$metadata#Collection(microsoft.graph.reminder)","value":[{"eventSubject":"standup"}]}`))
	})

	env, err := c.CallFunction(context.Background(), "me", user.Functions["reminderView"], map[string]any{
		"StartDateTime": "2024-01-01T00:00:00Z",
		"EndDateTime":   "it's later",
	})
	require.NoError(t, err)
	require.Equal(t, EnvelopeCollection, env.Kind)

	records, err := (&Page{Items: env.Items, Context: env.Context}).Records(reg, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "reminder", records[0].Type().Name)
}

func TestClient_CallFunction_NoParameters(t *testing.T) {
	reg := testRegistry(t)
	user, _ := reg.Lookup("user")

	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1.0/users/delta()", r.URL.Path)
		_, _ = w.Write([]byte(`{"value":[],"@odata.deltaLink":"x"}`))
	})

	env, err := c.CallFunction(context.Background(), "users", user.Functions["delta"], nil)
	require.NoError(t, err)
	assert.Equal(t, "x", env.DeltaLink)
}

func TestFunctionSegment(t *testing.T) {
	op := &domain.Operation{
		Name: "f",
		Parameters: []domain.Parameter{
			{Name: "s", Type: domain.TypeRef{Category: domain.CategoryText, Nullable: true}},
			{Name: "n", Type: domain.TypeRef{Category: domain.CategoryInteger, Nullable: true}},
			{Name: "b", Type: domain.TypeRef{Category: domain.CategoryBoolean, Nullable: true}},
			{Name: "d", Type: domain.TypeRef{Category: domain.CategoryDate, Nullable: true}},
			{Name: "dur", Type: domain.TypeRef{Category: domain.CategoryDuration, Nullable: true}},
			{Name: "ids", Type: domain.TypeRef{Category: domain.CategoryText, Collection: true, Nullable: true}},
			{Name: "x", Type: domain.TypeRef{Category: domain.CategoryText, Nullable: true}},
		},
	}

	segment, aliases, err := functionSegment(op, map[string]any{
		"s":   "a b",
		"n":   json.Number("42"),
		"b":   true,
		"d":   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		"dur": "PT1H",
		"ids": []string{"1", "2"},
		"x":   nil,
	})
	require.NoError(t, err)

	assert.Equal(t, "f(s='a%20b',n=42,b=true,d=2024-02-29,dur=duration'PT1H',ids=@ids,x=null)", segment)
	assert.Equal(t, map[string]string{"@ids": `["1","2"]`}, aliases)
}
