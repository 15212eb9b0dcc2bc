package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/msgraph-cli/internal/core/domain"
)

func TestResolve_Priority(t *testing.T) {
	reg := graphRegistry(t)

	tests := []struct {
		name     string
		payload  map[string]any
		context  string
		fallback string
		expected string
	}{
		{
			name:     "discriminator beats context and fallback",
			payload:  map[string]any{"@odata.type": "#microsoft.graph.group"},
			context:  "https://graph.microsoft.com/v1.0/$metadata#users",
			fallback: "message",
			expected: "group",
		},
		{
			name:     "context beats fallback",
			payload:  map[string]any{"id": "1"},
			context:  "https://graph.microsoft.com/v1.0/$metadata#users/$entity",
			fallback: "message",
			expected: "user",
		},
		{
			name:     "payload context annotation",
			payload:  map[string]any{"@odata.context": "https://graph.microsoft.com/v1.0/$metadata#groups/$entity"},
			expected: "group",
		},
		{
			name:     "fallback",
			payload:  map[string]any{"id": "1"},
			fallback: "microsoft.graph.message",
			expected: "message",
		},
		{
			name:     "unusable context falls through",
			payload:  map[string]any{},
			context:  "https://graph.microsoft.com/v1.0/$metadata#Collection(Edm.String)",
			fallback: "reminder",
			expected: "reminder",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := reg.Resolve(tt.payload, tt.context, tt.fallback)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d.Name)
		})
	}
}

func TestResolve_Failures(t *testing.T) {
	reg := graphRegistry(t)

	tests := []struct {
		name     string
		payload  map[string]any
		context  string
		fallback string
	}{
		{name: "nothing to go on", payload: map[string]any{"id": "1"}},
		{name: "unknown discriminator", payload: map[string]any{"@odata.type": "#microsoft.graph.ghost"}, fallback: "user"},
		{name: "enum discriminator", payload: map[string]any{"@odata.type": "#microsoft.graph.importance"}},
		{name: "unknown fallback", payload: map[string]any{}, fallback: "ghost"},
		{name: "unknown context", payload: map[string]any{}, context: "$metadata#things"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := reg.Resolve(tt.payload, tt.context, tt.fallback)

			var resErr *domain.TypeResolutionError
			require.ErrorAs(t, err, &resErr)
			assert.Nil(t, d)
		})
	}
}

func TestResolveContext(t *testing.T) {
	reg := graphRegistry(t)

	tests := []struct {
		context  string
		expected string
	}{
		{"https://graph.microsoft.com/v1.0/$metadata#users", "user"},
		{"$metadata#users/$entity", "user"},
		{"$metadata#users(id,displayName)", "user"},
		{"$metadata#users/$delta", "user"},
		{"$metadata#me", "user"},
		{"$metadata#Collection(microsoft.graph.reminder)", "reminder"},
		{"$metadata#microsoft.graph.itemBody", "itemBody"},
		{"$metadata#users('48d3-1887')/messages", "message"},
		{"$metadata#users('a/b')/messages/$entity", "message"},
		{"$metadata#users('1')/manager", "directoryObject"},
		{"$metadata#directoryObjects/microsoft.graph.group", "group"},
		{"$metadata#groups('1')/members/microsoft.graph.user", "user"},
		{"me/messages", "message"},
		{"$metadata#microsoft.graph.callRecords.callRecord('1')/sessions", "callRecords.session"},
	}

	for _, tt := range tests {
		t.Run(tt.context, func(t *testing.T) {
			d, ok := reg.ResolveContext(tt.context)
			require.True(t, ok)
			assert.Equal(t, tt.expected, d.Name)
		})
	}
}

func TestResolveContext_Unresolvable(t *testing.T) {
	reg := graphRegistry(t)

	for _, ctx := range []string{
		"$metadata#Edm.String",
		"$metadata#users('1')/displayName",
		"$metadata#users('1')/nothing",
		"$metadata#graph.importance",
		"$metadata#",
	} {
		t.Run(ctx, func(t *testing.T) {
			_, ok := reg.ResolveContext(ctx)
			assert.False(t, ok)
		})
	}
}

func TestConstructAny(t *testing.T) {
	reg := graphRegistry(t)

	rec, err := reg.ConstructAny(map[string]any{
		"@odata.type": "#microsoft.graph.group",
		"displayName": "Team",
		"mail":        "dropped",
	}, "$metadata#directoryObjects", "")
	require.NoError(t, err)

	assert.Equal(t, "group", rec.Type().Name)
	assert.True(t, rec.Is("directoryObject"))
	assert.Equal(t, []string{"displayName"}, rec.Fields())
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"users('a/b')", "messages"}, splitPath("users('a/b')/messages"))
	assert.Equal(t, []string{"users(id,name)", "$entity"}, splitPath("users(id,name)/$entity"))
	assert.Equal(t, []string{"me"}, splitPath("me"))
}

func TestResolveResource(t *testing.T) {
	reg := graphRegistry(t)

	tests := []struct {
		path       string
		expected   string
		collection bool
	}{
		{"users", "user", true},
		{"users/48d3-1887", "user", false},
		{"users('48d3-1887')", "user", false},
		{"users/48d3-1887/messages", "message", true},
		{"users/48d3-1887/messages/AAMk=", "message", false},
		{"me", "user", false},
		{"me/manager", "directoryObject", false},
		{"me/messages?$top=5", "message", true},
		{"groups/1/members/microsoft.graph.user", "user", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			d, collection, ok := reg.ResolveResource(tt.path)
			require.True(t, ok)
			assert.Equal(t, tt.expected, d.Name)
			assert.Equal(t, tt.collection, collection)
		})
	}

	_, _, ok := reg.ResolveResource("me/unknown")
	assert.False(t, ok, "key segments only follow collections")
	_, _, ok = reg.ResolveResource("users/1/2")
	assert.False(t, ok)
}
