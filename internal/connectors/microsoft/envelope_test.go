package microsoft

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind EnvelopeKind
	}{
		{name: "empty", body: "", kind: EnvelopeEmpty},
		{name: "whitespace", body: " \n", kind: EnvelopeEmpty},
		{name: "entity", body: `{"@odata.context":"$metadata#users/$entity","id":"1"}`, kind: EnvelopeSingle},
		{name: "collection", body: `{"@odata.context":"$metadata#users","value":[{"id":"1"}]}`, kind: EnvelopeCollection},
		{name: "empty collection", body: `{"value":[]}`, kind: EnvelopeCollection},
		{name: "primitive value", body: `{"@odata.context":"$metadata#Edm.String","value":"x"}`, kind: EnvelopeSingle},
		{
			name: "entity with array value property",
			body: `{"@odata.context":"$metadata#users('1')/multiValueExtendedProperties/$entity","value":["a"]}`,
			kind: EnvelopeSingle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := ParseEnvelope([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, env.Kind)
		})
	}
}

func TestParseEnvelope_CollectionAnnotations(t *testing.T) {
	body := `{
		"@odata.context": "https://graph.microsoft.com/v1.0/$metadata#users",
		"@odata.count": 12345678901,
		"@odata.nextLink": "https://graph.microsoft.com/v1.0/users?$skiptoken=X",
		"value": [{"id": "1", "age": 9007199254740993}, "stray"]
	}`

	env, err := ParseEnvelope([]byte(body))
	require.NoError(t, err)

	assert.Equal(t, "https://graph.microsoft.com/v1.0/$metadata#users", env.Context)
	assert.Equal(t, "https://graph.microsoft.com/v1.0/users?$skiptoken=X", env.NextLink)
	assert.Empty(t, env.DeltaLink)
	require.NotNil(t, env.Count)
	assert.Equal(t, int64(12345678901), *env.Count)
	assert.Nil(t, env.Object)
	assert.Len(t, env.Items, 2)

	objects := env.Objects()
	require.Len(t, objects, 1)
	assert.Equal(t, json.Number("9007199254740993"), objects[0]["age"])
}

func TestParseEnvelope_DeltaLink(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"value":[],"@odata.deltaLink":"https://graph.microsoft.com/v1.0/users/delta?$deltatoken=abc"}`))
	require.NoError(t, err)

	assert.Equal(t, EnvelopeCollection, env.Kind)
	assert.Equal(t, "https://graph.microsoft.com/v1.0/users/delta?$deltatoken=abc", env.DeltaLink)
	assert.Nil(t, env.Count)
}

func TestParseEnvelope_Malformed(t *testing.T) {
	for _, body := range []string{`[1]`, `null`, `"text"`, `{"id":`} {
		t.Run(body, func(t *testing.T) {
			_, err := ParseEnvelope([]byte(body))
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestEnvelopeKind_String(t *testing.T) {
	assert.Equal(t, "empty", EnvelopeEmpty.String())
	assert.Equal(t, "single", EnvelopeSingle.String())
	assert.Equal(t, "collection", EnvelopeCollection.String())
	assert.Equal(t, "EnvelopeKind(9)", EnvelopeKind(9).String())
}
