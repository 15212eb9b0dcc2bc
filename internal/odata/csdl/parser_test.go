package csdl

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/msgraph-cli/internal/core/domain"
)

func loadFixture(t *testing.T) *domain.Schema {
	t.Helper()
	f, err := os.Open("testdata/metadata.xml")
	require.NoError(t, err)
	defer f.Close()

	schema, err := Parse(f)
	require.NoError(t, err)
	return schema
}

// doc wraps schema elements in a minimal CSDL envelope with Namespace="namespace".
func doc(body string) string {
	return `<?xml version="1.0" encoding="utf-8"?>
<edmx:Edmx Version="4.0" xmlns:edmx="http://docs.oasis-open.org/odata/ns/edmx">
  <edmx:DataServices>
    <Schema Namespace="namespace" xmlns="http://docs.oasis-open.org/odata/ns/edm">` + body + `
    </Schema>
  </edmx:DataServices>
</edmx:Edmx>`
}

func TestParse_Fixture(t *testing.T) {
	schema := loadFixture(t)

	assert.Equal(t, "microsoft.graph", schema.Namespace)
	assert.Equal(t, "graph", schema.Alias)

	user, ok := schema.Types["user"]
	require.True(t, ok)
	assert.Equal(t, domain.KindEntity, user.Kind)
	assert.Equal(t, "directoryObject", user.BaseType)
	assert.True(t, user.OpenType)

	// inherited properties stay on the base type
	_, hasID := user.Property("id")
	assert.False(t, hasID)
	entity := schema.Types["entity"]
	assert.Equal(t, []string{"id"}, entity.Key)
	assert.True(t, entity.Abstract)

	group := schema.Types["group"]
	assert.Equal(t, "directoryObject", group.BaseType, "fully qualified BaseType canonicalizes like the alias form")

	message := schema.Types["message"]
	assert.True(t, message.HasStream)
}

func TestParse_PropertyTypes(t *testing.T) {
	schema := loadFixture(t)
	user := schema.Types["user"]

	tests := []struct {
		property   string
		name       string
		category   domain.Category
		collection bool
	}{
		{property: "accountEnabled", name: "Edm.Boolean", category: domain.CategoryBoolean},
		{property: "age", name: "Edm.Int32", category: domain.CategoryInteger},
		{property: "businessPhones", name: "Edm.String", category: domain.CategoryText, collection: true},
		{property: "createdDateTime", name: "Edm.DateTimeOffset", category: domain.CategoryDateTime},
		{property: "birthday", name: "Edm.Date", category: domain.CategoryDate},
		{property: "mail", name: "Edm.String", category: domain.CategoryText},
		{property: "photo", name: "Edm.Stream", category: domain.CategoryBinary},
		{property: "passwordProfile", name: "passwordProfile", category: domain.CategoryStructured},
		{property: "otherAddresses", name: "emailAddress", category: domain.CategoryStructured, collection: true},
	}

	for _, tt := range tests {
		t.Run(tt.property, func(t *testing.T) {
			p, ok := user.Property(tt.property)
			require.True(t, ok)
			assert.Equal(t, tt.name, p.Type.Name)
			assert.Equal(t, tt.category, p.Type.Category)
			assert.Equal(t, tt.collection, p.Type.Collection)
		})
	}

	businessPhones, _ := user.Property("businessPhones")
	assert.False(t, businessPhones.Type.Nullable)
	age, _ := user.Property("age")
	assert.True(t, age.Type.Nullable)

	importance, ok := schema.Types["message"].Property("importance")
	require.True(t, ok)
	assert.Equal(t, domain.CategoryEnum, importance.Type.Category)
}

func TestParse_TypeDefinitions(t *testing.T) {
	schema, err := Parse(strings.NewReader(doc(`
      <TypeDefinition Name="address" UnderlyingType="Edm.String" />
      <ComplexType Name="contact">
        <Property Name="mail" Type="namespace.address" />
        <Property Name="others" Type="Collection(namespace.address)" Nullable="false" />
      </ComplexType>`)))
	require.NoError(t, err)

	contact := schema.Types["contact"]
	mail, ok := contact.Property("mail")
	require.True(t, ok)
	assert.Equal(t, domain.TypeRef{Name: "Edm.String", Category: domain.CategoryText, Nullable: true}, mail.Type)

	others, ok := contact.Property("others")
	require.True(t, ok)
	assert.Equal(t, domain.TypeRef{Name: "Edm.String", Category: domain.CategoryText, Collection: true}, others.Type)

	_, declared := schema.Types["address"]
	assert.False(t, declared, "type definitions are not schema types")
}

func TestParse_PropertyOrderPreserved(t *testing.T) {
	schema := loadFixture(t)

	names := make([]string, 0)
	for _, p := range schema.Types["message"].Properties {
		names = append(names, p.Name)
	}

	assert.Equal(t, []string{"subject", "importance", "body", "toRecipients", "isRead"}, names)
}

func TestParse_NavigationProperties(t *testing.T) {
	schema := loadFixture(t)
	user := schema.Types["user"]

	require.Len(t, user.NavigationProperties, 2)
	messages := user.NavigationProperties[0]
	assert.Equal(t, "messages", messages.Name)
	assert.Equal(t, "message", messages.Type.Name)
	assert.True(t, messages.Type.Collection)
	assert.True(t, messages.ContainsTarget)

	manager := user.NavigationProperties[1]
	assert.False(t, manager.Type.Collection)
}

func TestParse_BoundOperations(t *testing.T) {
	schema := loadFixture(t)
	user := schema.Types["user"]

	sendMail, ok := user.Actions["sendMail"]
	require.True(t, ok, "action declared before its binding type must still bind")
	assert.Nil(t, sendMail.ReturnType)
	require.Len(t, sendMail.Parameters, 2)
	assert.Equal(t, "Message", sendMail.Parameters[0].Name)
	assert.Equal(t, "message", sendMail.Parameters[0].Type.Name)

	reminderView, ok := user.Functions["reminderView"]
	require.True(t, ok)
	require.NotNil(t, reminderView.ReturnType)
	assert.True(t, reminderView.ReturnType.Collection)
	assert.Equal(t, "reminder", reminderView.ReturnType.Name)

	delta, ok := user.Functions["delta"]
	require.True(t, ok)
	assert.True(t, delta.BoundToCollection)

	restore, ok := schema.Types["directoryObject"].Actions["restore"]
	require.True(t, ok)
	assert.Equal(t, "directoryObject", restore.ReturnType.Name)
}

func TestParse_EmptyOperationMapsNotNil(t *testing.T) {
	schema := loadFixture(t)

	for name, typ := range schema.Types {
		assert.NotNil(t, typ.Actions, name)
		assert.NotNil(t, typ.Functions, name)
	}
	assert.Empty(t, schema.Types["message"].Actions)
}

func TestParse_UnboundOperationsSkipped(t *testing.T) {
	schema := loadFixture(t)

	for _, typ := range schema.Types {
		_, ok := typ.Functions["getStaffAvailability"]
		assert.False(t, ok)
	}
}

func TestParse_Enums(t *testing.T) {
	schema := loadFixture(t)

	importance := schema.Types["importance"]
	require.Equal(t, domain.KindEnum, importance.Kind)
	assert.Equal(t, []domain.EnumMember{
		{Name: "low", Value: "0"},
		{Name: "normal", Value: "1"},
		{Name: "high", Value: "2"},
	}, importance.Members)

	bodyType := schema.Types["bodyType"]
	assert.Equal(t, "1", bodyType.Members[1].Value, "implicit values follow declaration order")
}

func TestParse_EntityContainer(t *testing.T) {
	schema := loadFixture(t)

	assert.Equal(t, "user", schema.EntitySets["users"])
	assert.Equal(t, "group", schema.EntitySets["groups"])
	assert.Equal(t, "user", schema.EntitySets["me"])
	assert.True(t, schema.Singletons["me"])
	assert.False(t, schema.Singletons["users"])
}

func TestParse_SecondarySchemaNames(t *testing.T) {
	schema := loadFixture(t)

	callRecord, ok := schema.Types["callRecords.callRecord"]
	require.True(t, ok)
	assert.Equal(t, "entity", callRecord.BaseType)

	modalities, ok := callRecord.Property("modalities")
	require.True(t, ok)
	assert.Equal(t, "callRecords.modality", modalities.Type.Name)
	assert.Equal(t, domain.CategoryEnum, modalities.Type.Category)

	sessions := callRecord.NavigationProperties[0]
	assert.Equal(t, "callRecords.session", sessions.Type.Name)
}

func TestParse_NoDanglingBaseTypes(t *testing.T) {
	schema := loadFixture(t)

	for name, typ := range schema.Types {
		if typ.BaseType == "" {
			continue
		}
		_, ok := schema.Types[typ.BaseType]
		assert.True(t, ok, "base of %s", name)
	}
}

func TestParse_SubtypeScenario(t *testing.T) {
	schema, err := Parse(strings.NewReader(doc(`
      <EntityType Name="admin" BaseType="namespace.user">
        <Property Name="level" Type="Edm.Int32" />
      </EntityType>
      <EntityType Name="user">
        <Property Name="id" Type="Edm.String" />
        <Property Name="age" Type="Edm.Int32" />
      </EntityType>`)))

	require.NoError(t, err)
	assert.Equal(t, "user", schema.Types["admin"].BaseType)
	assert.Len(t, schema.Types["admin"].Properties, 1)
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason string
	}{
		{
			name:   "malformed xml",
			input:  `<edmx:Edmx><edmx:DataServices><Schema Namespace="namespace">`,
			reason: "malformed document",
		},
		{
			name: "unresolved base type",
			input: doc(`
      <EntityType Name="user" BaseType="namespace.ghost">
        <Property Name="id" Type="Edm.String" />
      </EntityType>`),
			reason: "unresolved base type",
		},
		{
			name: "cyclic base chain",
			input: doc(`
      <EntityType Name="a" BaseType="namespace.b" />
      <EntityType Name="b" BaseType="namespace.a" />`),
			reason: "cyclic base type chain",
		},
		{
			name: "base type of another kind",
			input: doc(`
      <ComplexType Name="address" />
      <EntityType Name="user" BaseType="namespace.address" />`),
			reason: "is a ComplexType",
		},
		{
			name: "missing property name",
			input: doc(`
      <EntityType Name="user">
        <Property Type="Edm.String" />
      </EntityType>`),
			reason: "missing Name attribute",
		},
		{
			name: "missing property type",
			input: doc(`
      <EntityType Name="user">
        <Property Name="id" />
      </EntityType>`),
			reason: "missing Type attribute",
		},
		{
			name: "missing type name",
			input: doc(`
      <EntityType>
        <Property Name="id" Type="Edm.String" />
      </EntityType>`),
			reason: "missing Name attribute",
		},
		{
			name: "duplicate property",
			input: doc(`
      <EntityType Name="user">
        <Property Name="id" Type="Edm.String" />
        <Property Name="id" Type="Edm.Int32" />
      </EntityType>`),
			reason: "duplicate property id",
		},
		{
			name: "unresolved binding type",
			input: doc(`
      <Action Name="wipe" IsBound="true">
        <Parameter Name="bindingParameter" Type="namespace.device" />
      </Action>
      <EntityType Name="user" />`),
			reason: "unresolved binding type",
		},
		{
			name: "unresolved property type",
			input: doc(`
      <EntityType Name="user">
        <Property Name="address" Type="namespace.address" />
      </EntityType>`),
			reason: "unresolved type",
		},
		{
			name: "entity set of unknown type",
			input: doc(`
      <EntityContainer Name="svc">
        <EntitySet Name="users" EntityType="namespace.user" />
      </EntityContainer>`),
			reason: "unresolved entity type",
		},
		{
			name: "type definition over a structured type",
			input: doc(`
      <ComplexType Name="address" />
      <TypeDefinition Name="alias" UnderlyingType="namespace.address" />
      <EntityType Name="user">
        <Property Name="home" Type="namespace.alias" />
      </EntityType>`),
			reason: "is not primitive",
		},
		{
			name: "type definition without underlying type",
			input: doc(`
      <TypeDefinition Name="alias" />`),
			reason: "UnderlyingType",
		},
		{
			name: "no schema",
			input: `<edmx:Edmx xmlns:edmx="http://docs.oasis-open.org/odata/ns/edmx">
  <edmx:DataServices />
</edmx:Edmx>`,
			reason: "declares no schema",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := Parse(strings.NewReader(tt.input))

			require.Error(t, err)
			assert.Nil(t, schema, "no partial schema on failure")
			var loadErr *domain.SchemaLoadError
			require.True(t, errors.As(err, &loadErr))
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestParse_UnknownPrimitiveType(t *testing.T) {
	schema, err := Parse(strings.NewReader(doc(`
      <EntityType Name="place">
        <Property Name="location" Type="Edm.Geography" />
      </EntityType>`)))

	require.Error(t, err)
	assert.Nil(t, schema)

	var primErr *domain.UnknownPrimitiveTypeError
	require.True(t, errors.As(err, &primErr))
	assert.Equal(t, "Edm.Geography", primErr.Type)

	var loadErr *domain.SchemaLoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestParse_UnknownPrimitiveInParameter(t *testing.T) {
	_, err := Parse(strings.NewReader(doc(`
      <Function Name="near" IsBound="true">
        <Parameter Name="bindingParameter" Type="namespace.place" />
        <Parameter Name="point" Type="Collection(Edm.GeographyPoint)" />
      </Function>
      <EntityType Name="place" />`)))

	var primErr *domain.UnknownPrimitiveTypeError
	require.True(t, errors.As(err, &primErr))
	assert.Equal(t, "Edm.GeographyPoint", primErr.Type)
}

func TestParser_MultipleFiles(t *testing.T) {
	p := NewParser()
	defer p.Close()

	p.AddFile("base.xml", nopCloser(doc(`
      <EntityType Name="entity">
        <Property Name="id" Type="Edm.String" />
      </EntityType>
      <EntityContainer Name="svc">
        <EntitySet Name="widgets" EntityType="namespace.widget" />
      </EntityContainer>`)))
	p.AddFile("widgets.xml", nopCloser(doc(`
      <EntityType Name="widget" BaseType="namespace.entity" />`)))

	schema, err := p.Parse()

	require.NoError(t, err)
	assert.Equal(t, "entity", schema.Types["widget"].BaseType)
	assert.Equal(t, "widget", schema.EntitySets["widgets"])
}
