package domain

// TypeKind identifies the CSDL element a schema type was declared with.
type TypeKind string

const (
	// KindEntity is an EntityType: a record with identity.
	KindEntity TypeKind = "EntityType"
	// KindComplex is a ComplexType: a structured value without identity.
	KindComplex TypeKind = "ComplexType"
	// KindEnum is an EnumType.
	KindEnum TypeKind = "EnumType"
)

// Category is the language-neutral semantic category of a declared type.
type Category string

const (
	CategoryText       Category = "text"
	CategoryInteger    Category = "integer"
	CategoryFloat      Category = "float"
	CategoryBoolean    Category = "boolean"
	CategoryDate       Category = "date"
	CategoryDateTime   Category = "datetime"
	CategoryDuration   Category = "duration"
	CategoryBinary     Category = "binary"
	CategoryEnum       Category = "enum"
	CategoryStructured Category = "structured"
)

// IsPrimitive reports whether the category is one of the Edm primitive categories.
func (c Category) IsPrimitive() bool {
	return c != CategoryEnum && c != CategoryStructured && c != ""
}

// TypeRef is a declared property, parameter or return type.
// Collection(X) and X differ only by the Collection flag.
type TypeRef struct {
	// Name is the canonical schema type name for structured and enum
	// types, or the Edm wire name for primitives.
	Name       string
	Category   Category
	Collection bool
	Nullable   bool
}

// String renders the reference back in wire notation.
func (t TypeRef) String() string {
	if t.Collection {
		return "Collection(" + t.Name + ")"
	}
	return t.Name
}

// Property is a declared structural or navigation property.
type Property struct {
	Name string
	Type TypeRef
	// ContainsTarget is only meaningful for navigation properties.
	ContainsTarget bool
}

// Parameter is a bound operation parameter, excluding the binding parameter.
type Parameter struct {
	Name string
	Type TypeRef
}

// Operation describes a bound action or function.
type Operation struct {
	Name string
	// ReturnType is nil for operations that return nothing.
	ReturnType        *TypeRef
	Parameters        []Parameter
	BoundToCollection bool
	IsComposable      bool
}

// Parameter returns the named parameter.
func (o *Operation) Parameter(name string) (Parameter, bool) {
	for _, p := range o.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// EnumMember is one member of an EnumType.
type EnumMember struct {
	Name  string
	Value string
}

// SchemaType is one entity, complex or enum type of the service schema.
// Properties hold only the type's own declarations; inherited ones live
// on the base chain.
type SchemaType struct {
	Name      string
	Namespace string
	Kind      TypeKind
	BaseType  string
	Abstract  bool
	OpenType  bool
	HasStream bool
	Key       []string

	Properties           []Property
	NavigationProperties []Property
	Actions              map[string]*Operation
	Functions            map[string]*Operation

	Members []EnumMember
}

// NewSchemaType returns a type with empty operation maps.
func NewSchemaType(name, namespace string, kind TypeKind) *SchemaType {
	return &SchemaType{
		Name:      name,
		Namespace: namespace,
		Kind:      kind,
		Actions:   make(map[string]*Operation),
		Functions: make(map[string]*Operation),
	}
}

// Property returns the own property with the given name.
func (t *SchemaType) Property(name string) (Property, bool) {
	for _, p := range t.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// IsStructured reports whether values of the type carry fields.
func (t *SchemaType) IsStructured() bool {
	return t.Kind == KindEntity || t.Kind == KindComplex
}

// Namespace is one schema namespace declared by the document.
type Namespace struct {
	Name  string
	Alias string
}

// Schema is the parsed service schema graph.
type Schema struct {
	// Namespace is the namespace of the first schema in the document,
	// used as the default for canonical names.
	Namespace string
	Alias     string
	// Namespaces lists every schema of the document, default first.
	Namespaces []Namespace
	Types      map[string]*SchemaType
	// EntitySets maps entity set and singleton names to their entity type.
	EntitySets map[string]string
	// Singletons marks which EntitySets entries are singletons.
	Singletons map[string]bool
}

// NewSchema returns an empty schema graph.
func NewSchema(namespace, alias string) *Schema {
	return &Schema{
		Namespace:  namespace,
		Alias:      alias,
		Namespaces: []Namespace{{Name: namespace, Alias: alias}},
		Types:      make(map[string]*SchemaType),
		EntitySets: make(map[string]string),
		Singletons: make(map[string]bool),
	}
}
