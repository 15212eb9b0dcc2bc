// Package model synthesizes runtime type descriptors from a parsed schema
// and constructs typed records from decoded JSON payloads.
//
// A Registry is built once per schema and is read-only afterwards, so it
// can be shared by any number of goroutines without locking.
package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/msgraph-cli/internal/core/domain"
	"github.com/custodia-labs/msgraph-cli/internal/odata/csdl"
)

// Descriptor is the flattened runtime view of one schema type. Inherited
// members are already merged in, base first, with the subtype's own
// declaration replacing a same-named base member.
type Descriptor struct {
	Name      string
	Namespace string
	Kind      domain.TypeKind
	BaseType  string
	Abstract  bool
	OpenType  bool
	HasStream bool
	Key       []string

	Properties []domain.Property
	Navigation []domain.Property
	Actions    map[string]*domain.Operation
	Functions  map[string]*domain.Operation
	Members    []domain.EnumMember

	// Lineage is the type followed by its ancestors, nearest first.
	Lineage []string

	props map[string]int
	navs  map[string]int
}

// QualifiedName is the namespace-qualified wire name, as used in @odata.type.
func (d *Descriptor) QualifiedName() string {
	local := d.Name
	if i := strings.LastIndex(local, "."); i >= 0 {
		local = local[i+1:]
	}
	return d.Namespace + "." + local
}

// IsStructured reports whether records of this type can be constructed.
func (d *Descriptor) IsStructured() bool {
	return d.Kind == domain.KindEntity || d.Kind == domain.KindComplex
}

// Property returns a declared (own or inherited) structural property.
func (d *Descriptor) Property(name string) (domain.Property, bool) {
	i, ok := d.props[name]
	if !ok {
		return domain.Property{}, false
	}
	return d.Properties[i], true
}

// NavigationProperty returns a declared (own or inherited) navigation property.
func (d *Descriptor) NavigationProperty(name string) (domain.Property, bool) {
	i, ok := d.navs[name]
	if !ok {
		return domain.Property{}, false
	}
	return d.Navigation[i], true
}

// Field returns a structural or navigation property by name.
func (d *Descriptor) Field(name string) (domain.Property, bool) {
	if p, ok := d.Property(name); ok {
		return p, true
	}
	return d.NavigationProperty(name)
}

// Is reports whether the type is name or derives from it.
func (d *Descriptor) Is(name string) bool {
	for _, n := range d.Lineage {
		if n == name {
			return true
		}
	}
	return false
}

// Registry owns every Descriptor of a schema.
type Registry struct {
	namespace  string
	namer      *csdl.Namer
	types      map[string]*Descriptor
	entitySets map[string]string
	singletons map[string]bool
}

// NewRegistry flattens every schema type into a Descriptor.
func NewRegistry(schema *domain.Schema) (*Registry, error) {
	r := &Registry{
		namespace:  schema.Namespace,
		namer:      csdl.NamerFor(schema),
		types:      make(map[string]*Descriptor, len(schema.Types)),
		entitySets: make(map[string]string, len(schema.EntitySets)),
		singletons: make(map[string]bool, len(schema.Singletons)),
	}
	building := make(map[string]bool)
	for name := range schema.Types {
		if _, err := r.build(schema, name, building); err != nil {
			return nil, err
		}
	}
	for set, typeName := range schema.EntitySets {
		if _, ok := r.types[typeName]; !ok {
			return nil, &domain.SchemaLoadError{Element: "EntitySet " + set, Reason: fmt.Sprintf("unresolved entity type %q", typeName)}
		}
		r.entitySets[set] = typeName
		r.singletons[set] = schema.Singletons[set]
	}
	return r, nil
}

func (r *Registry) build(schema *domain.Schema, name string, building map[string]bool) (*Descriptor, error) {
	if d, ok := r.types[name]; ok {
		return d, nil
	}
	t, ok := schema.Types[name]
	if !ok {
		return nil, &domain.SchemaLoadError{Element: name, Reason: "unresolved type"}
	}
	if building[name] {
		return nil, &domain.SchemaLoadError{Element: string(t.Kind) + " " + name, Reason: "cyclic base type chain"}
	}
	building[name] = true
	defer delete(building, name)

	d := &Descriptor{
		Name:      t.Name,
		Namespace: t.Namespace,
		Kind:      t.Kind,
		BaseType:  t.BaseType,
		Abstract:  t.Abstract,
		OpenType:  t.OpenType,
		HasStream: t.HasStream,
		Key:       t.Key,
		Members:   t.Members,
		Actions:   make(map[string]*domain.Operation),
		Functions: make(map[string]*domain.Operation),
		Lineage:   []string{t.Name},
		props:     make(map[string]int),
		navs:      make(map[string]int),
	}

	if t.BaseType != "" {
		base, err := r.build(schema, t.BaseType, building)
		if err != nil {
			if _, found := schema.Types[t.BaseType]; !found {
				return nil, &domain.SchemaLoadError{
					Element: string(t.Kind) + " " + name,
					Reason:  fmt.Sprintf("unresolved base type %q", t.BaseType),
				}
			}
			return nil, err
		}
		d.Properties = append(d.Properties, base.Properties...)
		d.Navigation = append(d.Navigation, base.Navigation...)
		for k, v := range base.props {
			d.props[k] = v
		}
		for k, v := range base.navs {
			d.navs[k] = v
		}
		for k, v := range base.Actions {
			d.Actions[k] = v
		}
		for k, v := range base.Functions {
			d.Functions[k] = v
		}
		if len(d.Key) == 0 {
			d.Key = base.Key
		}
		d.Lineage = append(d.Lineage, base.Lineage...)
	}

	d.Properties = overlay(d.Properties, d.props, t.Properties)
	d.Navigation = overlay(d.Navigation, d.navs, t.NavigationProperties)
	for k, v := range t.Actions {
		d.Actions[k] = v
	}
	for k, v := range t.Functions {
		d.Functions[k] = v
	}

	r.types[name] = d
	return d, nil
}

// overlay adds own members after inherited ones; an own member with an
// inherited name takes over the inherited slot.
func overlay(fields []domain.Property, index map[string]int, own []domain.Property) []domain.Property {
	for _, p := range own {
		if i, ok := index[p.Name]; ok {
			fields[i] = p
			continue
		}
		index[p.Name] = len(fields)
		fields = append(fields, p)
	}
	return fields
}

// Namespace returns the default schema namespace.
func (r *Registry) Namespace() string {
	return r.namespace
}

// Canonical canonicalizes a wire type name the same way the schema loader did.
func (r *Registry) Canonical(wire string) string {
	return r.namer.Canonical(wire)
}

// Lookup finds a descriptor by any accepted form of its name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.types[r.namer.Canonical(name)]
	return d, ok
}

// Types returns every descriptor sorted by name.
func (r *Registry) Types() []*Descriptor {
	out := make([]*Descriptor, 0, len(r.types))
	for _, d := range r.types {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// EntitySets returns the entity set and singleton names, sorted.
func (r *Registry) EntitySets() []string {
	out := make([]string, 0, len(r.entitySets))
	for name := range r.entitySets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// EntitySetType returns the entity type exposed by a top-level collection or singleton.
func (r *Registry) EntitySetType(name string) (*Descriptor, bool) {
	typeName, ok := r.entitySets[name]
	if !ok {
		return nil, false
	}
	return r.types[typeName], true
}

// IsSingleton reports whether a top-level name is a singleton.
func (r *Registry) IsSingleton(name string) bool {
	return r.singletons[name]
}

// Enum returns the members of an enum type.
func (r *Registry) Enum(name string) ([]domain.EnumMember, bool) {
	d, ok := r.Lookup(name)
	if !ok || d.Kind != domain.KindEnum {
		return nil, false
	}
	return d.Members, true
}
