package csdl

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/custodia-labs/msgraph-cli/internal/core/domain"
	"github.com/custodia-labs/msgraph-cli/internal/logger"
)

// Parser turns one or more CSDL documents into a single schema graph.
type Parser struct {
	Files map[string]io.ReadCloser
	order []string
}

func NewParser() *Parser {
	return &Parser{
		Files: make(map[string]io.ReadCloser),
	}
}

func (p *Parser) Close() error {
	for _, file := range p.Files {
		_ = file.Close()
	}
	return nil
}

// AddFile queues a document. Documents are parsed in the order they were added.
func (p *Parser) AddFile(name string, file io.ReadCloser) {
	name = strings.TrimSuffix(name, ".xml")
	if _, ok := p.Files[name]; !ok {
		p.order = append(p.order, name)
	}
	p.Files[name] = file
}

// Parse reads a single CSDL document.
func Parse(r io.Reader) (*domain.Schema, error) {
	p := NewParser()
	p.AddFile("metadata", io.NopCloser(r))
	return p.Parse()
}

// Parse decodes every queued document and builds the schema graph.
//
// Types are collected from all schemas before any reference is resolved,
// so base types, property types and binding parameters may point forward.
// Any error aborts the whole load.
func (p *Parser) Parse() (*domain.Schema, error) {
	docs := make([]Edmx, 0, len(p.order))
	for _, name := range p.order {
		edmx := Edmx{}
		if err := xml.NewDecoder(p.Files[name]).Decode(&edmx); err != nil {
			return nil, &domain.SchemaLoadError{Element: name, Reason: "malformed document", Err: err}
		}
		docs = append(docs, edmx)
	}

	b, err := newBuilder(docs)
	if err != nil {
		return nil, err
	}
	if err := b.collect(); err != nil {
		return nil, err
	}
	if err := b.resolve(); err != nil {
		return nil, err
	}
	logger.Debug("csdl: parsed %d types and %d entity sets from %d documents",
		len(b.schema.Types), len(b.schema.EntitySets), len(docs))
	return b.schema, nil
}

// builder holds the state shared by the two passes.
type builder struct {
	docs     []Edmx
	schema   *domain.Schema
	namer    *Namer
	typeDefs map[string]string
	// external holds namespaces pulled in via edmx:Reference; references
	// into them are kept verbatim rather than resolved.
	external []string
}

func newBuilder(docs []Edmx) (*builder, error) {
	var first *Schema
	for i := range docs {
		for j := range docs[i].DataServices.Schema {
			s := &docs[i].DataServices.Schema[j]
			if first == nil || (len(first.EntityContainer) == 0 && len(s.EntityContainer) > 0) {
				first = s
			}
		}
	}
	if first == nil {
		return nil, &domain.SchemaLoadError{Reason: "document declares no schema"}
	}
	if first.Namespace == "" {
		return nil, &domain.SchemaLoadError{Element: "Schema", Reason: "missing Namespace attribute"}
	}

	b := &builder{
		docs:     docs,
		schema:   domain.NewSchema(first.Namespace, first.Alias),
		namer:    NewNamer(first.Namespace, first.Alias),
		typeDefs: make(map[string]string),
	}
	for _, doc := range docs {
		for _, s := range doc.DataServices.Schema {
			if s.Namespace == "" {
				return nil, &domain.SchemaLoadError{Element: "Schema", Reason: "missing Namespace attribute"}
			}
			b.namer.AddSchema(s.Namespace, s.Alias, first.Namespace)
			if s.Namespace != first.Namespace {
				b.schema.Namespaces = append(b.schema.Namespaces, domain.Namespace{Name: s.Namespace, Alias: s.Alias})
			}
		}
		for _, ref := range doc.Reference {
			for _, inc := range ref.Include {
				b.external = append(b.external, inc.Namespace+".")
				if inc.Alias != "" {
					b.external = append(b.external, inc.Alias+".")
				}
			}
		}
	}
	return b, nil
}

func (b *builder) each(fn func(s *Schema) error) error {
	for i := range b.docs {
		for j := range b.docs[i].DataServices.Schema {
			if err := fn(&b.docs[i].DataServices.Schema[j]); err != nil {
				return err
			}
		}
	}
	return nil
}

// collect is the first pass: register every type name.
func (b *builder) collect() error {
	return b.each(func(s *Schema) error {
		for _, et := range s.EntityType {
			if err := b.declare(et.Name, s.Namespace, domain.KindEntity); err != nil {
				return err
			}
		}
		for _, ct := range s.ComplexType {
			if err := b.declare(ct.Name, s.Namespace, domain.KindComplex); err != nil {
				return err
			}
		}
		for _, en := range s.EnumType {
			if err := b.declare(en.Name, s.Namespace, domain.KindEnum); err != nil {
				return err
			}
		}
		for _, td := range s.TypeDefinition {
			if td.Name == "" {
				return missingAttr("TypeDefinition", "Name")
			}
			if td.UnderlyingType == "" {
				return missingAttr("TypeDefinition "+td.Name, "UnderlyingType")
			}
			b.typeDefs[b.namer.Canonical(s.Namespace+"."+td.Name)] = td.UnderlyingType
		}
		return nil
	})
}

func (b *builder) declare(name, namespace string, kind domain.TypeKind) error {
	if name == "" {
		return missingAttr(string(kind), "Name")
	}
	canonical := b.namer.Canonical(namespace + "." + name)
	if _, ok := b.schema.Types[canonical]; ok {
		return &domain.SchemaLoadError{Element: string(kind) + " " + canonical, Reason: "duplicate type"}
	}
	b.schema.Types[canonical] = domain.NewSchemaType(canonical, namespace, kind)
	return nil
}

// resolve is the second pass: fill in members and check every reference.
func (b *builder) resolve() error {
	err := b.each(func(s *Schema) error {
		for _, et := range s.EntityType {
			if err := b.resolveEntity(s.Namespace, et); err != nil {
				return err
			}
		}
		for _, ct := range s.ComplexType {
			if err := b.resolveComplex(s.Namespace, ct); err != nil {
				return err
			}
		}
		for _, en := range s.EnumType {
			if err := b.resolveEnum(s.Namespace, en); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := b.checkInheritance(); err != nil {
		return err
	}
	return b.each(func(s *Schema) error {
		for _, a := range s.Action {
			op := operationSource{name: a.Name, bound: a.IsBound, params: a.Parameter, ret: a.ReturnType}
			if err := b.bindOperation("Action", op); err != nil {
				return err
			}
		}
		for _, f := range s.Function {
			op := operationSource{name: f.Name, bound: f.IsBound, composable: f.IsComposable, params: f.Parameter, ret: f.ReturnType}
			if err := b.bindOperation("Function", op); err != nil {
				return err
			}
		}
		for _, c := range s.EntityContainer {
			if err := b.resolveContainer(c); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *builder) lookup(namespace, name string) *domain.SchemaType {
	return b.schema.Types[b.namer.Canonical(namespace+"."+name)]
}

func (b *builder) resolveEntity(namespace string, et EntityType) error {
	t := b.lookup(namespace, et.Name)
	element := "EntityType " + t.Name
	t.Abstract = et.Abstract
	t.OpenType = et.OpenType
	t.HasStream = et.HasStream
	for _, ref := range et.Key.PropertyRef {
		if ref.Name == "" {
			return missingAttr(element+" Key", "Name")
		}
		t.Key = append(t.Key, ref.Name)
	}
	if err := b.resolveBase(t, et.BaseType); err != nil {
		return err
	}
	props, err := b.properties(element, et.Property)
	if err != nil {
		return err
	}
	t.Properties = props
	navs, err := b.navigation(element, et.NavigationProperty)
	if err != nil {
		return err
	}
	t.NavigationProperties = navs
	return nil
}

func (b *builder) resolveComplex(namespace string, ct ComplexType) error {
	t := b.lookup(namespace, ct.Name)
	element := "ComplexType " + t.Name
	t.Abstract = ct.Abstract
	t.OpenType = ct.OpenType
	if err := b.resolveBase(t, ct.BaseType); err != nil {
		return err
	}
	props, err := b.properties(element, ct.Property)
	if err != nil {
		return err
	}
	t.Properties = props
	navs, err := b.navigation(element, ct.NavigationProperty)
	if err != nil {
		return err
	}
	t.NavigationProperties = navs
	return nil
}

func (b *builder) resolveEnum(namespace string, en EnumType) error {
	t := b.lookup(namespace, en.Name)
	seen := make(map[string]bool, len(en.Member))
	for i, m := range en.Member {
		if m.Name == "" {
			return missingAttr("EnumType "+t.Name+" Member", "Name")
		}
		if seen[m.Name] {
			return &domain.SchemaLoadError{Element: "EnumType " + t.Name, Reason: "duplicate member " + m.Name}
		}
		seen[m.Name] = true
		// members without an explicit Value are numbered by position
		value := strconv.Itoa(i)
		if m.Value != nil {
			value = *m.Value
		}
		t.Members = append(t.Members, domain.EnumMember{Name: m.Name, Value: value})
	}
	return nil
}

func (b *builder) resolveBase(t *domain.SchemaType, wire string) error {
	if wire == "" {
		return nil
	}
	name := b.namer.Canonical(wire)
	base, ok := b.schema.Types[name]
	if !ok {
		return &domain.SchemaLoadError{
			Element: string(t.Kind) + " " + t.Name,
			Reason:  fmt.Sprintf("unresolved base type %q", wire),
		}
	}
	if base.Kind != t.Kind {
		return &domain.SchemaLoadError{
			Element: string(t.Kind) + " " + t.Name,
			Reason:  fmt.Sprintf("base type %q is a %s", wire, base.Kind),
		}
	}
	t.BaseType = name
	return nil
}

// checkInheritance rejects cyclic base chains.
func (b *builder) checkInheritance() error {
	for name, t := range b.schema.Types {
		seen := map[string]bool{name: true}
		for cur := t; cur.BaseType != ""; cur = b.schema.Types[cur.BaseType] {
			if seen[cur.BaseType] {
				return &domain.SchemaLoadError{
					Element: string(t.Kind) + " " + name,
					Reason:  "cyclic base type chain through " + cur.BaseType,
				}
			}
			seen[cur.BaseType] = true
		}
	}
	return nil
}

func (b *builder) properties(element string, src []Property) ([]domain.Property, error) {
	out := make([]domain.Property, 0, len(src))
	seen := make(map[string]bool, len(src))
	for _, p := range src {
		if p.Name == "" {
			return nil, missingAttr(element+" Property", "Name")
		}
		if p.Type == "" {
			return nil, missingAttr(element+" Property "+p.Name, "Type")
		}
		if seen[p.Name] {
			return nil, &domain.SchemaLoadError{Element: element, Reason: "duplicate property " + p.Name}
		}
		seen[p.Name] = true
		ref, err := b.typeRef(element+" Property "+p.Name, p.Type, nullable(p.Nullable))
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Property{Name: p.Name, Type: ref})
	}
	return out, nil
}

func (b *builder) navigation(element string, src []NavigationProperty) ([]domain.Property, error) {
	out := make([]domain.Property, 0, len(src))
	for _, p := range src {
		if p.Name == "" {
			return nil, missingAttr(element+" NavigationProperty", "Name")
		}
		if p.Type == "" {
			return nil, missingAttr(element+" NavigationProperty "+p.Name, "Type")
		}
		ref, err := b.typeRef(element+" NavigationProperty "+p.Name, p.Type, nullable(p.Nullable))
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Property{Name: p.Name, Type: ref, ContainsTarget: p.ContainsTarget})
	}
	return out, nil
}

// typeRef resolves a declared wire type, following type definitions to
// their underlying primitive.
func (b *builder) typeRef(element, wire string, isNullable bool) (domain.TypeRef, error) {
	inner, collection := SplitCollection(wire)
	ref := domain.TypeRef{Collection: collection, Nullable: isNullable}

	if IsPrimitive(inner) {
		c, err := PrimitiveCategory(inner)
		if err != nil {
			return ref, &domain.SchemaLoadError{Element: element, Err: err}
		}
		ref.Name, ref.Category = inner, c
		return ref, nil
	}

	name := b.namer.Canonical(inner)
	if underlying, ok := b.typeDefs[name]; ok {
		if !IsPrimitive(underlying) {
			return ref, &domain.SchemaLoadError{Element: element, Reason: fmt.Sprintf("type definition %q is not primitive", inner)}
		}
		resolved, err := b.typeRef(element, underlying, isNullable)
		resolved.Collection = collection
		return resolved, err
	}
	if t, ok := b.schema.Types[name]; ok {
		ref.Name = name
		ref.Category = domain.CategoryStructured
		if t.Kind == domain.KindEnum {
			ref.Category = domain.CategoryEnum
		}
		return ref, nil
	}
	for _, ns := range b.external {
		if strings.HasPrefix(inner, ns) {
			ref.Name, ref.Category = inner, domain.CategoryStructured
			return ref, nil
		}
	}
	return ref, &domain.SchemaLoadError{Element: element, Reason: fmt.Sprintf("unresolved type %q", wire)}
}

type operationSource struct {
	name       string
	bound      bool
	composable bool
	params     []Parameter
	ret        *ReturnType
}

// bindOperation attaches a bound action or function to its binding type.
// The binding parameter is the first parameter of a bound operation.
func (b *builder) bindOperation(kind string, src operationSource) error {
	if src.name == "" {
		return missingAttr(kind, "Name")
	}
	element := kind + " " + src.name
	if !src.bound {
		logger.Debug("csdl: skipping unbound %s", strings.ToLower(element))
		return nil
	}
	if len(src.params) == 0 {
		return &domain.SchemaLoadError{Element: element, Reason: "bound operation has no binding parameter"}
	}
	binding := src.params[0]
	if binding.Type == "" {
		return missingAttr(element+" Parameter "+binding.Name, "Type")
	}
	bindingName, bindingCollection := SplitCollection(binding.Type)
	target, ok := b.schema.Types[b.namer.Canonical(bindingName)]
	if !ok || !target.IsStructured() {
		return &domain.SchemaLoadError{Element: element, Reason: fmt.Sprintf("unresolved binding type %q", binding.Type)}
	}

	op := &domain.Operation{
		Name:              src.name,
		BoundToCollection: bindingCollection,
		IsComposable:      src.composable,
		Parameters:        make([]domain.Parameter, 0, len(src.params)-1),
	}
	for _, p := range src.params[1:] {
		if p.Name == "" {
			return missingAttr(element+" Parameter", "Name")
		}
		if p.Type == "" {
			return missingAttr(element+" Parameter "+p.Name, "Type")
		}
		ref, err := b.typeRef(element+" Parameter "+p.Name, p.Type, nullable(p.Nullable))
		if err != nil {
			return err
		}
		op.Parameters = append(op.Parameters, domain.Parameter{Name: p.Name, Type: ref})
	}
	if src.ret != nil {
		if src.ret.Type == "" {
			return missingAttr(element+" ReturnType", "Type")
		}
		ref, err := b.typeRef(element+" ReturnType", src.ret.Type, nullable(src.ret.Nullable))
		if err != nil {
			return err
		}
		op.ReturnType = &ref
	}

	ops := target.Actions
	if kind == "Function" {
		ops = target.Functions
	}
	if _, dup := ops[op.Name]; dup {
		// overloads share a name; the first declaration wins
		logger.Debug("csdl: ignoring overload of %s bound to %s", element, target.Name)
		return nil
	}
	ops[op.Name] = op
	return nil
}

func (b *builder) resolveContainer(c EntityContainer) error {
	for _, set := range c.EntitySet {
		if err := b.addEntitySet("EntitySet", set.Name, set.EntityType, "EntityType"); err != nil {
			return err
		}
	}
	for _, single := range c.Singleton {
		if err := b.addEntitySet("Singleton", single.Name, single.Type, "Type"); err != nil {
			return err
		}
		b.schema.Singletons[single.Name] = true
	}
	return nil
}

func (b *builder) addEntitySet(kind, name, wire, attr string) error {
	if name == "" {
		return missingAttr(kind, "Name")
	}
	if wire == "" {
		return missingAttr(kind+" "+name, attr)
	}
	typeName := b.namer.Canonical(wire)
	t, ok := b.schema.Types[typeName]
	if !ok || t.Kind != domain.KindEntity {
		return &domain.SchemaLoadError{Element: kind + " " + name, Reason: fmt.Sprintf("unresolved entity type %q", wire)}
	}
	b.schema.EntitySets[name] = typeName
	return nil
}

func missingAttr(element, attr string) error {
	return &domain.SchemaLoadError{Element: element, Reason: "missing " + attr + " attribute"}
}
