package csdl

import (
	"sort"
	"strings"

	"github.com/custodia-labs/msgraph-cli/internal/core/domain"
)

const collectionPrefix = "Collection("

// Namer canonicalizes wire type names.
//
// `{ns}T`, `<namespace>.T`, `<alias>.T`, `#<namespace>.T` and `T` all
// canonicalize to `T` for the default namespace. Types in other schemas
// of the same document keep the part of their namespace below the
// default one, so microsoft.graph.security.alert becomes security.alert.
type Namer struct {
	rules []prefixRule
}

type prefixRule struct {
	prefix      string
	replacement string
}

// NewNamer creates a Namer for the given default namespace and alias.
func NewNamer(namespace, alias string) *Namer {
	n := &Namer{}
	n.add(namespace, "")
	n.add(alias, "")
	return n
}

// NamerFor rebuilds the Namer used while parsing a schema.
func NamerFor(schema *domain.Schema) *Namer {
	n := NewNamer(schema.Namespace, schema.Alias)
	for _, ns := range schema.Namespaces {
		n.AddSchema(ns.Name, ns.Alias, schema.Namespace)
	}
	return n
}

// AddSchema registers an additional schema namespace of the same document.
func (n *Namer) AddSchema(namespace, alias, defaultNamespace string) {
	if namespace == defaultNamespace {
		n.add(alias, "")
		return
	}
	relative := strings.TrimPrefix(namespace, defaultNamespace+".")
	if relative != namespace {
		n.add(namespace, relative+".")
	}
	if alias != "" {
		n.add(alias, relative+".")
	}
}

func (n *Namer) add(prefix, replacement string) {
	if prefix == "" {
		return
	}
	n.rules = append(n.rules, prefixRule{prefix: prefix + ".", replacement: replacement})
	// longest prefix wins so microsoft.graph.security is tried before microsoft.graph
	sort.SliceStable(n.rules, func(i, j int) bool {
		return len(n.rules[i].prefix) > len(n.rules[j].prefix)
	})
}

// Canonical returns the canonical name for a wire type name.
// It must not be given a Collection(...) marker; see SplitCollection.
func (n *Namer) Canonical(wire string) string {
	name := strings.TrimPrefix(strings.TrimSpace(wire), "#")
	if strings.HasPrefix(name, "{") {
		if i := strings.Index(name, "}"); i >= 0 {
			// {ns}T is ns.T when ns is a known schema namespace; any other
			// qualifier (an XML namespace URI) is dropped.
			local := name[i+1:]
			if canonical, ok := n.rewrite(name[1:i] + "." + local); ok {
				return canonical
			}
			return local
		}
	}
	if canonical, ok := n.rewrite(name); ok {
		return canonical
	}
	return name
}

func (n *Namer) rewrite(name string) (string, bool) {
	for _, r := range n.rules {
		if strings.HasPrefix(name, r.prefix) {
			return r.replacement + name[len(r.prefix):], true
		}
	}
	return "", false
}

// SplitCollection strips a Collection(...) marker and reports whether one was present.
func SplitCollection(wire string) (string, bool) {
	wire = strings.TrimSpace(wire)
	if strings.HasPrefix(wire, collectionPrefix) && strings.HasSuffix(wire, ")") {
		return wire[len(collectionPrefix) : len(wire)-1], true
	}
	return wire, false
}
