package csdl

// Edmx is the root of a CSDL XML document.
type Edmx struct {
	Version      string       `xml:"Version,attr"`
	Reference    []Reference  `xml:"Reference"`
	DataServices DataServices `xml:"DataServices"`
}

type Reference struct {
	Uri     string    `xml:"Uri,attr"`
	Include []Include `xml:"Include"`
}

type Include struct {
	Namespace string `xml:"Namespace,attr"`
	Alias     string `xml:"Alias,attr"`
}

type DataServices struct {
	Schema []Schema `xml:"Schema"`
}

type Schema struct {
	Namespace       string            `xml:"Namespace,attr"`
	Alias           string            `xml:"Alias,attr"`
	Action          []Action          `xml:"Action"`
	ComplexType     []ComplexType     `xml:"ComplexType"`
	EntityContainer []EntityContainer `xml:"EntityContainer"`
	EntityType      []EntityType      `xml:"EntityType"`
	EnumType        []EnumType        `xml:"EnumType"`
	Function        []Function        `xml:"Function"`
	TypeDefinition  []TypeDefinition  `xml:"TypeDefinition"`
}

type TypeDefinition struct {
	Name           string `xml:"Name,attr"`
	UnderlyingType string `xml:"UnderlyingType,attr"`
}

// Action and Function share a shape; only the HTTP verb used to invoke them differs.
type Action struct {
	Name          string      `xml:"Name,attr"`
	IsBound       bool        `xml:"IsBound,attr"`
	EntitySetPath string      `xml:"EntitySetPath,attr"`
	Parameter     []Parameter `xml:"Parameter"`
	ReturnType    *ReturnType `xml:"ReturnType"`
}

type Function struct {
	Name          string      `xml:"Name,attr"`
	IsBound       bool        `xml:"IsBound,attr"`
	IsComposable  bool        `xml:"IsComposable,attr"`
	EntitySetPath string      `xml:"EntitySetPath,attr"`
	Parameter     []Parameter `xml:"Parameter"`
	ReturnType    *ReturnType `xml:"ReturnType"`
}

type Parameter struct {
	Name     string `xml:"Name,attr"`
	Type     string `xml:"Type,attr"`
	Nullable *bool  `xml:"Nullable,attr"`
}

type ReturnType struct {
	Type     string `xml:"Type,attr"`
	Nullable *bool  `xml:"Nullable,attr"`
}

type ComplexType struct {
	Name               string               `xml:"Name,attr"`
	BaseType           string               `xml:"BaseType,attr"`
	Abstract           bool                 `xml:"Abstract,attr"`
	OpenType           bool                 `xml:"OpenType,attr"`
	Property           []Property           `xml:"Property"`
	NavigationProperty []NavigationProperty `xml:"NavigationProperty"`
}

type EntityContainer struct {
	Name      string      `xml:"Name,attr"`
	EntitySet []EntitySet `xml:"EntitySet"`
	Singleton []Singleton `xml:"Singleton"`
}

type EntitySet struct {
	Name       string `xml:"Name,attr"`
	EntityType string `xml:"EntityType,attr"`
}

type Singleton struct {
	Name string `xml:"Name,attr"`
	Type string `xml:"Type,attr"`
}

type EntityType struct {
	Name               string               `xml:"Name,attr"`
	BaseType           string               `xml:"BaseType,attr"`
	Abstract           bool                 `xml:"Abstract,attr"`
	OpenType           bool                 `xml:"OpenType,attr"`
	HasStream          bool                 `xml:"HasStream,attr"`
	Key                Key                  `xml:"Key"`
	Property           []Property           `xml:"Property"`
	NavigationProperty []NavigationProperty `xml:"NavigationProperty"`
}

type EnumType struct {
	Name           string   `xml:"Name,attr"`
	UnderlyingType string   `xml:"UnderlyingType,attr"`
	IsFlags        bool     `xml:"IsFlags,attr"`
	Member         []Member `xml:"Member"`
}

type Key struct {
	PropertyRef []PropertyRef `xml:"PropertyRef"`
}

type PropertyRef struct {
	Name string `xml:"Name,attr"`
}

type Member struct {
	Name  string  `xml:"Name,attr"`
	Value *string `xml:"Value,attr"`
}

type NavigationProperty struct {
	Name           string `xml:"Name,attr"`
	Type           string `xml:"Type,attr"`
	Nullable       *bool  `xml:"Nullable,attr"`
	Partner        string `xml:"Partner,attr"`
	ContainsTarget bool   `xml:"ContainsTarget,attr"`
}

type Property struct {
	Name         string `xml:"Name,attr"`
	Type         string `xml:"Type,attr"`
	Nullable     *bool  `xml:"Nullable,attr"`
	MaxLength    string `xml:"MaxLength,attr"`
	Precision    int    `xml:"Precision,attr"`
	Scale        string `xml:"Scale,attr"`
	DefaultValue string `xml:"DefaultValue,attr"`
}

// nullable applies the CSDL default of Nullable="true".
func nullable(v *bool) bool {
	if v == nil {
		return true
	}
	return *v
}
