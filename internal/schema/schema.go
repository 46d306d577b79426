package schema

import (
	"encoding/json"
	"fmt"
	"os"
)

// Unbounded marks a cardinality bound given as "?" in the rule tables.
const Unbounded = -1

// ParamKind distinguishes typed attributes from child entities.
type ParamKind int

const (
	KindType ParamKind = iota
	KindEntity
)

var paramKindNames = map[ParamKind]string{
	KindType:   "type",
	KindEntity: "entity",
}

func (k ParamKind) String() string { return paramKindNames[k] }

func (k ParamKind) MarshalText() ([]byte, error) {
	return []byte(paramKindNames[k]), nil
}

func (k *ParamKind) UnmarshalText(text []byte) error {
	for kind, name := range paramKindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown parameter kind %q", text)
}

// ListKind is the declared list shape of a parameter.
type ListKind int

const (
	ListNone ListKind = iota
	ListSingle
	ListDouble
)

var listKindNames = map[ListKind]string{
	ListNone:   "no",
	ListSingle: "single",
	ListDouble: "double",
}

func (k ListKind) String() string { return listKindNames[k] }

func (k ListKind) MarshalText() ([]byte, error) {
	return []byte(listKindNames[k]), nil
}

func (k *ListKind) UnmarshalText(text []byte) error {
	for kind, name := range listKindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown list kind %q", text)
}

// Parameter is one declared attribute or child of an entity, in declaration
// order. Name is the tag/attribute name used in the instance file, Type the
// declared primitive type or entity name.
type Parameter struct {
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Kind     ParamKind `json:"kind"`
	Required bool      `json:"required"`
	List     ListKind  `json:"list"`
	Min      int       `json:"min,omitempty"`
	Max      int       `json:"max,omitempty"`
	Min2     int       `json:"min2,omitempty"`
	Max2     int       `json:"max2,omitempty"`
}

// CallingParameter is an indirect relationship slot: a child element that
// stands for the inverse side of a relationship. Role names the declared
// attribute of the related entity this slot corresponds to.
type CallingParameter struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Role     string `json:"role"`
	Required bool   `json:"required"`
	List     bool   `json:"list"`
	Min      int    `json:"min,omitempty"`
	Max      int    `json:"max,omitempty"`
}

// CalledAlias maps an inbound reference tag to the declared attribute of
// this entity it satisfies.
type CalledAlias struct {
	Alias string `json:"alias"`
	Role  string `json:"role"`
}

// Entity is one entity definition of the schema dictionary.
type Entity struct {
	Parameters        []Parameter        `json:"parameters"`
	CallingParameters []CallingParameter `json:"callingParameters"`
	Supertypes        []string           `json:"supertypes"`
	Rules             []string           `json:"rules"`
	CalledAs          []CalledAlias      `json:"calledAs"`
	Description       string             `json:"description,omitempty"`
	Reference         string             `json:"reference,omitempty"`
}

// Parameter returns the declared parameter with the given name.
func (e *Entity) Parameter(name string) (*Parameter, bool) {
	for i := range e.Parameters {
		if e.Parameters[i].Name == name {
			return &e.Parameters[i], true
		}
	}
	return nil, false
}

// CallingParameter returns the calling-parameter slot with the given name.
func (e *Entity) CallingParameter(name string) (*CallingParameter, bool) {
	for i := range e.CallingParameters {
		if e.CallingParameters[i].Name == name {
			return &e.CallingParameters[i], true
		}
	}
	return nil, false
}

// CalledRole returns the declared attribute corresponding to an inbound
// reference under the given alias tag.
func (e *Entity) CalledRole(alias string) (string, bool) {
	for _, ca := range e.CalledAs {
		if ca.Alias == alias {
			return ca.Role, true
		}
	}
	return "", false
}

// TypeKind is the value-domain category of a primitive type. The serialized
// names match the Definition_Type column of the type rule table.
type TypeKind int

const (
	Enumeration TypeKind = iota
	Measure
	MinMax
	ExclusiveMinMax
	Choice
	Common
	Other
	Sequence
	Select
)

var typeKindNames = map[TypeKind]string{
	Enumeration:     "Enumeration",
	Measure:         "Measure",
	MinMax:          "Representation/MinMax",
	ExclusiveMinMax: "Representation/ExclusiveMinMax",
	Choice:          "Representation/Choice",
	Common:          "Representation/Type",
	Other:           "Representation/Other",
	Sequence:        "Representation/Sequence",
	Select:          "Select",
}

func (k TypeKind) String() string { return typeKindNames[k] }

func (k TypeKind) MarshalText() ([]byte, error) {
	return []byte(typeKindNames[k]), nil
}

func (k *TypeKind) UnmarshalText(text []byte) error {
	for kind, name := range typeKindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown type kind %q", text)
}

// TypeDef is one primitive type definition. Items is the kind-specific
// payload: the allowed literals for enumerations and choices, the base kind
// for measures, the bounds for ranges.
type TypeDef struct {
	Kind        TypeKind `json:"kind"`
	Items       []string `json:"items"`
	Description string   `json:"description,omitempty"`
	Reference   string   `json:"reference,omitempty"`
}

// Dict holds both dictionaries. Built once, read-only during validation.
type Dict struct {
	Entities map[string]*Entity  `json:"entities"`
	Types    map[string]*TypeDef `json:"types"`
}

func NewDict() *Dict {
	return &Dict{
		Entities: make(map[string]*Entity),
		Types:    make(map[string]*TypeDef),
	}
}

func (d *Dict) Entity(name string) (*Entity, bool) {
	e, ok := d.Entities[name]
	return e, ok
}

func (d *Dict) Type(name string) (*TypeDef, bool) {
	t, ok := d.Types[name]
	return t, ok
}

// IsSubtype reports whether sub equals super or lists it in its supertype
// chain. Unknown entity names are no one's subtype.
func (d *Dict) IsSubtype(sub, super string) bool {
	if sub == super {
		return true
	}
	e, ok := d.Entities[sub]
	if !ok {
		return false
	}
	for _, s := range e.Supertypes {
		if s == super {
			return true
		}
	}
	return false
}

// IsAnySubtype reports whether sub is a subtype of any of the given names.
func (d *Dict) IsAnySubtype(sub string, supers []string) bool {
	for _, s := range supers {
		if d.IsSubtype(sub, s) {
			return true
		}
	}
	return false
}

// Merge adds entries from other, overwriting entries of the same name. Used
// to layer project-specific dictionary extensions over the standard one.
func (d *Dict) Merge(other *Dict) {
	if other == nil {
		return
	}
	for name, e := range other.Entities {
		d.Entities[name] = e
	}
	for name, t := range other.Types {
		d.Types[name] = t
	}
}

// LoadJSON reads a dictionary from its JSON export.
func LoadJSON(path string) (*Dict, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d := NewDict()
	if err := json.Unmarshal(content, d); err != nil {
		return nil, fmt.Errorf("failed to parse dictionary: %v", err)
	}
	return d, nil
}

// SaveJSON writes the human-readable JSON export of the dictionary.
func SaveJSON(path string, d *Dict) error {
	content, err := json.MarshalIndent(d, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, content, 0644)
}
