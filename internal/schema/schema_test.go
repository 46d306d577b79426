package schema

import (
	"path/filepath"
	"testing"
)

func testDict() *Dict {
	d := NewDict()
	d.Entities["IfcProduct"] = &Entity{
		Parameters: []Parameter{
			{Name: "Name", Type: "IfcLabel", Kind: KindType, List: ListNone, Max: 1},
		},
		Reference: "5.1.3.1",
	}
	d.Entities["IfcWall"] = &Entity{
		Supertypes: []string{"IfcProduct"},
		Parameters: []Parameter{
			{Name: "Name", Type: "IfcLabel", Kind: KindType, Required: true, List: ListNone, Min: 1, Max: 1},
		},
		Reference: "6.1.2.1",
	}
	d.Types["IfcLabel"] = &TypeDef{Kind: Common, Reference: "8.11.1.1"}
	return d
}

func TestIsSubtype(t *testing.T) {
	d := testDict()
	tests := []struct {
		sub, super string
		want       bool
	}{
		{"IfcWall", "IfcWall", true},
		{"IfcWall", "IfcProduct", true},
		{"IfcProduct", "IfcWall", false},
		{"IfcUnknown", "IfcProduct", false},
		{"IfcUnknown", "IfcUnknown", true},
	}
	for _, tc := range tests {
		if got := d.IsSubtype(tc.sub, tc.super); got != tc.want {
			t.Errorf("IsSubtype(%s, %s) = %v, want %v", tc.sub, tc.super, got, tc.want)
		}
	}
	if !d.IsAnySubtype("IfcWall", []string{"IfcBeam", "IfcProduct"}) {
		t.Error("IsAnySubtype missed IfcProduct")
	}
	if d.IsAnySubtype("IfcWall", []string{"IfcBeam"}) {
		t.Error("IsAnySubtype matched nothing in the list")
	}
}

func TestMergeOverrides(t *testing.T) {
	d := testDict()
	ext := NewDict()
	ext.Entities["IfcWall"] = &Entity{Reference: "override"}
	ext.Types["IfcBoolean"] = &TypeDef{Kind: Common}
	d.Merge(ext)

	if e, _ := d.Entity("IfcWall"); e.Reference != "override" {
		t.Errorf("merge did not override: %q", e.Reference)
	}
	if _, ok := d.Type("IfcBoolean"); !ok {
		t.Error("merge did not add new type")
	}
	if _, ok := d.Entity("IfcProduct"); !ok {
		t.Error("merge dropped untouched entity")
	}
	d.Merge(nil)
}

func TestJSONRoundTrip(t *testing.T) {
	d := testDict()
	path := filepath.Join(t.TempDir(), "dict.json")
	if err := SaveJSON(path, d); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	loaded, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	wall, ok := loaded.Entity("IfcWall")
	if !ok {
		t.Fatal("IfcWall missing after round trip")
	}
	p, ok := wall.Parameter("Name")
	if !ok || p.Kind != KindType || !p.Required || p.List != ListNone {
		t.Errorf("parameter after round trip = %+v", p)
	}
	label, ok := loaded.Type("IfcLabel")
	if !ok || label.Kind != Common {
		t.Errorf("type after round trip = %+v", label)
	}
}

func TestLoadJSONErrors(t *testing.T) {
	if _, err := LoadJSON(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file should fail")
	}
}
