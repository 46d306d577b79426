package rules

import (
	"strings"
	"testing"

	"github.com/ifc-community/ifcxml-checker/internal/document"
	"github.com/ifc-community/ifcxml-checker/internal/schema"
)

const rulesXML = `<ifcXML>
<header/>
<IfcWall id="w1" Name="Wall-001"/>
<IfcWall id="w2"/>
<IfcSweptDiskSolid id="c1" Radius="5.0" InnerRadius="2.0"/>
<IfcSweptDiskSolid id="c2" Radius="5.0" InnerRadius="6.0"/>
<IfcEllipse id="e1" MajorRadius="4" MinorRadius="2"/>
<IfcEllipse id="e2" MajorRadius="2" MinorRadius="4"/>
<IfcDirection id="d0" DirectionRatios="0. 0. 0."/>
<IfcDirection id="d2" DirectionRatios="0. 1."/>
<IfcDirection id="d3" DirectionRatios="0. 1. 0."/>
<IfcAxis2Placement3D id="p1">
<Axis ref="d3"/>
</IfcAxis2Placement3D>
<IfcAxis2Placement3D id="p2">
<Axis ref="d2"/>
</IfcAxis2Placement3D>
<IfcAxis2Placement3D id="p3">
<Axis ref="missing"/>
</IfcAxis2Placement3D>
<IfcFace id="f1">
<Bounds>
<IfcFaceOuterBound/>
<IfcFaceOuterBound/>
</Bounds>
</IfcFace>
<IfcPerson id="pe1"/>
<IfcPerson id="pe2" FamilyName="Doe"/>
<IfcSurfaceStyleShading id="s1" Priority="150"/>
<IfcSurfaceStyleShading id="s2" Priority="50"/>
<IfcCartesianTransformationOperator id="t1" Scale="-1"/>
<IfcTrimmedCurve id="tc1">
<BasisCurve ref="tc1"/>
</IfcTrimmedCurve>
</ifcXML>`

func testEngine(t *testing.T) (*Engine, *document.Document) {
	t.Helper()
	doc, err := document.Parse(strings.NewReader(rulesXML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return NewEngine(doc, schema.NewDict()), doc
}

func TestInvokeUnregistered(t *testing.T) {
	e, doc := testEngine(t)
	out := e.Invoke("NoSuchRule", doc.ByID("w1"), "IfcWall", "")
	if out.Status != NotImplemented {
		t.Fatalf("status = %v, want NotImplemented", out.Status)
	}
	if e.Has("NoSuchRule") {
		t.Error("Has should be false for unregistered names")
	}
	if !e.Has("HasName") {
		t.Error("builtin HasName not registered")
	}
}

func TestInvokePanicIsolation(t *testing.T) {
	e, doc := testEngine(t)
	out := e.Invoke("MajorLargerMinor", doc.ByID("w2"), "IfcEllipse", "")
	if out.Status != Failed {
		t.Fatalf("status = %v, want Failed", out.Status)
	}
	if out.Err == nil || !strings.Contains(out.Err.Error(), "MajorLargerMinor") {
		t.Errorf("error should name the rule: %v", out.Err)
	}
}

func TestInvokeDanglingReferenceFails(t *testing.T) {
	e, doc := testEngine(t)
	out := e.Invoke("AxisIs3D", doc.ByID("p3"), "IfcAxis2Placement3D", "")
	if out.Status != Failed {
		t.Fatalf("status = %v, want Failed", out.Status)
	}
	if !strings.Contains(out.Err.Error(), "unresolved reference missing") {
		t.Errorf("err = %v", out.Err)
	}
}

func TestInvokeCyclicBasisCurveFails(t *testing.T) {
	e, doc := testEngine(t)
	out := e.Invoke("DimIs3D", doc.ByID("tc1"), "IfcTrimmedCurve", "")
	if out.Status != Failed {
		t.Fatalf("status = %v, want Failed", out.Status)
	}
	if out.Err == nil || !strings.Contains(out.Err.Error(), "basis curve chain") {
		t.Errorf("err = %v", out.Err)
	}
}

func TestAttributePresenceRules(t *testing.T) {
	e, doc := testEngine(t)

	if out := e.Invoke("HasName", doc.ByID("w1"), "IfcWall", ""); out.Status != Satisfied {
		t.Errorf("named wall: %+v", out)
	}
	out := e.Invoke("HasName", doc.ByID("w2"), "IfcWall", "")
	if out.Status != Violated {
		t.Fatalf("unnamed wall: %+v", out)
	}
	if out.Message != "Name attribute has to be given" {
		t.Errorf("message = %q", out.Message)
	}

	if out := e.Invoke("IdentifiablePerson", doc.ByID("pe1"), "IfcPerson", ""); out.Status != Violated {
		t.Errorf("anonymous person: %+v", out)
	}
	if out := e.Invoke("IdentifiablePerson", doc.ByID("pe2"), "IfcPerson", ""); out.Status != Satisfied {
		t.Errorf("named person: %+v", out)
	}
}

func TestNumericRules(t *testing.T) {
	e, doc := testEngine(t)
	tests := []struct {
		rule string
		id   string
		want Status
	}{
		{"MajorLargerMinor", "e1", Satisfied},
		{"MajorLargerMinor", "e2", Violated},
		{"InnerRadiusSize", "c1", Satisfied},
		{"InnerRadiusSize", "c2", Violated},
		{"MagnitudeGreaterZero", "d0", Violated},
		{"MagnitudeGreaterZero", "d3", Satisfied},
		{"NormalizedPriority", "s1", Violated},
		{"NormalizedPriority", "s2", Satisfied},
		{"NormalizedPriority", "w2", Satisfied},
		{"ScaleGreaterZero", "t1", Violated},
		{"ScaleGreaterZero", "w2", Satisfied},
	}
	for _, tc := range tests {
		out := e.Invoke(tc.rule, doc.ByID(tc.id), "", "")
		if out.Status != tc.want {
			t.Errorf("%s on %s = %+v, want %v", tc.rule, tc.id, out, tc.want)
		}
	}
}

func TestAxisDimensionRules(t *testing.T) {
	e, doc := testEngine(t)

	if out := e.Invoke("AxisIs3D", doc.ByID("p1"), "IfcAxis2Placement3D", ""); out.Status != Satisfied {
		t.Errorf("3D axis: %+v", out)
	}
	out := e.Invoke("AxisIs3D", doc.ByID("p2"), "IfcAxis2Placement3D", "")
	if out.Status != Violated {
		t.Fatalf("2D axis: %+v", out)
	}
	if out.Message != "Axis has to be 3D" {
		t.Errorf("message = %q", out.Message)
	}
	// Absent axis child is fine.
	if out := e.Invoke("AxisIs3D", doc.ByID("w1"), "IfcAxis2Placement3D", ""); out.Status != Satisfied {
		t.Errorf("missing axis: %+v", out)
	}
}

func TestHasOuterBound(t *testing.T) {
	e, doc := testEngine(t)
	out := e.Invoke("HasOuterBound", doc.ByID("f1"), "IfcFace", "")
	if out.Status != Violated {
		t.Fatalf("double outer bound: %+v", out)
	}
}

func TestRegisterOverride(t *testing.T) {
	e, doc := testEngine(t)
	e.Register("HasName", func(e *Engine, n *document.Node, typeName, calledRole string) string {
		return "always wrong"
	})
	out := e.Invoke("HasName", doc.ByID("w1"), "IfcWall", "")
	if out.Status != Violated || out.Message != "always wrong" {
		t.Errorf("override not used: %+v", out)
	}
}
