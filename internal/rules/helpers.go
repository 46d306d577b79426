package rules

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ifc-community/ifcxml-checker/internal/document"
)

// deref follows a ref attribute to the element carrying the id. Elements
// without a ref pass through unchanged; a dangling ref panics and is
// reported as a failed invocation.
func (e *Engine) deref(n *document.Node) *document.Node {
	if n == nil || !n.IsRef() {
		return n
	}
	target := e.doc.ByID(n.Ref())
	if target == nil {
		panic("unresolved reference " + n.Ref())
	}
	return target
}

// typeOf returns the effective entity type: the type attribute when
// present, the tag otherwise.
func typeOf(n *document.Node) string {
	if t := n.Type(); t != "" {
		return t
	}
	return n.Tag
}

// isKindOf reports whether sub names the given entity or one of its
// subtypes.
func (e *Engine) isKindOf(sub, super string) bool {
	return e.dict.IsSubtype(sub, super)
}

func (e *Engine) isAnyKindOf(sub string, supers []string) bool {
	return e.dict.IsAnySubtype(sub, supers)
}

// elementsEqual is a shallow comparison: tag, text, attributes and child
// count.
func elementsEqual(a, b *document.Node) bool {
	if a.Tag != b.Tag || a.Text != b.Text || len(a.Children) != len(b.Children) {
		return false
	}
	if len(a.Attr) != len(b.Attr) {
		return false
	}
	for k, v := range a.Attr {
		if b.Attr[k] != v {
			return false
		}
	}
	return true
}

// mustAttr returns the named attribute, panicking when it is absent so the
// invocation is reported as failed rather than silently satisfied.
func mustAttr(n *document.Node, name string) string {
	v, ok := n.Attr[name]
	if !ok {
		panic(fmt.Sprintf("missing attribute %s on %s", name, n.Tag))
	}
	return v
}

func mustChild(n *document.Node, tag string) *document.Node {
	c := n.Find(tag)
	if c == nil {
		panic(fmt.Sprintf("missing child %s of %s", tag, n.Tag))
	}
	return c
}

func firstChild(n *document.Node) *document.Node {
	if len(n.Children) == 0 {
		panic("element " + n.Tag + " has no children")
	}
	return n.Children[0]
}

func mustFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		panic("not a number: " + s)
	}
	return v
}

func mustInt(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		panic("not an integer: " + s)
	}
	return v
}

func fields(s string) []string {
	return strings.Fields(s)
}

// hasValue reports whether an attribute is present and non-empty.
func hasValue(n *document.Node, name string) bool {
	return n.Attr[name] != ""
}

// basisChainLimit bounds the basis and parent curve chain dimensionSize
// follows. A reference cycle in the document trips it.
const basisChainLimit = 64

// dimensionSize resolves the coordinate dimensionality of a geometric
// item, following references and basis curves where the dimension is not
// carried directly. Unknown types yield 0.
func (e *Engine) dimensionSize(n *document.Node, typeName string) int {
	return e.dimensionSizeAt(n, typeName, 0)
}

func (e *Engine) dimensionSizeAt(n *document.Node, typeName string, depth int) int {
	if depth > basisChainLimit {
		panic(fmt.Sprintf("basis curve chain of %s exceeds %d levels", n.Tag, basisChainLimit))
	}
	switch typeName {
	case "IfcBSplineCurve", "IfcBSplineCurveWithKnots", "IfcRationalBSplineCurveWithKnots":
		point := e.deref(firstChild(mustChild(n, "ControlPointsList")))
		return len(fields(mustAttr(point, "Coordinates")))
	case "IfcCompositeCurve", "IfcCompositeCurveOnSurface", "IfcBoundaryCurve", "IfcOuterBoundaryCurve":
		segment := e.deref(firstChild(mustChild(n, "Segments")))
		parent := e.deref(mustChild(segment, "ParentCurve"))
		return e.dimensionSizeAt(parent, typeOf(parent), depth+1)
	case "IfcConic", "IfcCircle", "IfcEllipse":
		position := e.deref(firstChild(mustChild(n, "Position")))
		switch typeOf(position) {
		case "IfcAxis2Placement2D":
			return 2
		case "IfcAxis2Placement3D":
			return 3
		}
		return 0
	case "IfcIndexedPolyCurve":
		points := e.deref(mustChild(n, "Points"))
		switch typeOf(points) {
		case "IfcCartesianPointList2D":
			return 2
		case "IfcCartesianPointList3D":
			return 3
		}
		return 0
	case "IfcLine":
		pnt := e.deref(mustChild(n, "Pnt"))
		return len(fields(mustAttr(pnt, "Coordinates")))
	case "IfcOffsetCurve2D":
		return 2
	case "IfcOffsetCurve3D", "IfcPcurve":
		return 3
	case "IfcPolyline":
		point := e.deref(firstChild(mustChild(n, "Points")))
		return len(fields(mustAttr(point, "Coordinates")))
	case "IfcTrimmedCurve":
		basis := e.deref(mustChild(n, "BasisCurve"))
		return e.dimensionSizeAt(basis, typeOf(basis), depth+1)
	case "IfcSurfaceCurve", "IfcIntersectionCurve", "IfcSeamCurve":
		return 3
	case "IfcCartesianPoint":
		return len(fields(mustAttr(n, "Coordinates")))
	case "IfcPointOnCurve":
		basis := e.deref(mustChild(n, "BasisCurve"))
		return e.dimensionSizeAt(basis, typeOf(basis), depth+1)
	case "IfcPointOnSurface":
		basis := e.deref(mustChild(n, "BasisSurface"))
		return e.dimensionSizeAt(basis, typeOf(basis), depth+1)
	}
	if e.isKindOf(typeName, "IfcSurface") {
		return 3
	}
	return 0
}

// normalise scales a vector to unit length. A zero vector panics through
// the division, mirroring the undefined input case.
func normalise(values []string) []float64 {
	out := make([]float64, len(values))
	magnitude := 0.0
	for i, v := range values {
		out[i] = mustFloat(v)
		magnitude += out[i] * out[i]
	}
	magnitude = math.Sqrt(magnitude)
	if magnitude == 0 {
		panic("zero magnitude vector")
	}
	for i := range out {
		out[i] /= magnitude
	}
	return out
}

// bsplineConstraints checks the parameterization constraints of a B-spline
// curve: degree at least 1, enough knots, knot multiplicities bounded by
// the degree (degree+1 at the ends), multiplicities summing to
// degree+upper+2 and strictly increasing knot values.
func bsplineConstraints(degree, upper int, multiplicities, knots []string) bool {
	sum := 0
	for _, m := range multiplicities {
		sum += mustInt(m)
	}
	if degree < 1 || len(multiplicities) < 2 || upper < degree ||
		sum != degree+upper+2 || mustInt(multiplicities[0]) > degree+1 {
		return false
	}
	for i, m := range multiplicities {
		mult := mustInt(m)
		if mult < 1 {
			return false
		}
		if i >= 1 && mustFloat(knots[i]) <= mustFloat(knots[i-1]) {
			return false
		}
		if i == 0 || i == len(multiplicities)-1 {
			if mult > degree+1 {
				return false
			}
		} else if mult > degree {
			return false
		}
	}
	return true
}
