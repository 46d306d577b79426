package rules

import (
	"strings"

	"github.com/ifc-community/ifcxml-checker/internal/document"
)

// registerBuiltins binds the implemented formal propositions. Rule names
// are the names bound in the entity dictionary.
func registerBuiltins(e *Engine) {
	builtins := map[string]Func{
		"AllPointsSameDim":              allPointsSameDim,
		"AllowedElements":               allowedElements,
		"AllowedRelatedElements":        allowedRelatedElements,
		"ApplicableItem":                applicableItem,
		"ApplicableItems":               applicableItems,
		"ApplicableMappedRepr":          applicableMappedRepr,
		"ApplicableOccurrence":          applicableOccurrence,
		"ApplicableOnlyToItems":         applicableOnlyToItems,
		"ApplicableSurface":             applicableSurface,
		"ApplicableToType":              applicableToType,
		"AvoidInconsistentSequence":     avoidInconsistentSequence,
		"Axis1Is2D":                     axisDim("Axis1", 2, "Axis 1 has to be 2D"),
		"Axis1Is3D":                     axisDim("Axis1", 3, "Axis 1 has to be 3D"),
		"Axis2Is2D":                     axisDim("Axis2", 2, "Axis 2 has to be 2D"),
		"Axis2Is3D":                     axisDim("Axis2", 3, "Axis 2 has to be 3D"),
		"Axis3Is3D":                     axisDim("Axis3", 3, "Axis 3 has to be 3D"),
		"AxisAndRefDirProvision":        axisAndRefDirProvision,
		"AxisDirectionInXY":             axisDirectionInXY,
		"AxisIs3D":                      axisDim("Axis", 3, "Axis has to be 3D"),
		"AxisStartInXY":                 axisStartInXY,
		"AxisToRefDirPosition":          axisToRefDirPosition,
		"BendingShapeCodeProvided":      bendingShapeCodeProvided,
		"BoundaryDim":                   boundaryDim,
		"BoundaryType":                  boundaryType,
		"CP2Dor3D":                      cp2Dor3D,
		"Consecutive":                   consecutive,
		"DimEqual2":                     dimEqual2,
		"DimIs2D":                       dimIs2D,
		"DimIs3D":                       dimIs3D,
		"DirectrixBounded":              directrixBounded,
		"DirectrixDim":                  directrixDim,
		"DirectrixIsPolyline":           directrixIsPolyline,
		"DistinctSurfaces":              distinctSurfaces,
		"EdgeElementNotOriented":        edgeElementNotOriented,
		"ExistsName":                    requireAttr("Name", "The Name attribute has to be provided"),
		"FirstOperandClosed":            firstOperandClosed,
		"FirstOperandType":              firstOperandType,
		"HasAdvancedFaces":              hasAdvancedFaces,
		"HasDecomposition":              hasDecomposition,
		"HasIdentifierOrName":           hasIdentifierOrName,
		"HasName":                       requireAttr("Name", "Name attribute has to be given"),
		"HasNoSubtraction":              hasNoSubtraction,
		"HasObjectName":                 requireAttr("Name", "Name attribute has to be given"),
		"HasObjectType":                 hasObjectType,
		"HasOuterBound":                 hasOuterBound,
		"HasPlacement":                  hasPlacement,
		"HasPredefinedType":             hasPredefinedType,
		"HasRepresentationIdentifier":   requireAttr("RepresentationIdentifier", "A representation identifier should be provided for the shape representation"),
		"HasRepresentationType":         requireAttr("RepresentationType", "A representation type should be provided for the shape representation"),
		"IdentifiableCurveStyle":        identifiableCurveStyle,
		"IdentifiablePerson":            identifiablePerson,
		"InnerRadiusSize":               innerRadiusSize,
		"InvariantProfileType":          invariantProfileType,
		"IsClosed":                      isClosed,
		"MagGreaterOrEqualZero":         magGreaterOrEqualZero,
		"MagnitudeGreaterZero":          magnitudeGreaterZero,
		"MajorLargerMinor":              majorLargerMinor,
		"NormalizedPriority":            normalizedPriority,
		"PositiveLengthParameter":       positiveLengthParameter,
		"SameNumOfWeightsAndPoints":     sameNumOfWeightsAndPoints,
		"ScaleGreaterZero":              scaleGreaterZero,
		"U1AndU2Different":              valuesDiffer("U1", "U2", "U1 and U2 shall have different values"),
		"V1AndV2Different":              valuesDiffer("V1", "V2", "V1 and V2 shall have different values"),
		"VisibleLengthGreaterEqualZero": visibleLengthGreaterEqualZero,
		"WeightValuesGreaterZero":       weightValuesGreaterZero,
		"WeightsGreaterZero":            weightsGreaterZero,
	}
	for name, fn := range builtins {
		e.Register(name, fn)
	}
}

func allPointsSameDim(e *Engine, n *document.Node, typeName, calledRole string) string {
	polygon := e.deref(mustChild(n, "Polygon"))
	first := e.deref(firstChild(polygon))
	dim := len(fields(mustAttr(first, "Coordinates")))
	for _, child := range polygon.Children {
		point := e.deref(child)
		if len(fields(mustAttr(point, "Coordinates"))) != dim {
			return "Not all points have the same dimensionality"
		}
	}
	return ""
}

func allowedElements(e *Engine, n *document.Node, typeName, calledRole string) string {
	allowed := []string{"IfcElement", "IfcElementType", "IfcWindowStyle", "IfcDoorStyle", "IfcStructuralMember"}
	for _, obj := range mustChild(n, "RelatedObjects").Children {
		if !e.isAnyKindOf(obj.Tag, allowed) {
			return "Material information cannot be associated to the object " + obj.Tag
		}
	}
	return ""
}

func allowedRelatedElements(e *Engine, n *document.Node, typeName, calledRole string) string {
	const msg = "The relationship object shall not be used to include other spatial " +
		"structure elements into a spatial structure element. The hierarchy of " +
		"the spatial structure is defined using IfcRelAggregates. Exception: " +
		"An IfcSpace can be referenced by another spatial structure element, " +
		"in particular by an IfcSpatialZone"
	if related := n.Find("RelatedElements"); related != nil {
		for _, elem := range related.Children {
			if e.isKindOf(elem.Tag, "IfcSpatialStructureElement") && elem.Tag != "IfcSpace" {
				return msg
			}
		}
		return ""
	}
	if calledRole == "RelatedElements" {
		holder := n.Parent.Parent
		t := typeOf(holder)
		if e.isKindOf(t, "IfcSpatialStructureElement") && t != "IfcSpace" {
			return msg
		}
		return ""
	}
	for _, ref := range e.doc.Inbound(n.ID()) {
		if ref.Parent != nil && ref.Parent.Tag == "HasProjections" {
			t := typeOf(ref.Parent.Parent)
			if e.isKindOf(t, "IfcSpatialStructureElement") && t != "IfcSpace" {
				return msg
			}
		}
	}
	return ""
}

func applicableItem(e *Engine, n *document.Node, typeName, calledRole string) string {
	const msg = "A styled item cannot be styled by another styled item"
	var item *document.Node
	if calledRole == "Item" {
		item = n.Parent
	} else {
		item = n.Find("Item")
	}
	if item != nil {
		if typeOf(e.deref(item)) == "IfcStyledItem" {
			return msg
		}
		return ""
	}
	for _, ref := range e.doc.Inbound(n.ID()) {
		if ref.Parent != nil && ref.Parent.Tag == "StyledByItem" {
			if mustAttr(ref, document.AttrType) == "IfcStyledItem" {
				return msg
			}
		}
	}
	return ""
}

func applicableItems(e *Engine, n *document.Node, typeName, calledRole string) string {
	allowed := []string{"IfcShapeRepresentation", "IfcGeometricRepresentationItem", "IfcMappedItem"}
	const msg = "The items within the set of AssignedItems that can be assigned to a " +
		"presentation layer shall be geometric shape representation or " +
		"representation items"
	if items := n.Find("AssignedItems"); items != nil {
		if t := items.Type(); t != "" {
			if !e.isAnyKindOf(t, allowed) {
				return msg
			}
			return ""
		}
		for _, item := range items.Children {
			if !e.isAnyKindOf(item.Tag, allowed) {
				return msg
			}
		}
		return ""
	}
	if calledRole != "" {
		holder := n.Parent
		if n.Tag != "AssignedItems" {
			holder = holder.Parent
		}
		if !e.isAnyKindOf(typeOf(holder), allowed) {
			return msg
		}
	}
	for _, ref := range e.doc.Inbound(n.ID()) {
		switch {
		case ref.Tag == "LayerAssignment":
			if !e.isAnyKindOf(typeOf(ref.Parent), allowed) {
				return msg
			}
		case ref.Parent != nil && ref.Parent.Tag == "LayerAssignments":
			if !e.isAnyKindOf(typeOf(ref.Parent.Parent), allowed) {
				return msg
			}
		}
	}
	return ""
}

func applicableMappedRepr(e *Engine, n *document.Node, typeName, calledRole string) string {
	const msg = "Only representations of type IfcShapeRepresentation, or " +
		"IfcTopologyRepresentation are allowed as MappedRepresentation"
	var mapped *document.Node
	if calledRole == "MappedRepresentation" {
		mapped = n.Parent
	} else {
		mapped = n.Find("MappedRepresentation")
	}
	if mapped != nil {
		if !e.isKindOf(typeOf(e.deref(mapped)), "IfcShapeModel") {
			return msg
		}
		return ""
	}
	for _, ref := range e.doc.Inbound(n.ID()) {
		if ref.Tag == "RepresentationMap" {
			if !e.isKindOf(mustAttr(ref.Parent, document.AttrType), "IfcShapeModel") {
				return msg
			}
		}
	}
	return ""
}

func applicableOccurrence(e *Engine, n *document.Node, typeName, calledRole string) string {
	types := n.Find("Types")
	if types == nil {
		return ""
	}
	for _, obj := range mustChild(firstChild(types), "RelatedObjects").Children {
		ent, ok := e.dict.Entity(obj.Tag)
		if !ok {
			panic("unknown entity " + obj.Tag)
		}
		found := false
		for _, s := range ent.Supertypes {
			if s == "IfcProduct" {
				found = true
				break
			}
		}
		if !found {
			return "The product type (or style), if assigned to an object, shall only be " +
				"assigned to object being a sub type of IfcProduct"
		}
	}
	return ""
}

func applicableOnlyToItems(e *Engine, n *document.Node, typeName, calledRole string) string {
	allowed := []string{"IfcGeometricRepresentationItem", "IfcMappedItem"}
	for _, item := range mustChild(n, "AssignedItems").Children {
		if !e.isAnyKindOf(item.Tag, allowed) {
			return "The IfcPresentationLayerWithStyle shall only be used to assign subtypes " +
				"of IfcGeometricRepresentationItem's and to IfcMappedItem. There shall be no " +
				"instance of subtypes of IfcRepresentation in the set of AssignedItem's"
		}
	}
	return ""
}

func applicableSurface(e *Engine, n *document.Node, typeName, calledRole string) string {
	allowed := []string{"IfcElementarySurface", "IfcSweptSurface", "IfcBSplineSurface"}
	surface := e.deref(mustChild(n, "FaceSurface"))
	if !e.isAnyKindOf(typeOf(surface), allowed) {
		return "The geometry used in the definition of the face shall be restricted. " +
			"The face geometry shall be an IfcElementarySurface, IfcSweptSurface, or " +
			"IfcBSplineSurface"
	}
	return ""
}

func applicableToType(e *Engine, n *document.Node, typeName, calledRole string) string {
	var msg string
	var allowed [2]string
	switch typeName {
	case "IfcDoorPanelProperties":
		msg = "The IfcDoorPanelProperties shall only be used in the context of an " +
			"IfcDoorType (or IfcDoorStyle)"
		allowed = [2]string{"IfcDoorType", "IfcDoorStyle"}
	case "IfcWindowPanelProperties":
		msg = "The IfcWindowPanelProperties shall only be used in the context of an " +
			"IfcWindowType (or IfcWindowStyle)"
		allowed = [2]string{"IfcWindowType", "IfcWindowStyle"}
	default:
		return ""
	}
	defines := n.Find("DefinesType")
	if defines == nil {
		return msg
	}
	for _, def := range defines.Children {
		if def.Tag != allowed[0] && def.Tag != allowed[1] {
			return msg
		}
	}
	return ""
}

func avoidInconsistentSequence(e *Engine, n *document.Node, typeName, calledRole string) string {
	resolve := func(role, inverseTag string) *document.Node {
		if calledRole == role {
			return n.Parent.Parent
		}
		if direct := n.Find(role); direct != nil {
			return direct
		}
		for _, ref := range e.doc.Inbound(n.ID()) {
			if ref.Parent != nil && ref.Parent.Tag == inverseTag {
				return ref.Parent.Parent
			}
		}
		return nil
	}
	relating := e.deref(resolve("RelatingProcess", "IsPredecessorTo"))
	related := e.deref(resolve("RelatedProcess", "IsSuccessorFrom"))
	if elementsEqual(relating, related) || mustAttr(relating, document.AttrID) == mustAttr(related, document.AttrID) {
		return "The RelatingProcess shall not point to the same instance as the RelatedProcess"
	}
	return ""
}

// axisDim builds the family of axis dimensionality rules: the named child,
// when present, must carry direction ratios of the wanted dimension.
func axisDim(tag string, want int, msg string) Func {
	return func(e *Engine, n *document.Node, typeName, calledRole string) string {
		axis := n.Find(tag)
		if axis == nil {
			return ""
		}
		axis = e.deref(axis)
		if len(fields(mustAttr(axis, "DirectionRatios"))) != want {
			return msg
		}
		return ""
	}
}

func axisAndRefDirProvision(e *Engine, n *document.Node, typeName, calledRole string) string {
	axis := n.Find("Axis")
	refDir := n.Find("RefDirection")
	if (axis == nil) != (refDir == nil) {
		return "Either Axis and RefDirection have to be provided or none of both"
	}
	return ""
}

func axisDirectionInXY(e *Engine, n *document.Node, typeName, calledRole string) string {
	axis := e.deref(mustChild(n, "Axis"))
	dir := e.deref(mustChild(axis, "Axis"))
	coords := fields(mustAttr(dir, "DirectionRatios"))
	if mustFloat(coords[2]) != 0.0 {
		return "The Z-coordinate has to have value 0.0"
	}
	return ""
}

func axisStartInXY(e *Engine, n *document.Node, typeName, calledRole string) string {
	axis := e.deref(mustChild(n, "Axis"))
	location := e.deref(mustChild(axis, "Location"))
	coords := fields(mustAttr(location, "Coordinates"))
	if mustFloat(coords[2]) != 0.0 {
		return "The Z-coordinate has to have value 0.0"
	}
	return ""
}

func axisToRefDirPosition(e *Engine, n *document.Node, typeName, calledRole string) string {
	axis := n.Find("Axis")
	refDir := n.Find("RefDirection")
	if axis == nil || refDir == nil {
		return ""
	}
	a := normalise(fields(mustAttr(e.deref(axis), "DirectionRatios")))
	d := normalise(fields(mustAttr(e.deref(refDir), "DirectionRatios")))
	c1 := a[1]*d[2] - a[2]*d[1]
	c2 := a[2]*d[0] - a[0]*d[2]
	c3 := a[0]*d[1] - a[1]*d[0]
	if c1*c1+c2*c2+c3*c3 <= 0 {
		return "The Axis and RefDirection shall not be parallel or anti-parallel"
	}
	return ""
}

func bendingShapeCodeProvided(e *Engine, n *document.Node, typeName, calledRole string) string {
	if n.Find("BendingParameters") == nil {
		return ""
	}
	if !hasValue(n, "BendingShapeCode") {
		return "Bending parameters must be accompanied by a shape code"
	}
	return ""
}

func boundaryDim(e *Engine, n *document.Node, typeName, calledRole string) string {
	boundary := e.deref(mustChild(n, "PolygonalBoundary"))
	if e.dimensionSize(boundary, typeOf(boundary)) != 2 {
		return "The bounding polyline should have the dimensionality of 2"
	}
	return ""
}

func boundaryType(e *Engine, n *document.Node, typeName, calledRole string) string {
	boundary := e.deref(mustChild(n, "PolygonalBoundary"))
	if !e.isAnyKindOf(typeOf(boundary), []string{"IfcPolyline", "IfcCompositeCurve"}) {
		return "Only bounded curves of type IfcCompositeCurve, or IfcPolyline are valid " +
			"boundaries"
	}
	return ""
}

func cp2Dor3D(e *Engine, n *document.Node, typeName, calledRole string) string {
	coords := fields(mustAttr(n, "Coordinates"))
	if len(coords) != 2 && len(coords) != 3 {
		return "Only two or three dimensional points are in scope"
	}
	return ""
}

func consecutive(e *Engine, n *document.Node, typeName, calledRole string) string {
	segments := n.Find("Segments")
	if segments == nil {
		return ""
	}
	for i := 0; i < len(segments.Children)-1; i++ {
		current := fields(segments.Children[i].Text)
		next := fields(segments.Children[i+1].Text)
		if current[len(current)-1] != next[0] {
			return "If a list of indexed segments is provided, they need to be " +
				"consecutive, meaning that the last index of all, but the last, " +
				"segments shall be identical with the first index of the next segment"
		}
	}
	return ""
}

func dimEqual2(e *Engine, n *document.Node, typeName, calledRole string) string {
	origin := e.deref(mustChild(n, "LocalOrigin"))
	if len(fields(mustAttr(origin, "Coordinates"))) != 2 {
		return "Dimension has to be 2D"
	}
	return ""
}

func dimIs2D(e *Engine, n *document.Node, typeName, calledRole string) string {
	tag := "BasisCurve"
	if typeName == "IfcPcurve" {
		tag = "ReferenceCurve"
	}
	curve := e.deref(mustChild(n, tag))
	if e.dimensionSize(curve, typeOf(curve)) != 2 {
		return "Dimension has to be 2D"
	}
	return ""
}

func dimIs3D(e *Engine, n *document.Node, typeName, calledRole string) string {
	if typeName == "IfcCartesianTransformationOperator3D" {
		origin := e.deref(mustChild(n, "LocalOrigin"))
		if len(fields(mustAttr(origin, "Coordinates"))) != 3 {
			return "Dimension has to be 3D"
		}
		return ""
	}
	curve := e.deref(mustChild(n, "BasisCurve"))
	if e.dimensionSize(curve, typeOf(curve)) != 3 {
		return "Dimension has to be 3D"
	}
	return ""
}

func directrixBounded(e *Engine, n *document.Node, typeName, calledRole string) string {
	if hasValue(n, "StartParam") && hasValue(n, "EndParam") {
		return ""
	}
	directrix := e.deref(mustChild(n, "Directrix"))
	if !e.isAnyKindOf(typeOf(directrix), []string{"IfcConic", "IfcBoundedCurve"}) {
		return "If the values for StartParam or EndParam are omited, then the Directrix " +
			"has to be a bounded or closed curve"
	}
	return ""
}

func directrixDim(e *Engine, n *document.Node, typeName, calledRole string) string {
	directrix := e.deref(mustChild(n, "Directrix"))
	if e.dimensionSize(directrix, typeOf(directrix)) != 3 {
		return "The Directrix shall be a curve in three dimensional space"
	}
	return ""
}

func directrixIsPolyline(e *Engine, n *document.Node, typeName, calledRole string) string {
	directrix := e.deref(mustChild(n, "Directrix"))
	t := typeOf(directrix)
	if e.isKindOf(t, "IfcPolyline") {
		return ""
	}
	const msg = "The Directrix shall be of type IfcIndexedPolyCurve with no Segments, " +
		"or of type IfcPolyline"
	if !e.isKindOf(t, "IfcIndexedPolyCurve") {
		return msg
	}
	if directrix.Find("Segments") != nil {
		return msg
	}
	return ""
}

func distinctSurfaces(e *Engine, n *document.Node, typeName, calledRole string) string {
	geometry := e.deref(mustChild(n, "AssociatedGeometry"))
	first := e.deref(geometry.Children[0])
	second := e.deref(geometry.Children[1])
	if elementsEqual(first, second) {
		return "The two associated geometry elements shall be related to distinct surfaces. " +
			"These are the surfaces which define the intersection curve"
	}
	return ""
}

func edgeElementNotOriented(e *Engine, n *document.Node, typeName, calledRole string) string {
	edge := e.deref(mustChild(n, "EdgeElement"))
	if e.isKindOf(typeOf(edge), "IfcOrientedEdge") {
		return "The edge element shall not be an oriented edge"
	}
	return ""
}

// requireAttr builds the rules that demand a non-empty attribute.
func requireAttr(name, msg string) Func {
	return func(e *Engine, n *document.Node, typeName, calledRole string) string {
		if !hasValue(n, name) {
			return msg
		}
		return ""
	}
}

func firstOperandClosed(e *Engine, n *document.Node, typeName, calledRole string) string {
	firstOp := firstChild(mustChild(n, "FirstOperand"))
	if firstOp.Tag != "IfcTriangulatedFaceSet" && firstOp.Tag != "IfcPolygonalFaceSet" {
		return ""
	}
	firstOp = e.deref(firstOp)
	if !strings.EqualFold(mustAttr(firstOp, "Closed"), "true") {
		return "If the FirstOperand is of type IfcTessellatedFaceSet it has to be a " +
			"closed tessellation"
	}
	return ""
}

func firstOperandType(e *Engine, n *document.Node, typeName, calledRole string) string {
	allowed := []string{"IfcSweptAreaSolid", "IfcSweptDiskSolid", "IfcBooleanResult"}
	firstOp := firstChild(mustChild(n, "FirstOperand"))
	if !e.isAnyKindOf(firstOp.Tag, allowed) {
		return "The first operand of the Boolean clipping operation shall be either an " +
			"IfcSweptAreaSolid or (in case of more than one clipping) an IfcBooleanResult"
	}
	return ""
}

func hasAdvancedFaces(e *Engine, n *document.Node, typeName, calledRole string) string {
	shell := e.deref(mustChild(n, "Outer"))
	for _, face := range mustChild(shell, "CfsFaces").Children {
		if !e.isKindOf(face.Tag, "IfcAdvancedFace") {
			return "Each face of the advanced B-rep shall be of type IfcAdvancedFace"
		}
	}
	return ""
}

func hasDecomposition(e *Engine, n *document.Node, typeName, calledRole string) string {
	if n.Find("IsDecomposedBy") != nil {
		return ""
	}
	switch typeName {
	case "IfcSlabElementedCase":
		return "A valid instance of IfcSlabElementedCase has to have parts in a " +
			"decomposition hierarchy"
	case "IfcWallElementedCase":
		return "A valid instance of IfcWallElementedCase has to have parts in a " +
			"decomposition hierarchy"
	}
	return ""
}

func hasIdentifierOrName(e *Engine, n *document.Node, typeName, calledRole string) string {
	if !hasValue(n, "Name") && !hasValue(n, "Identifier") {
		return "Either Identifier or Name (or both) by which the approval is known shall " +
			"be given"
	}
	return ""
}

func hasNoSubtraction(e *Engine, n *document.Node, typeName, calledRole string) string {
	if n.Find("HasOpenings") != nil {
		return "An feature subtraction (e.g. an opening element) can not have other openings " +
			"to void itself"
	}
	return ""
}

func hasObjectType(e *Engine, n *document.Node, typeName, calledRole string) string {
	userDefined := func(attr string) bool {
		return strings.EqualFold(mustAttr(n, attr), "userdefined")
	}
	switch typeName {
	case "IfcSurfaceFeature", "IfcVoidingFeature":
		if pt, ok := n.Attr["PredefinedType"]; ok && strings.EqualFold(pt, "userdefined") {
			if !hasValue(n, "ObjectType") {
				return "The attribute ObjectType shall be given if the predefined type " +
					"is set to USERDEFINED"
			}
		}
	case "IfcStructuralLoadGroup":
		if userDefined("PredefinedType") || userDefined("ActionType") || userDefined("ActionSource") {
			if !hasValue(n, "ObjectType") {
				return "The attribute ObjectType shall be given if the predefined type, " +
					"action type, or action source is set to USERDEFINED"
			}
		}
	case "IfcStructuralResultGroup":
		if userDefined("TheoryType") {
			if !hasValue(n, "ObjectType") {
				return "The attribute ObjectType shall be given if the analysis theory type " +
					"is set to USERDEFINED."
			}
		}
	default:
		if userDefined("PredefinedType") {
			if !hasValue(n, "ObjectType") {
				return "The attribute ObjectType shall be given if the predefined type is " +
					"set to USERDEFINED"
			}
		}
	}
	return ""
}

func hasOuterBound(e *Engine, n *document.Node, typeName, calledRole string) string {
	count := 0
	for _, bound := range mustChild(n, "Bounds").Children {
		if bound.Tag == "IfcFaceOuterBound" {
			count++
			if count > 1 {
				return "At most one of the bounds shall be of the type IfcFaceOuterBound"
			}
		}
	}
	return ""
}

func hasPlacement(e *Engine, n *document.Node, typeName, calledRole string) string {
	if n.Find("ObjectPlacement") == nil {
		return "The object placement has to be given"
	}
	return ""
}

func hasPredefinedType(e *Engine, n *document.Node, typeName, calledRole string) string {
	if strings.EqualFold(mustAttr(n, "PredefinedType"), "userdefined") {
		if !hasValue(n, "ObjectType") {
			return "The attribute ObjectType shall be given if the predefined type is set " +
				"to USERDEFINED"
		}
	}
	return ""
}

func identifiableCurveStyle(e *Engine, n *document.Node, typeName, calledRole string) string {
	if n.Find("CurveFont") == nil && n.Find("CurveWidth") == nil && n.Find("CurveColour") == nil {
		return "At minimum one of the three attribute values have to be provided, CurveFont, " +
			"CurveWidth, CurveColour"
	}
	return ""
}

func identifiablePerson(e *Engine, n *document.Node, typeName, calledRole string) string {
	if !hasValue(n, "Identification") && !hasValue(n, "FamilyName") && !hasValue(n, "GivenName") {
		return "Requires that the identification or/and the family name or/and the given " +
			"name is provided as minimum information"
	}
	return ""
}

func innerRadiusSize(e *Engine, n *document.Node, typeName, calledRole string) string {
	inner, ok := n.Attr["InnerRadius"]
	if !ok {
		return ""
	}
	if mustFloat(inner) >= mustFloat(mustAttr(n, "Radius")) {
		return "If InnerRadius exists then Radius denoting the outer radius shall be " +
			"greater than InnerRadius"
	}
	return ""
}

func invariantProfileType(e *Engine, n *document.Node, typeName, calledRole string) string {
	switch typeName {
	case "IfcCompositeProfileDef":
		profiles := mustChild(n, "Profiles")
		first := e.deref(profiles.Children[0])
		used := strings.ToLower(mustAttr(first, "ProfileType"))
		for _, p := range profiles.Children {
			profile := e.deref(p)
			if strings.ToLower(mustAttr(profile, "ProfileType")) != used {
				return "Either all profiles are areas or all profiles are curves"
			}
		}
	case "IfcDerivedProfileDef":
		parent := e.deref(mustChild(n, "ParentProfile"))
		if !strings.EqualFold(mustAttr(n, "ProfileType"), mustAttr(parent, "ProfileType")) {
			return "The profile type of the derived profile shall be the same as the type of " +
				"the parent profile, i.e. both shall be either AREA or CURVE"
		}
	}
	return ""
}

func isClosed(e *Engine, n *document.Node, typeName, calledRole string) string {
	switch typeName {
	case "IfcBoundaryCurve":
		segments := mustChild(n, "Segments")
		last := e.deref(segments.Children[len(segments.Children)-1])
		if strings.EqualFold(mustAttr(last, "Transition"), "discontinuous") {
			return "The derived ClosedCurve attribute of IfcCompositeCurve supertype shall " +
				"be TRUE"
		}
	case "IfcEdgeLoop":
		edges := mustChild(n, "EdgeList")
		first := e.deref(edges.Children[0])
		last := e.deref(edges.Children[len(edges.Children)-1])

		vertex := func(edge *document.Node, forward, backward string) *document.Node {
			element := e.deref(mustChild(edge, "EdgeElement"))
			if strings.EqualFold(mustAttr(edge, "Orientation"), "true") {
				return e.deref(mustChild(element, forward))
			}
			return e.deref(mustChild(element, backward))
		}
		start := vertex(first, "EdgeStart", "EdgeEnd")
		end := vertex(last, "EdgeEnd", "EdgeStart")
		if start.Key() != end.Key() {
			return "The start vertex of the first edge shall be the same as the end vertex " +
				"of the last edge. This ensures that the path is closed to form a loop"
		}
	}
	return ""
}

func magGreaterOrEqualZero(e *Engine, n *document.Node, typeName, calledRole string) string {
	if mustFloat(mustAttr(n, "Magnitude")) < 0 {
		return "The magnitude shall be positive or zero"
	}
	return ""
}

func magnitudeGreaterZero(e *Engine, n *document.Node, typeName, calledRole string) string {
	for _, ratio := range fields(mustAttr(n, "DirectionRatios")) {
		if mustFloat(ratio) != 0 {
			return ""
		}
	}
	return "The magnitude of the direction vector shall be greater than zero"
}

func majorLargerMinor(e *Engine, n *document.Node, typeName, calledRole string) string {
	if mustFloat(mustAttr(n, "MajorRadius")) <= mustFloat(mustAttr(n, "MinorRadius")) {
		return "The attribute value of the MinorRadius shall be smaller then the value of " +
			"the MajorRadius"
	}
	return ""
}

func normalizedPriority(e *Engine, n *document.Node, typeName, calledRole string) string {
	priority, ok := n.Attr["Priority"]
	if !ok {
		return ""
	}
	if v := mustInt(priority); v < 0 || v > 100 {
		return "The Property shall all be given as a normalized integer range [0..100], " +
			"where 0 is the lowest and 100 the highest priority"
	}
	return ""
}

func positiveLengthParameter(e *Engine, n *document.Node, typeName, calledRole string) string {
	if mustFloat(mustAttr(n, "ParamLength")) <= 0 {
		return "The ParamLength shall be greater than zero"
	}
	return ""
}

func sameNumOfWeightsAndPoints(e *Engine, n *document.Node, typeName, calledRole string) string {
	points := len(fields(mustAttr(n, "ControlPointsList")))
	weights := len(fields(mustAttr(n, "WeightsData")))
	if points != weights {
		return "There shall be the same number of weights as control points"
	}
	return ""
}

func scaleGreaterZero(e *Engine, n *document.Node, typeName, calledRole string) string {
	scale := 1.0
	if hasValue(n, "Scale") {
		scale = mustFloat(n.Attr["Scale"])
	}
	if scale <= 0 {
		return "The derived scaling Scale shall be greater than zero"
	}
	return ""
}

// valuesDiffer builds the trimming rules that require two attributes to
// carry different values.
func valuesDiffer(a, b, msg string) Func {
	return func(e *Engine, n *document.Node, typeName, calledRole string) string {
		if mustAttr(n, a) == mustAttr(n, b) {
			return msg
		}
		return ""
	}
}

func visibleLengthGreaterEqualZero(e *Engine, n *document.Node, typeName, calledRole string) string {
	if mustFloat(mustAttr(n, "VisibleSegmentLength")) < 0 {
		return "The value of a visible pattern length shall be equal or greater then zero"
	}
	return ""
}

func weightValuesGreaterZero(e *Engine, n *document.Node, typeName, calledRole string) string {
	for _, w := range fields(mustAttr(n, "WeightsData")) {
		if mustFloat(w) <= 0.0 {
			return "The weight value associated with each control point shall be greater " +
				"than zero"
		}
	}
	return ""
}

func weightsGreaterZero(e *Engine, n *document.Node, typeName, calledRole string) string {
	for _, w := range fields(mustAttr(n, "WeightsData")) {
		if mustFloat(w) <= 0.0 {
			return "All the weights shall have values greater than 0.0"
		}
	}
	return ""
}
