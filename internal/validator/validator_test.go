package validator

import (
	"strings"
	"testing"

	"github.com/ifc-community/ifcxml-checker/internal/document"
	"github.com/ifc-community/ifcxml-checker/internal/schema"
)

func testDict() *schema.Dict {
	d := schema.NewDict()

	d.Entities["IfcProduct"] = &schema.Entity{
		Parameters: []schema.Parameter{
			{Name: "Name", Type: "IfcLabel", Kind: schema.KindType, List: schema.ListNone, Max: 1},
		},
		Rules:     []string{"HasName"},
		Reference: "5.1.3.1",
	}
	d.Entities["IfcWall"] = &schema.Entity{
		Supertypes: []string{"IfcProduct"},
		Parameters: []schema.Parameter{
			{Name: "Name", Type: "IfcLabel", Kind: schema.KindType, Required: true, List: schema.ListNone, Min: 1, Max: 1},
			{Name: "Height", Type: "IfcLengthMeasure", Kind: schema.KindType, List: schema.ListNone, Max: 1},
			{Name: "Ratios", Type: "IfcReal", Kind: schema.KindType, List: schema.ListSingle, Min: 2, Max: 3},
			{Name: "Grid", Type: "IfcReal", Kind: schema.KindType, List: schema.ListDouble, Min: 2, Max: 2, Min2: 3, Max2: 3},
			{Name: "Axis", Type: "IfcDirection", Kind: schema.KindEntity, List: schema.ListNone, Max: 1},
		},
		Reference: "6.1.2.1",
	}
	d.Entities["IfcSite"] = &schema.Entity{
		Supertypes: []string{"IfcProduct"},
		Parameters: []schema.Parameter{
			{Name: "Name", Type: "IfcLabel", Kind: schema.KindType, List: schema.ListNone, Max: 1},
		},
		Reference: "5.4.1.1",
	}
	d.Entities["IfcDirection"] = &schema.Entity{
		Parameters: []schema.Parameter{
			{Name: "DirectionRatios", Type: "IfcReal", Kind: schema.KindType, List: schema.ListSingle, Min: 2, Max: 3},
		},
		Reference: "8.9.2.1",
	}
	d.Entities["IfcRelAggregates"] = &schema.Entity{
		Parameters: []schema.Parameter{
			{Name: "RelatedObjects", Type: "IfcProduct", Kind: schema.KindEntity, Required: true, List: schema.ListSingle, Min: 1, Max: schema.Unbounded},
		},
		Reference: "5.1.4.2",
	}
	d.Entities["IfcPerson"] = &schema.Entity{
		Rules:     []string{"IdentifiablePerson"},
		Reference: "8.1.1.1",
	}
	d.Entities["IfcEllipse"] = &schema.Entity{
		Parameters: []schema.Parameter{
			{Name: "MajorRadius", Type: "IfcReal", Kind: schema.KindType, List: schema.ListNone, Max: 1},
			{Name: "MinorRadius", Type: "IfcReal", Kind: schema.KindType, List: schema.ListNone, Max: 1},
		},
		Rules:     []string{"MajorLargerMinor"},
		Reference: "8.9.2.2",
	}
	d.Entities["IfcDoor"] = &schema.Entity{
		Supertypes: []string{"IfcProduct"},
		Parameters: []schema.Parameter{
			{Name: "Name", Type: "IfcLabel", Kind: schema.KindType, List: schema.ListNone, Max: 1},
			{Name: "FillsVoids", Type: "IfcRelFillsElement", Kind: schema.KindEntity, Required: true, List: schema.ListNone, Min: 1, Max: 1},
		},
		CallingParameters: []schema.CallingParameter{
			{Name: "HasFillings", Type: "IfcRelFillsElement", Role: "RelatedBuildingElement", Min: -1, Max: 1},
		},
		CalledAs: []schema.CalledAlias{
			{Alias: "RelatedBuildingElement", Role: "FillsVoids"},
		},
		Reference: "6.1.2.2",
	}
	d.Entities["IfcRelFillsElement"] = &schema.Entity{
		Parameters: []schema.Parameter{
			{Name: "RelatedBuildingElement", Type: "IfcDoor", Kind: schema.KindEntity, Required: true, List: schema.ListNone, Min: 1, Max: 1},
		},
		Reference: "5.1.4.3",
	}
	d.Entities["IfcBox"] = &schema.Entity{
		Parameters: []schema.Parameter{
			{Name: "Inner", Type: "IfcBox", Kind: schema.KindEntity, List: schema.ListNone, Max: 1},
		},
		Reference: "8.9.3.1",
	}
	d.Entities["IfcPropertySingleValue"] = &schema.Entity{
		Parameters: []schema.Parameter{
			{Name: "NominalValue", Type: "IfcValueSelect", Kind: schema.KindType, List: schema.ListNone, Max: 1},
		},
		Reference: "8.16.1.1",
	}

	d.Types["IfcLabel"] = &schema.TypeDef{Kind: schema.Common}
	d.Types["IfcReal"] = &schema.TypeDef{Kind: schema.Common}
	d.Types["IfcLengthMeasure"] = &schema.TypeDef{Kind: schema.Measure, Items: []string{"LENGTHUNIT", "REAL"}}
	d.Types["IfcValueSelect"] = &schema.TypeDef{Kind: schema.Select, Items: []string{"IfcLabel", "IfcReal"}}

	return d
}

func validate(t *testing.T, body string) []Finding {
	t.Helper()
	xml := "<ifcXML>\n<header/>\n" + body + "\n</ifcXML>"
	doc, err := document.Parse(strings.NewReader(xml))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return New(doc, testDict()).Run()
}

func findKind(findings []Finding, kind string) *Finding {
	for i := range findings {
		if findings[i].Kind == kind {
			return &findings[i]
		}
	}
	return nil
}

func findMessage(findings []Finding, fragment string) *Finding {
	for i := range findings {
		if strings.Contains(findings[i].Message, fragment) {
			return &findings[i]
		}
	}
	return nil
}

func TestCleanDocument(t *testing.T) {
	findings := validate(t, `<IfcWall id="w1" Name="Wall-001"/>`)
	if len(findings) != 0 {
		t.Fatalf("clean document produced findings: %+v", findings)
	}
}

func TestDuplicateIDs(t *testing.T) {
	findings := validate(t,
		`<IfcWall id="i1" Name="a"/>
<IfcSite id="i1" Name="b"/>`)
	f := findKind(findings, KindDuplicateID)
	if f == nil {
		t.Fatalf("no duplicate-id finding: %+v", findings)
	}
	if f.ID != "i1" || f.Message != "Multiple elements are using the same ID." {
		t.Errorf("finding = %+v", f)
	}
	if len(f.Lines) != 2 || f.Lines[0] != 3 || f.Lines[1] != 4 {
		t.Errorf("lines = %v, want [3 4]", f.Lines)
	}
	if len(findings) != 1 {
		t.Errorf("expected a single finding for the pair, got %d", len(findings))
	}
}

func TestRequiredAttributeMissing(t *testing.T) {
	findings := validate(t, `<IfcWall id="w1"/>`)
	f := findKind(findings, KindMissing)
	if f == nil {
		t.Fatalf("no missing-information finding: %+v", findings)
	}
	if f.Message != "Required attribute Name does not exist." {
		t.Errorf("message = %q", f.Message)
	}
	if f.EntityType != "IfcWall" || f.AttributeType != "" {
		t.Errorf("finding = %+v", f)
	}
}

func TestRequiredAttributeEmpty(t *testing.T) {
	findings := validate(t, `<IfcWall id="w1" Name=""/>`)
	f := findKind(findings, KindMissing)
	if f == nil {
		t.Fatalf("no missing-information finding: %+v", findings)
	}
	if f.Message != "Required attribute Name has no value." {
		t.Errorf("message = %q", f.Message)
	}
}

func TestTypeViolation(t *testing.T) {
	findings := validate(t, `<IfcWall id="w1" Name="ok" Height="abc"/>`)
	f := findKind(findings, KindType)
	if f == nil {
		t.Fatalf("no type finding: %+v", findings)
	}
	want := "The attribute Height has a prohibited value. Value (or list of values) abc should be of type IfcLengthMeasure"
	if f.Message != want {
		t.Errorf("message = %q", f.Message)
	}
	if f.AttributeType != "IfcLengthMeasure" {
		t.Errorf("attribute type = %q", f.AttributeType)
	}
	if f.Link != docBase+"ifcsharedbldgelements/lexical/ifcwall.htm" {
		t.Errorf("link = %q", f.Link)
	}
}

func TestListCardinality(t *testing.T) {
	findings := validate(t, `<IfcWall id="w1" Name="ok" Ratios="1 2 3 4"/>`)
	f := findKind(findings, KindListSize)
	if f == nil {
		t.Fatalf("no list finding: %+v", findings)
	}
	if f.Message != "The attribute Ratios has too many values." {
		t.Errorf("message = %q", f.Message)
	}
	if f.AttributeType != "Ratios" {
		t.Errorf("attribute type = %q", f.AttributeType)
	}

	findings = validate(t, `<IfcWall id="w1" Name="ok" Ratios="1"/>`)
	f = findKind(findings, KindListSize)
	if f == nil || f.Message != "The attribute Ratios has too few values." {
		t.Fatalf("short list: %+v", findings)
	}
}

func TestDoubleListAttributeCardinality(t *testing.T) {
	// Grid is declared as two lists of three values each.
	findings := validate(t, `<IfcWall id="w1" Name="ok" Grid="1 2 3 4 5 6 7 8 9"/>`)
	f := findKind(findings, KindListSize)
	if f == nil {
		t.Fatalf("no list finding: %+v", findings)
	}
	if f.Message != "The attribute Grid has too many values." {
		t.Errorf("message = %q", f.Message)
	}
	if f.AttributeType != "Grid" {
		t.Errorf("attribute type = %q", f.AttributeType)
	}

	findings = validate(t, `<IfcWall id="w1" Name="ok" Grid="1 2 3"/>`)
	f = findKind(findings, KindListSize)
	if f == nil || f.Message != "The attribute Grid has too little values." {
		t.Fatalf("short grid: %+v", findings)
	}

	// Seven values fit no arrangement of three-value inner lists.
	findings = validate(t, `<IfcWall id="w1" Name="ok" Grid="1 2 3 4 5 6 7"/>`)
	f = findMessage(findings, "The number of values in the attribute is not correct (double list error).")
	if f == nil {
		t.Fatalf("indivisible grid: %+v", findings)
	}
	if f.Kind != KindListSize {
		t.Errorf("kind = %q", f.Kind)
	}
}

func TestDoubleListChildCardinality(t *testing.T) {
	findings := validate(t,
		`<IfcWall id="w1" Name="ok">
<Grid>
<IfcReal-wrapper>1</IfcReal-wrapper>
</Grid>
</IfcWall>`)
	f := findMessage(findings, "The attribute Grid has too little values. (double list error)")
	if f == nil {
		t.Fatalf("underfilled grid holder: %+v", findings)
	}
	if f.Kind != KindListSize {
		t.Errorf("kind = %q", f.Kind)
	}

	findings = validate(t,
		`<IfcWall id="w1" Name="ok">
<Grid>
<IfcReal-wrapper>1</IfcReal-wrapper>
<IfcReal-wrapper>2</IfcReal-wrapper>
<IfcReal-wrapper>3</IfcReal-wrapper>
</Grid>
</IfcWall>`)
	if f := findMessage(findings, "The attribute Grid has too many values. (double list error)"); f == nil {
		t.Fatalf("overfilled grid holder: %+v", findings)
	}

	findings = validate(t,
		`<IfcWall id="w1" Name="ok">
<Grid>
<IfcReal-wrapper>1</IfcReal-wrapper>
<IfcReal-wrapper>2</IfcReal-wrapper>
</Grid>
</IfcWall>`)
	if f := findMessage(findings, "(double list error)"); f != nil {
		t.Errorf("holder within the outer bounds flagged: %+v", f)
	}
}

func TestDanglingReference(t *testing.T) {
	findings := validate(t,
		`<IfcRelAggregates id="r1">
<RelatedObjects>
<IfcProduct ref="999"/>
</RelatedObjects>
</IfcRelAggregates>`)
	f := findKind(findings, KindReference)
	if f == nil {
		t.Fatalf("no reference finding: %+v", findings)
	}
	if f.Message != "Referenced id can not be found. ID: 999" {
		t.Errorf("message = %q", f.Message)
	}
	if f.ID != "referenced id: 999" {
		t.Errorf("id = %q", f.ID)
	}
}

func TestReferenceTypeMatching(t *testing.T) {
	// A subtype target satisfies a supertype reference.
	findings := validate(t,
		`<IfcWall id="w1" Name="x"/>
<IfcRelAggregates id="r1">
<RelatedObjects>
<IfcProduct ref="w1"/>
</RelatedObjects>
</IfcRelAggregates>`)
	if f := findKind(findings, KindReference); f != nil {
		t.Errorf("covariant reference rejected: %+v", f)
	}

	findings = validate(t,
		`<IfcWall id="w1" Name="x"/>
<IfcRelAggregates id="r1">
<RelatedObjects>
<IfcDirection ref="w1"/>
</RelatedObjects>
</IfcRelAggregates>`)
	f := findKind(findings, KindReference)
	if f == nil {
		t.Fatalf("type mismatch not reported: %+v", findings)
	}
	if f.Message != "The reference type is not matching. Referenced ID: w1" {
		t.Errorf("message = %q", f.Message)
	}
}

func TestUnknownChildAndAttribute(t *testing.T) {
	findings := validate(t,
		`<IfcWall id="w1" Name="x" Bogus="1">
<Nope/>
</IfcWall>`)
	child := findKind(findings, KindUnknownChild)
	if child == nil {
		t.Fatalf("no unknown-child finding: %+v", findings)
	}
	if child.Message != "The element Nope is not a valid entity/child for the current entity type IfcWall according to the documentation." {
		t.Errorf("message = %q", child.Message)
	}
	attr := findKind(findings, KindUnknownAttribute)
	if attr == nil {
		t.Fatalf("no unknown-attribute finding: %+v", findings)
	}
	if attr.Message != "The attribute Bogus is unknown according to the documentation." {
		t.Errorf("message = %q", attr.Message)
	}
}

func TestDictionaryGap(t *testing.T) {
	findings := validate(t, `<IfcUnknownThing id="u1"/>`)
	f := findKind(findings, KindDictionaryGap)
	if f == nil {
		t.Fatalf("no dictionary-gap finding: %+v", findings)
	}
	if !strings.Contains(f.Message, "IfcUnknownThing") {
		t.Errorf("message = %q", f.Message)
	}
}

func TestWrongEntityType(t *testing.T) {
	findings := validate(t,
		`<IfcWall id="w1" Name="x" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
<Axis xsi:type="IfcSite"/>
</IfcWall>`)
	f := findKind(findings, KindEntity)
	if f == nil {
		t.Fatalf("no entity finding: %+v", findings)
	}
	if f.Message != "Entity is using the wrong type." || f.EntityType != "IfcDirection" {
		t.Errorf("finding = %+v", f)
	}
}

func TestOwnRuleViolation(t *testing.T) {
	findings := validate(t, `<IfcPerson id="p1"/>`)
	f := findKind(findings, KindRule)
	if f == nil {
		t.Fatalf("no rule finding: %+v", findings)
	}
	if f.RuleName != "IdentifiablePerson" || f.EntityType != "IfcPerson" {
		t.Errorf("finding = %+v", f)
	}
}

func TestSupertypeRuleViolation(t *testing.T) {
	findings := validate(t, `<IfcWall id="w1"/>`)
	f := findKind(findings, KindParentRule)
	if f == nil {
		t.Fatalf("no parent-rule finding: %+v", findings)
	}
	if f.RuleName != "HasName" || f.AttributeType != "SUPERTYPE: IfcProduct" {
		t.Errorf("finding = %+v", f)
	}
	if f.Link != docBase+"ifckernel/lexical/ifcproduct.htm" {
		t.Errorf("link should point at the supertype page: %q", f.Link)
	}
	if f.EntityType != "IfcWall" {
		t.Errorf("entity type = %q", f.EntityType)
	}
}

func TestRuleException(t *testing.T) {
	findings := validate(t, `<IfcEllipse id="e1"/>`)
	f := findKind(findings, KindRuleException)
	if f == nil {
		t.Fatalf("no exception finding: %+v", findings)
	}
	if !strings.HasPrefix(f.Message, "Code Exception during rule checking.") {
		t.Errorf("message = %q", f.Message)
	}
	if f.RuleName != "MajorLargerMinor" {
		t.Errorf("rule name = %q", f.RuleName)
	}
}

func TestRequiredChildViaInboundAlias(t *testing.T) {
	findings := validate(t,
		`<IfcDoor id="d1" Name="x" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"/>
<IfcRelFillsElement id="rf1">
<RelatedBuildingElement xsi:type="IfcDoor" ref="d1"/>
</IfcRelFillsElement>`)
	if f := findMessage(findings, "Required child FillsVoids"); f != nil {
		t.Errorf("alias-satisfied child still reported: %+v", f)
	}

	findings = validate(t, `<IfcDoor id="d2" Name="x"/>`)
	f := findMessage(findings, "Required child FillsVoids does not exist.")
	if f == nil {
		t.Fatalf("missing required child not reported: %+v", findings)
	}
	if f.Kind != KindMissing {
		t.Errorf("kind = %q", f.Kind)
	}
}

func TestCalledRoleSkipsRequiredChild(t *testing.T) {
	findings := validate(t,
		`<IfcDoor id="d1" Name="x">
<HasFillings>
</HasFillings>
</IfcDoor>`)
	if f := findMessage(findings, "Required child RelatedBuildingElement"); f != nil {
		t.Errorf("slot reached through the calling parameter should count as filled: %+v", f)
	}
}

func TestSelectChild(t *testing.T) {
	findings := validate(t,
		`<IfcPropertySingleValue id="pv1">
<NominalValue>
<IfcLabel-wrapper>hello</IfcLabel-wrapper>
</NominalValue>
</IfcPropertySingleValue>`)
	if len(findings) != 0 {
		t.Fatalf("valid select produced findings: %+v", findings)
	}

	findings = validate(t,
		`<IfcPropertySingleValue id="pv2">
<NominalValue>
<IfcBoolean-wrapper>x</IfcBoolean-wrapper>
</NominalValue>
</IfcPropertySingleValue>`)
	f := findMessage(findings, "Chosen type IfcBoolean is not reflected in the select list.")
	if f == nil {
		t.Fatalf("off-list wrapper not reported: %+v", findings)
	}

	findings = validate(t,
		`<IfcPropertySingleValue id="pv3">
<NominalValue>
<IfcReal-wrapper>abc</IfcReal-wrapper>
</NominalValue>
</IfcPropertySingleValue>`)
	f = findMessage(findings, "has a prohibited value. The value 'abc' does not fit the corresponding type IfcReal.")
	if f == nil {
		t.Fatalf("bad wrapper value not reported: %+v", findings)
	}
}

func TestRecursionLimit(t *testing.T) {
	body := `<IfcBox id="b1">` +
		strings.Repeat("<Inner>", 10) +
		strings.Repeat("</Inner>", 10) +
		`</IfcBox>`
	xml := "<ifcXML>\n<header/>\n" + body + "\n</ifcXML>"
	doc, err := document.Parse(strings.NewReader(xml))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	v := New(doc, testDict())
	v.SetMaxDepth(3)
	findings := v.Run()
	f := findKind(findings, KindRecursionLimit)
	if f == nil {
		t.Fatalf("no recursion-limit finding: %+v", findings)
	}
	if !strings.Contains(f.Message, "limit of 3 levels") {
		t.Errorf("message = %q", f.Message)
	}
}
