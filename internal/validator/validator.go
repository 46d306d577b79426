// Package validator walks a parsed instance tree against the schema
// dictionary and collects findings: structural errors, type errors,
// unresolved references and rule violations.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ifc-community/ifcxml-checker/internal/document"
	"github.com/ifc-community/ifcxml-checker/internal/rules"
	"github.com/ifc-community/ifcxml-checker/internal/schema"
	"github.com/ifc-community/ifcxml-checker/internal/typecheck"
)

const wrapperSuffix = "-wrapper"

// DefaultMaxDepth bounds the element nesting the validator follows before
// giving up on a branch.
const DefaultMaxDepth = 512

// Validator checks one document against one dictionary. It is not safe
// for concurrent use; run one Validator per document.
type Validator struct {
	doc      *document.Document
	dict     *schema.Dict
	types    *typecheck.Checker
	engine   *rules.Engine
	maxDepth int
	findings []Finding
}

func New(doc *document.Document, dict *schema.Dict) *Validator {
	return &Validator{
		doc:      doc,
		dict:     dict,
		types:    typecheck.NewChecker(dict),
		engine:   rules.NewEngine(doc, dict),
		maxDepth: DefaultMaxDepth,
	}
}

// SetMaxDepth overrides the nesting bound. Values below 1 keep the default.
func (v *Validator) SetMaxDepth(depth int) {
	if depth >= 1 {
		v.maxDepth = depth
	}
}

// Engine exposes the rule engine so callers can register project rules
// before running the validation.
func (v *Validator) Engine() *rules.Engine { return v.engine }

// Run validates the whole document and returns the findings in
// visitation order, duplicate-id findings first. The first child of the
// root is the file header and is not an entity.
func (v *Validator) Run() []Finding {
	v.findings = nil
	for _, dup := range v.doc.Duplicates() {
		lines := make([]int, len(dup.Nodes))
		for i, n := range dup.Nodes {
			lines[i] = n.Line
		}
		v.add(Finding{
			Lines:   lines,
			ID:      dup.ID,
			Kind:    KindDuplicateID,
			Message: "Multiple elements are using the same ID.",
		})
	}
	for i, top := range v.doc.Root.Children {
		if i == 0 {
			continue
		}
		v.checkNode(top, top.Tag, "", 0)
	}
	return v.findings
}

func (v *Validator) add(f Finding) {
	v.findings = append(v.findings, f)
}

// resolve looks up the target of a by-reference occurrence. The target
// type must equal the referencing type or be one of its subtypes.
func (v *Validator) resolve(n *document.Node) (found, equal bool) {
	target := v.doc.ByID(n.Ref())
	if target == nil {
		return false, false
	}
	refType := n.Type()
	if refType == "" {
		refType = n.Tag
	}
	targetType := target.Type()
	if targetType == "" {
		targetType = target.Tag
	}
	return true, targetType == refType || v.dict.IsSubtype(targetType, refType)
}

func (v *Validator) checkNode(n *document.Node, typeName, calledRole string, depth int) {
	if depth > v.maxDepth {
		v.add(Finding{
			Line:    n.Line,
			ID:      n.Key(),
			Kind:    KindRecursionLimit,
			Message: fmt.Sprintf("Element nesting exceeds the limit of %d levels. Validation of this branch stopped.", v.maxDepth),
		})
		return
	}

	// A by-reference occurrence stands for the element carrying the id;
	// its content has been checked (or will be) where the id is declared.
	if n.IsRef() {
		found, equal := v.resolve(n)
		refID := "referenced id: " + n.Ref()
		if !found {
			v.add(Finding{
				Line:    n.Line,
				ID:      refID,
				Kind:    KindReference,
				Message: "Referenced id can not be found. ID: " + n.Ref(),
			})
		} else if !equal {
			v.add(Finding{
				Line:    n.Line,
				ID:      refID,
				Kind:    KindReference,
				Message: "The reference type is not matching. Referenced ID: " + n.Ref(),
			})
		}
		return
	}

	// Wrapper elements carry raw typed values selected through a choice
	// list; their value is checked from the parent element.
	if strings.HasSuffix(typeName, wrapperSuffix) {
		return
	}

	ent, ok := v.dict.Entity(typeName)
	if !ok {
		v.add(Finding{
			Line:       n.Line,
			ID:         n.Key(),
			Kind:       KindDictionaryGap,
			Message:    "The entity type " + typeName + " is not part of the schema dictionary.",
			EntityType: typeName,
		})
		return
	}
	docRef := ent.Reference
	link := docLink(docRef, typeName)

	// Children outside the declared parameters and calling parameters are
	// unknown; the rest feed the per-parameter checks below.
	var accepted []string
	seen := make(map[string]bool)
	duplicated := false
	for _, child := range n.Children {
		_, isParam := ent.Parameter(child.Tag)
		_, isCalling := ent.CallingParameter(child.Tag)
		if !isParam && !isCalling {
			v.add(Finding{
				Line:         n.Line,
				ID:           n.ID(),
				Kind:         KindUnknownChild,
				Message:      "The element " + child.Tag + " is not a valid entity/child for the current entity type " + typeName + " according to the documentation.",
				EntityType:   typeName,
				Link:         link,
				DocReference: docRef,
			})
			continue
		}
		if seen[child.Tag] {
			duplicated = true
		}
		seen[child.Tag] = true
		accepted = append(accepted, child.Tag)
	}
	if duplicated {
		v.add(Finding{
			Line:         n.Line,
			ID:           n.ID(),
			Kind:         KindListSize,
			Message:      "One of the children of the current entity occurs too often.",
			EntityType:   typeName,
			Link:         link,
			DocReference: docRef,
		})
	}

	v.checkAttributes(n, ent, typeName, link)
	for i := range ent.Parameters {
		p := &ent.Parameters[i]
		if p.Kind == schema.KindType {
			v.checkTypedParameter(n, ent, p, typeName, link)
		} else {
			v.checkRequiredChild(n, ent, p, accepted, typeName, calledRole, link)
		}
	}
	v.checkRules(n, ent, typeName, calledRole, link)
	v.recurse(n, ent, seen, typeName, link, depth)
}

// checkAttributes flags attributes outside the declared parameters and
// the structural attribute set.
func (v *Validator) checkAttributes(n *document.Node, ent *schema.Entity, typeName, link string) {
	names := make([]string, 0, len(n.Attr))
	for name := range n.Attr {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		switch name {
		case document.AttrType, document.AttrRef, document.AttrID, document.AttrNil, document.AttrPos:
			continue
		}
		if _, ok := ent.Parameter(name); ok {
			continue
		}
		v.add(Finding{
			Line:         n.Line,
			ID:           n.Key(),
			Kind:         KindUnknownAttribute,
			Message:      "The attribute " + name + " is unknown according to the documentation.",
			EntityType:   typeName,
			Link:         link,
			DocReference: ent.Reference,
		})
	}
}

// checkTypedParameter validates presence, cardinality and value of one
// typed parameter. Select types and double lists live in child elements,
// everything else in an attribute.
func (v *Validator) checkTypedParameter(n *document.Node, ent *schema.Entity, p *schema.Parameter, typeName, link string) {
	errKind := KindType
	errMsg := ""

	def, defKnown := v.dict.Type(p.Type)
	attrValue, attrPresent := n.Attr[p.Name]

	switch {
	case !attrPresent && defKnown && def.Kind == schema.Select:
		errKind, errMsg = v.checkSelectChild(n, p, def, typeName, link)

	case !attrPresent && p.List == schema.ListDouble:
		errKind, errMsg = v.checkDoubleListChild(n, p)

	case !attrPresent:
		if p.Required {
			errKind = KindMissing
			errMsg = "Required attribute " + p.Name + " does not exist."
		}

	case attrValue == "":
		if p.Required {
			errKind = KindMissing
			errMsg = "Required attribute " + p.Name + " has no value."
		}

	default:
		v.checkAttributeCardinality(n, p, attrValue, typeName, link)
		res := v.types.Check(attrValue, p.Type, p.List)
		if res.Message != "" {
			errMsg = res.Message + " (" + p.Name + ")"
		} else if !res.OK {
			errMsg = "The attribute " + p.Name + " has a prohibited value. Value (or list of values) " + attrValue + " should be of type " + p.Type
		}
	}

	if errMsg != "" {
		attributeType := ""
		if errKind == KindType {
			attributeType = p.Type
		}
		v.add(Finding{
			Line:          n.Line,
			ID:            n.ID(),
			Kind:          errKind,
			Message:       errMsg,
			EntityType:    typeName,
			AttributeType: attributeType,
			Link:          link,
			DocReference:  ent.Reference,
		})
	}
}

// checkSelectChild validates a select typed parameter given as a child
// element holding the chosen entity or wrapper values.
func (v *Validator) checkSelectChild(n *document.Node, p *schema.Parameter, def *schema.TypeDef, typeName, link string) (string, string) {
	errKind := KindType
	errMsg := ""

	holder := n.Find(p.Name)
	if holder == nil {
		if p.Required {
			return KindMissing, "Required select child " + p.Name + " does not exist."
		}
		return errKind, errMsg
	}

	selectList := def.Items
	elems := holder.Children
	if p.List == schema.ListNone && len(elems) > 1 {
		elems = elems[:1]
	}
	for _, el := range elems {
		childType := strings.TrimSuffix(el.Tag, wrapperSuffix)
		switch {
		case !strings.HasSuffix(el.Tag, wrapperSuffix):
			if !containsString(selectList, el.Tag) && !v.supertypeInList(el.Tag, selectList) {
				errMsg = "Chosen entity " + p.Name + " is not reflected in the select list."
			}
		case !containsString(selectList, childType):
			errMsg = "Chosen type " + childType + " is not reflected in the select list."
		default:
			res := v.types.Check(el.Text, childType, schema.ListNone)
			if res.Message != "" {
				errMsg = res.Message + " (" + p.Name + ")"
			} else if !res.OK {
				errMsg = "The attribute " + p.Name + " has a prohibited value. The value '" + el.Text + "' does not fit the corresponding type " + childType + "."
			}
		}
	}

	min, max := p.Min, p.Max
	if p.List == schema.ListNone {
		min, max = 0, 1
		if p.Required {
			min = 1
		}
	} else if p.List == schema.ListDouble {
		min = p.Min * p.Min2
		if p.Max == schema.Unbounded || p.Max2 == schema.Unbounded {
			max = schema.Unbounded
		} else {
			max = p.Max * p.Max2
		}
	}
	violation := ""
	switch {
	case max != schema.Unbounded && len(elems) > max:
		violation = "The select attribute " + p.Name + " has too many children."
	case len(elems) < min:
		violation = "The select attribute " + p.Name + " has too few children."
	case p.List == schema.ListDouble && p.Max2 != schema.Unbounded && p.Min2 == p.Max2 && p.Min2 > 0 && len(elems)%p.Min2 != 0:
		violation = "The number of child elements of the select attribute " + p.Name + " is not correct (double list error)."
	}
	if violation != "" {
		v.add(Finding{
			Line:          n.Line,
			ID:            n.ID(),
			Kind:          KindListSize,
			Message:       violation,
			EntityType:    typeName,
			AttributeType: p.Name,
			Link:          link,
			DocReference:  mustEntityRef(v.dict, typeName),
		})
	}

	// A selected entity may be given by reference instead of inline.
	for _, child := range n.Children {
		if child.Tag != p.Name || len(child.Children) == 0 {
			continue
		}
		first := child.Children[0]
		if !first.IsRef() {
			continue
		}
		found, equal := v.resolve(first)
		if !found {
			errKind = KindReference
			errMsg = "Referenced id can not be found."
		} else if !equal {
			errKind = KindReference
			errMsg = "The reference type is not matching."
		}
	}
	return errKind, errMsg
}

// checkDoubleListChild validates a double-list typed parameter whose
// values are wrapper children of a holder element.
func (v *Validator) checkDoubleListChild(n *document.Node, p *schema.Parameter) (string, string) {
	holder := n.Find(p.Name)
	if holder == nil {
		if p.Required {
			return KindMissing, "Required attribute " + p.Name + " does not exist."
		}
		return KindType, ""
	}
	if len(holder.Children) < p.Min {
		return KindListSize, "The attribute " + p.Name + " has too little values. (double list error)"
	}
	if p.Max != schema.Unbounded && len(holder.Children) > p.Max {
		return KindListSize, "The attribute " + p.Name + " has too many values. (double list error)"
	}
	errMsg := ""
	for _, dp := range holder.Children {
		childType := strings.TrimSuffix(dp.Tag, wrapperSuffix)
		if childType != p.Type && !v.supertypeInList(childType, []string{p.Type}) {
			errMsg = "Chosen type " + childType + " is not reflected in the select list."
			continue
		}
		res := v.types.Check(dp.Text, childType, schema.ListNone)
		if res.Message != "" {
			errMsg = res.Message + " (" + p.Name + ")"
		} else if !res.OK {
			errMsg = "The attribute " + p.Name + " has a prohibited value."
		}
	}
	return KindType, errMsg
}

// checkAttributeCardinality validates the value count of a present list
// valued attribute. Cardinality findings are reported on their own since
// they can co-occur with a value error on the same attribute.
func (v *Validator) checkAttributeCardinality(n *document.Node, p *schema.Parameter, value, typeName, link string) {
	count := len(strings.Fields(value))
	if count == 0 {
		count = 1
	}
	violation := ""
	switch p.List {
	case schema.ListSingle:
		if p.Max != schema.Unbounded && count > p.Max {
			violation = "The attribute " + p.Name + " has too many values."
		}
		if count < p.Min {
			violation = "The attribute " + p.Name + " has too few values."
		}
	case schema.ListDouble:
		if p.Max != schema.Unbounded && p.Max2 != schema.Unbounded && count > p.Max*p.Max2 {
			violation = "The attribute " + p.Name + " has too many values."
		}
		if count < p.Min*p.Min2 {
			violation = "The attribute " + p.Name + " has too little values."
		} else if p.Max2 != schema.Unbounded && p.Min2 == p.Max2 && p.Min2 > 0 && count%p.Min2 != 0 {
			violation = "The number of values in the attribute is not correct (double list error)."
		}
	}
	if violation != "" {
		v.add(Finding{
			Line:          n.Line,
			ID:            n.ID(),
			Kind:          KindListSize,
			Message:       violation,
			EntityType:    typeName,
			AttributeType: p.Name,
			Link:          link,
			DocReference:  mustEntityRef(v.dict, typeName),
		})
	}
}

// checkRequiredChild validates that a required entity valued parameter is
// present, either inline or satisfied through an inbound reference under
// one of the entity's called-as aliases.
func (v *Validator) checkRequiredChild(n *document.Node, ent *schema.Entity, p *schema.Parameter, accepted []string, typeName, calledRole, link string) {
	if !p.Required || containsString(accepted, p.Name) {
		return
	}
	// The slot this element was reached through counts as filled.
	if p.Name == calledRole {
		return
	}
	for _, inbound := range v.doc.Inbound(n.ID()) {
		alias := ""
		if _, ok := ent.CalledRole(inbound.Tag); ok {
			alias = inbound.Tag
		} else if inbound.Parent != nil {
			if _, ok := ent.CalledRole(inbound.Parent.Tag); ok {
				alias = inbound.Parent.Tag
			}
		}
		if alias == "" {
			continue
		}
		if role, _ := ent.CalledRole(alias); role == p.Name {
			return
		}
	}
	v.add(Finding{
		Line:         n.Line,
		ID:           n.ID(),
		Kind:         KindMissing,
		Message:      "Required child " + p.Name + " does not exist.",
		EntityType:   typeName,
		Link:         link,
		DocReference: ent.Reference,
	})
}

// checkRules invokes the rules bound to the entity and to each of its
// supertypes. A rule that panics yields a code-exception finding rather
// than aborting the run.
func (v *Validator) checkRules(n *document.Node, ent *schema.Entity, typeName, calledRole, link string) {
	for _, rule := range ent.Rules {
		out := v.engine.Invoke(rule, n, typeName, calledRole)
		switch out.Status {
		case rules.Violated:
			v.add(Finding{
				Line:         n.Line,
				ID:           n.ID(),
				Kind:         KindRule,
				Message:      out.Message,
				RuleName:     rule,
				EntityType:   typeName,
				Link:         link,
				DocReference: ent.Reference,
			})
		case rules.Failed:
			v.add(Finding{
				Line:         n.Line,
				ID:           n.ID(),
				Kind:         KindRuleException,
				Message:      "Code Exception during rule checking. Probably an attribute or element is missing. Look at the other warnings/errors for possible causes. Error message: " + out.Err.Error(),
				RuleName:     rule,
				EntityType:   typeName,
				Link:         link,
				DocReference: ent.Reference,
			})
		}
	}

	for _, super := range ent.Supertypes {
		sup, ok := v.dict.Entity(super)
		if !ok {
			continue
		}
		superLink := docLink(sup.Reference, super)
		for _, rule := range sup.Rules {
			out := v.engine.Invoke(rule, n, super, calledRole)
			switch out.Status {
			case rules.Violated:
				v.add(Finding{
					Line:          n.Line,
					ID:            n.ID(),
					Kind:          KindParentRule,
					Message:       out.Message,
					RuleName:      rule,
					EntityType:    typeName,
					AttributeType: "SUPERTYPE: " + super,
					Link:          superLink,
					DocReference:  ent.Reference,
				})
			case rules.Failed:
				v.add(Finding{
					Line:          n.Line,
					ID:            n.ID(),
					Kind:          KindRuleException,
					Message:       "Code Exception during rule checking. Probably an attribute or element is missing. Look at the other warnings/errors  for possible causes. Error message: " + out.Err.Error(),
					RuleName:      rule,
					EntityType:    typeName,
					AttributeType: "SUPERTYPE: " + super,
					Link:          superLink,
					DocReference:  ent.Reference,
				})
			}
		}
	}
}

// recurse descends into the accepted children, resolving each child's
// effective entity type and checking child-element cardinality on the way.
func (v *Validator) recurse(n *document.Node, ent *schema.Entity, accepted map[string]bool, typeName, link string, depth int) {
	for _, child := range n.Children {
		if !accepted[child.Tag] {
			continue
		}
		if p, ok := ent.Parameter(child.Tag); ok {
			v.recurseParameter(n, child, p, link, ent.Reference, depth)
		} else if cp, ok := ent.CallingParameter(child.Tag); ok {
			v.recurseCallingParameter(n, child, cp, link, ent.Reference, depth)
		}
	}
}

func (v *Validator) recurseParameter(n, child *document.Node, p *schema.Parameter, link, docRef string, depth int) {
	effective := p.Type
	observed := ""
	if t := child.Type(); t != "" {
		observed = t
	} else if strings.HasPrefix(child.Tag, "Ifc") {
		observed = child.Tag
	}
	if observed != "" && observed != p.Type {
		if sub, ok := v.dict.Entity(observed); ok && containsString(sub.Supertypes, p.Type) {
			effective = observed
		} else {
			v.add(Finding{
				Line:         n.Line,
				ID:           n.ID(),
				Kind:         KindEntity,
				Message:      "Entity is using the wrong type.",
				EntityType:   p.Type,
				Link:         link,
				DocReference: docRef,
			})
		}
	}

	if p.List != schema.ListNone {
		count := len(child.Children)
		violation := ""
		switch p.List {
		case schema.ListSingle:
			if p.Max != schema.Unbounded && count > p.Max {
				violation = "The number of child elements is too big."
			}
			if count < p.Min {
				violation = "The number of child elements is too small."
			}
		case schema.ListDouble:
			if p.Max != schema.Unbounded && p.Max2 != schema.Unbounded && count > p.Max*p.Max2 {
				violation = "The number of child elements is too big."
			}
			if count < p.Min*p.Min2 {
				violation = "The number of child elements is too small."
			} else if p.Max2 != schema.Unbounded && p.Min2 == p.Max2 && p.Min2 > 0 && count%p.Min2 != 0 {
				violation = "The number of child elements is not correct (double list error)."
			}
		}
		if violation != "" {
			v.add(Finding{
				Line:         n.Line,
				ID:           n.ID(),
				Kind:         KindListSize,
				Message:      violation,
				EntityType:   effective,
				Link:         link,
				DocReference: docRef,
			})
		}
		for _, grand := range child.Children {
			v.checkNode(grand, grand.Tag, "", depth+1)
		}
		return
	}

	if p.Kind == schema.KindType {
		// Select holder: the chosen entity is the first child.
		if len(child.Children) > 0 {
			first := child.Children[0]
			v.checkNode(first, first.Tag, "", depth+1)
		}
		return
	}
	v.checkNode(child, effective, "", depth+1)
}

func (v *Validator) recurseCallingParameter(n, child *document.Node, cp *schema.CallingParameter, link, docRef string, depth int) {
	violation := ""
	if cp.Max == 1 {
		if !child.HasAttr(document.AttrID) && !child.HasAttr(document.AttrRef) && len(child.Children) > 1 {
			violation = "The number of child elements is too big."
		}
	} else if cp.Max != schema.Unbounded && len(child.Children) > cp.Max {
		violation = "The number of child elements is too big."
	}
	if len(child.Children) < cp.Min {
		violation = "The number of child elements is too small."
	}
	if violation != "" {
		v.add(Finding{
			Line:         child.Line,
			ID:           n.ID(),
			Kind:         KindListSize,
			Message:      violation,
			EntityType:   cp.Type,
			Link:         link,
			DocReference: docRef,
		})
	}

	if cp.Max != 1 {
		for _, grand := range child.Children {
			v.checkNode(grand, grand.Tag, cp.Role, depth+1)
		}
		return
	}
	v.checkNode(child, cp.Type, cp.Role, depth+1)
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// supertypeInList reports whether any supertype of the named entity
// appears in the list. Names without an entity definition have none.
func (v *Validator) supertypeInList(name string, list []string) bool {
	e, ok := v.dict.Entity(name)
	if !ok {
		return false
	}
	for _, s := range e.Supertypes {
		if containsString(list, s) {
			return true
		}
	}
	return false
}

func mustEntityRef(d *schema.Dict, name string) string {
	if e, ok := d.Entity(name); ok {
		return e.Reference
	}
	return ""
}
