// Package typecheck validates attribute values against the primitive type
// dictionary. Every check is value-level: cardinality and structure are the
// caller's concern.
package typecheck

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ifc-community/ifcxml-checker/internal/schema"
)

// Result is the outcome of a single value check. A failed check may carry
// its own message; without one the caller supplies the generic wording.
type Result struct {
	OK      bool
	Message string
}

func pass() Result              { return Result{OK: true} }
func fail() Result              { return Result{} }
func failMsg(msg string) Result { return Result{Message: msg} }

// Checker checks values against the primitive type dictionary.
type Checker struct {
	types map[string]*schema.TypeDef
}

func NewChecker(d *schema.Dict) *Checker {
	return &Checker{types: d.Types}
}

// Check validates a raw attribute value against the named type. For list
// parameters a space separated value is split and each element checked on
// its own; the first failing element decides the result.
func (c *Checker) Check(value, typename string, list schema.ListKind) Result {
	def, ok := c.types[typename]
	if !ok {
		return failMsg("The typename is not in dictionary")
	}
	if def.Kind == schema.Sequence {
		return checkSequence(value, typename)
	}

	var values []string
	if list != schema.ListNone && strings.Contains(value, " ") {
		values = strings.Fields(value)
		if len(values) == 0 {
			values = []string{value}
		}
	} else {
		values = []string{value}
	}

	for _, val := range values {
		var res Result
		switch def.Kind {
		case schema.Enumeration, schema.Choice:
			if !containsFold(def.Items, val) {
				res = fail()
			} else {
				res = pass()
			}
		case schema.Measure:
			res = checkMeasure(val, def)
		case schema.MinMax:
			res = checkRange(val, def, false)
		case schema.ExclusiveMinMax:
			res = checkRange(val, def, true)
		case schema.Common:
			res = checkCommon(val, typename)
		case schema.Other:
			res = checkOther(val, typename)
		case schema.Select:
			res = failMsg("type_type is select?")
		default:
			res = failMsg("Unknown file_type: " + typename + ", " + def.Kind.String() + ", " + val)
		}
		if !res.OK {
			return res
		}
	}
	return pass()
}

func containsFold(items []string, val string) bool {
	for _, item := range items {
		if strings.EqualFold(item, val) {
			return true
		}
	}
	return false
}

func parseInt(s string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	return v, err == nil
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil
}

// checkMeasure validates against the base representation named by the last
// entry of the type's definition list.
func checkMeasure(val string, def *schema.TypeDef) Result {
	if len(def.Items) == 0 {
		return failMsg("Measure type has not been found")
	}
	switch def.Items[len(def.Items)-1] {
	case "REAL":
		if _, ok := parseFloat(val); !ok {
			return fail()
		}
	case "STRING":
		// Any text is a valid string measure.
	case "NUMBER":
		if _, ok := parseFloat(val); !ok {
			return fail()
		}
	default:
		return failMsg("Measure type has not been found")
	}
	return pass()
}

// checkRange validates a bounded real. The lower bound is exclusive for
// exclusive ranges; the upper bound is always inclusive. A "..." upper
// bound means unbounded.
func checkRange(val string, def *schema.TypeDef, exclusiveMin bool) Result {
	v, ok := parseFloat(val)
	if !ok {
		return fail()
	}
	if len(def.Items) == 0 {
		return fail()
	}
	min, ok := parseFloat(def.Items[0])
	if !ok {
		return fail()
	}
	if exclusiveMin {
		if min >= v {
			return fail()
		}
	} else if min > v {
		return fail()
	}
	if max := def.Items[len(def.Items)-1]; max != "..." {
		m, ok := parseFloat(max)
		if !ok {
			return fail()
		}
		if v > m {
			return fail()
		}
	}
	return pass()
}

var booleanLiterals = []string{"y", "yes", "t", "true", "on", "1", "n", "no", "f", "false", "off", "0"}

func checkCommon(val, typename string) Result {
	switch typename {
	case "IfcBinary":
		for i := 0; i < len(val); i++ {
			if val[i] != '0' && val[i] != '1' {
				return fail()
			}
		}
	case "IfcBoolean":
		if !containsFold(booleanLiterals, val) {
			return fail()
		}
	case "IfcGloballyUniqueId":
		if len(val) > 22 {
			return fail()
		}
	case "IfcIdentifier", "IfcLabel":
		if len(val) > 255 {
			return fail()
		}
	case "IfcInteger", "IfcTimeStamp":
		if _, ok := parseInt(val); !ok {
			return fail()
		}
	case "IfcLogical":
		if !containsFold([]string{"TRUE", "FALSE", "UNKNOWN"}, val) {
			return fail()
		}
	case "IfcNumericMeasure", "IfcReal", "IfcParameterValue":
		if _, ok := parseFloat(val); !ok {
			return fail()
		}
	case "IfcPositiveInteger":
		v, ok := parseInt(val)
		if !ok || v <= 0 {
			return fail()
		}
	case "IfcText":
		// Unrestricted text.
	default:
		return failMsg("The typename is not in dictionary")
	}
	return pass()
}

func checkOther(val, typename string) Result {
	switch typename {
	case "IfcDate":
		if _, err := time.Parse("2006-01-02", val); err != nil {
			return fail()
		}
	case "IfcDateTime":
		if _, err := time.Parse("2006-01-02T15:04:05", val); err != nil {
			return fail()
		}
	case "IfcDuration":
		if !validDuration(val) {
			return fail()
		}
	case "IfcTime":
		if _, err := time.Parse("15:04:05", val); err != nil {
			return fail()
		}
	case "IfcTimeStamp":
		if _, ok := parseInt(val); !ok {
			return fail()
		}
	case "IfcURIReference":
		if _, err := url.Parse(val); err != nil {
			return fail()
		}
	case "IfcPresentableText":
		// Unrestricted text.
	default:
		return failMsg("The typename is not in dictionary")
	}
	return pass()
}

// validDuration checks an ISO 8601 duration of the form
// P[nY][nM][nD][T[nH][nM][nS]] with at least one component present.
func validDuration(s string) bool {
	if !strings.HasPrefix(s, "P") {
		return false
	}
	rest := s[1:]
	if rest == "" {
		return false
	}
	rest = eatComponent(rest, 'Y')
	rest = eatComponent(rest, 'M')
	rest = eatComponent(rest, 'D')
	if strings.HasPrefix(rest, "T") {
		t := rest[1:]
		if t == "" || t[0] < '0' || t[0] > '9' {
			return false
		}
		t = eatComponent(t, 'H')
		t = eatComponent(t, 'M')
		t = eatComponent(t, 'S')
		return t == ""
	}
	return rest == ""
}

// eatComponent strips a leading digit run followed by the unit letter,
// leaving the input untouched when the component is absent.
func eatComponent(s string, unit byte) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i < len(s) && s[i] == unit {
		return s[i+1:]
	}
	return s
}

// checkSequence validates the whitespace separated aggregate types that
// carry cross-slot constraints.
func checkSequence(value, typename string) Result {
	values := strings.Fields(value)
	if len(values) == 0 {
		values = []string{value}
	}

	switch typename {
	case "IfcArcIndex":
		if len(values) != 3 {
			return fail()
		}
		return nonNegativeInts(values)
	case "IfcLineIndex":
		if len(values) < 2 {
			return fail()
		}
		return nonNegativeInts(values)
	case "IfcPropertySetDefinitionSet":
		return pass()
	case "IfcComplexNumber":
		if len(values) > 2 {
			return fail()
		}
		for _, v := range values {
			if _, ok := parseFloat(v); !ok {
				return fail()
			}
		}
		return pass()
	case "IfcCompoundPlaneAngleMeasure":
		return checkCompoundAngle(values)
	}
	return failMsg("The typename is not in dictionary")
}

func nonNegativeInts(values []string) Result {
	for _, v := range values {
		n, ok := parseInt(v)
		if !ok || n < 0 {
			return fail()
		}
	}
	return pass()
}

// checkCompoundAngle validates degree/minute/second(/millionth-second)
// compounds. All slots must share the same sign.
func checkCompoundAngle(values []string) Result {
	if len(values) != 3 && len(values) != 4 {
		return fail()
	}
	ints := make([]int, 0, len(values))
	ok := true
	for i, v := range values {
		n, isInt := parseInt(v)
		if !isInt {
			ok = false
			continue
		}
		ints = append(ints, n)
		switch i {
		case 1, 2:
			if n <= -60 || n >= 60 {
				ok = false
			}
		case 3:
			if n <= -1000000 || n >= 1000000 {
				ok = false
			}
		}
	}
	if !ok {
		return fail()
	}
	positive, negative := true, true
	for _, n := range ints {
		if n < 0 {
			positive = false
		} else if n > 0 {
			negative = false
		}
	}
	if !positive && !negative {
		return failMsg("Not all values have the same sign")
	}
	return pass()
}
