package validator

// Finding kinds. The strings are part of the report format.
const (
	KindReference        = "Reference"
	KindUnknownChild     = "Unknown child"
	KindUnknownAttribute = "Unknown attribute"
	KindListSize         = "List size violation"
	KindMissing          = "Missing Information"
	KindType             = "Type"
	KindRule             = "Rule violation"
	KindParentRule       = "Parent Rule violation"
	KindEntity           = "Entity"
	KindRuleException    = "Code Exception (rule checking)"
	KindDuplicateID      = "ID"
	KindDictionaryGap    = "Dictionary gap"
	KindRecursionLimit   = "Recursion limit"
)

// Finding is one reported nonconformance. Findings accumulate in
// tree-visitation order and are never retracted.
type Finding struct {
	Line          int
	Lines         []int // set instead of Line for duplicate-id findings
	ID            string
	Kind          string
	Message       string
	RuleName      string
	EntityType    string
	AttributeType string
	Link          string
	DocReference  string
}
