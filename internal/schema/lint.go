package schema

import (
	_ "embed"
	"fmt"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed dictionary.cue
var dictionarySchema string

// Lint checks a built dictionary before it is used or cached. The shape of
// every definition is verified by unifying the dictionary with the embedded
// CUE schema; dangling names (parameter types, supertypes, calling types)
// are checked separately since CUE cannot follow them.
func Lint(d *Dict) []string {
	var problems []string

	ctx := cuecontext.New()
	schemaVal := ctx.CompileString(dictionarySchema)
	if err := schemaVal.Err(); err != nil {
		return []string{fmt.Sprintf("internal dictionary schema error: %v", err)}
	}
	def := schemaVal.LookupPath(cue.ParsePath("#Dictionary"))
	res := def.Unify(ctx.Encode(d))
	if err := res.Validate(cue.Concrete(true)); err != nil {
		for _, e := range cueerrors.Errors(err) {
			problems = append(problems, e.Error())
		}
	}

	names := make([]string, 0, len(d.Entities))
	for name := range d.Entities {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		e := d.Entities[name]
		for _, p := range e.Parameters {
			if !d.resolvable(p.Type) {
				problems = append(problems,
					fmt.Sprintf("%s: parameter %s declares unknown type %s", name, p.Name, p.Type))
			}
		}
		for _, cp := range e.CallingParameters {
			if !d.resolvable(cp.Type) {
				problems = append(problems,
					fmt.Sprintf("%s: calling parameter %s declares unknown type %s", name, cp.Name, cp.Type))
			}
		}
		for _, s := range e.Supertypes {
			if _, ok := d.Entities[s]; !ok {
				problems = append(problems,
					fmt.Sprintf("%s: unknown supertype %s", name, s))
			}
		}
	}

	return problems
}

// resolvable reports whether a declared type name is defined as an entity
// or a primitive type.
func (d *Dict) resolvable(name string) bool {
	if name == "" {
		return false
	}
	if _, ok := d.Entities[name]; ok {
		return true
	}
	_, ok := d.Types[name]
	return ok
}
