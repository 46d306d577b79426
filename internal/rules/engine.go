// Package rules implements the formal propositions of the entity
// dictionary. Rules are looked up by the name bound in the dictionary and
// run against the parsed instance tree.
package rules

import (
	"fmt"

	"github.com/ifc-community/ifcxml-checker/internal/document"
	"github.com/ifc-community/ifcxml-checker/internal/schema"
)

// Func is a single rule. It receives the element under check, its
// effective entity type and, when the rule fires through an inbound
// reference, the declared attribute the reference stands for. A non-empty
// return value is the violation message.
type Func func(e *Engine, n *document.Node, typeName, calledRole string) string

// Status classifies the outcome of a rule invocation.
type Status int

const (
	Satisfied Status = iota
	Violated
	NotImplemented
	Failed
)

// Outcome is the result of invoking one rule.
type Outcome struct {
	Status  Status
	Message string
	Err     error
}

// Engine runs dictionary rules against one document. The registry is
// explicit: a rule name without a registered function yields
// NotImplemented rather than an error.
type Engine struct {
	doc      *document.Document
	dict     *schema.Dict
	registry map[string]Func
}

func NewEngine(doc *document.Document, dict *schema.Dict) *Engine {
	e := &Engine{
		doc:      doc,
		dict:     dict,
		registry: make(map[string]Func),
	}
	registerBuiltins(e)
	return e
}

// Register binds a rule function to a dictionary rule name, replacing any
// previous binding.
func (e *Engine) Register(name string, fn Func) {
	e.registry[name] = fn
}

// Has reports whether a rule function is registered under the given name.
func (e *Engine) Has(name string) bool {
	_, ok := e.registry[name]
	return ok
}

// Invoke runs the named rule. Rules assume well-formed input beyond what
// they explicitly guard; a panic inside a rule body is reported as a
// failed invocation instead of aborting the validation run.
func (e *Engine) Invoke(name string, n *document.Node, typeName, calledRole string) (out Outcome) {
	fn, ok := e.registry[name]
	if !ok {
		return Outcome{Status: NotImplemented}
	}
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Status: Failed, Err: fmt.Errorf("rule %s: %v", name, r)}
		}
	}()
	if msg := fn(e, n, typeName, calledRole); msg != "" {
		return Outcome{Status: Violated, Message: msg}
	}
	return Outcome{Status: Satisfied}
}
