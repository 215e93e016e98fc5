package typecheck

import (
	"fmt"

	errors "gopkg.in/src-d/go-errors.v1"

	"github.com/cube2222/partiplan/catalog"
	"github.com/cube2222/partiplan/diagnostics"
	"github.com/cube2222/partiplan/partiplan"
)

type Environment struct {
	Tables          catalog.Resolver
	Sink            diagnostics.Sink
	VariableContext *VariableContext
}

// Binding is a name bound by a plan node, with its static type.
type Binding struct {
	Name string
	Type partiplan.Type
}

// VariableContext is a chain of scopes, the innermost first.
type VariableContext struct {
	Parent    *VariableContext
	Variables []Binding
}

func (varCtx *VariableContext) WithVariables(variables []Binding) *VariableContext {
	return &VariableContext{
		Parent:    varCtx,
		Variables: variables,
	}
}

// Lookup finds the innermost variable with the given name.
func (varCtx *VariableContext) Lookup(name string) (partiplan.Type, bool) {
	for cur := varCtx; cur != nil; cur = cur.Parent {
		for i := len(cur.Variables) - 1; i >= 0; i-- {
			if cur.Variables[i].Name == name {
				return cur.Variables[i].Type, true
			}
		}
	}
	return partiplan.Type{}, false
}

func (env Environment) WithVariables(variables []Binding) Environment {
	newEnv := env
	newEnv.VariableContext = newEnv.VariableContext.WithVariables(variables)
	return newEnv
}

func (env Environment) resolveByID(id string) (catalog.Table, bool) {
	if env.Tables == nil {
		return catalog.Table{}, false
	}
	return env.Tables.ResolveByID(id)
}

func (env Environment) resolve(name string) (catalog.Table, bool) {
	if env.Tables == nil {
		return catalog.Table{}, false
	}
	return env.Tables.Resolve(name)
}

func (env Environment) report(location diagnostics.Location, kind *errors.Kind, operator string, operands []partiplan.Type, args ...interface{}) {
	if env.Sink == nil {
		return
	}
	env.Sink.Report(diagnostics.New(location, diagnostics.SeverityError, kind, operator, operands, args...))
}

// SlotVariable is the name under which the result of an aggregate or window call is visible.
func SlotVariable(slot int) string {
	return fmt.Sprintf("$%d", slot)
}
