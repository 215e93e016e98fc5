package diagnostics

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	errors "gopkg.in/src-d/go-errors.v1"

	"github.com/cube2222/partiplan/partiplan"
)

var (
	// ErrIncompatibleArithmetic is reported when a binary arithmetic operator can't be applied to its operands.
	ErrIncompatibleArithmetic = errors.NewKind("operator %s can't be applied to %s and %s")
	// ErrIncompatibleUnary is reported when a unary arithmetic operator can't be applied to its operand.
	ErrIncompatibleUnary = errors.NewKind("unary operator %s can't be applied to %s")
	// ErrInvalidOperand is reported when a non-arithmetic operator doesn't accept an operand's type.
	ErrInvalidOperand = errors.NewKind("operator %s can't be applied to %s")
	// ErrIncompatibleComparison is reported when two operands of a comparison have no common type.
	ErrIncompatibleComparison = errors.NewKind("operator %s can't compare %s with %s")
	// ErrInvalidCast is reported when an explicit cast can never succeed.
	ErrInvalidCast = errors.NewKind("can't cast %s to %s")
	// ErrNonBooleanPredicate is reported when a filter or join condition isn't boolean.
	ErrNonBooleanPredicate = errors.NewKind("%s predicate must be bool, got %s")
	// ErrUnknownTable is reported when the catalog doesn't know a table.
	ErrUnknownTable = errors.NewKind("unknown table %q")
	// ErrUnknownVariable is reported for references to variables not bound in scope.
	ErrUnknownVariable = errors.NewKind("unknown variable %q")
	// ErrUnknownField is reported for path steps into a type not having the field.
	ErrUnknownField = errors.NewKind("type %s has no field %q")
)

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	}
	return "unknown"
}

// Location is a position in the query text. The zero value means unknown.
type Location struct {
	Line, Column int
}

func (l Location) Known() bool {
	return l.Line > 0
}

func (l Location) String() string {
	if !l.Known() {
		return "?:?"
	}
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Diagnostic is a problem found while typing or rewriting a plan.
// It carries the structured context, rendering a message is left to the host.
type Diagnostic struct {
	Location Location
	Severity Severity
	Kind     *errors.Kind
	Err      *errors.Error
	// Operator is the operator or construct the problem is about, if any.
	Operator string
	Operands []partiplan.Type
}

// New creates a diagnostic of the given kind. Arguments are the kind's format arguments.
func New(location Location, severity Severity, kind *errors.Kind, operator string, operands []partiplan.Type, args ...interface{}) Diagnostic {
	return Diagnostic{
		Location: location,
		Severity: severity,
		Kind:     kind,
		Err:      kind.New(args...),
		Operator: operator,
		Operands: operands,
	}
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Location, d.Severity, d.Err.Error())
}

// Sink receives diagnostics. Implementations should not block.
type Sink interface {
	Report(diagnostic Diagnostic)
}

type SinkFunc func(diagnostic Diagnostic)

func (f SinkFunc) Report(diagnostic Diagnostic) {
	f(diagnostic)
}

// Discard drops all diagnostics.
var Discard Sink = SinkFunc(func(Diagnostic) {})

// Collector accumulates diagnostics, it's safe for concurrent use.
type Collector struct {
	mu          sync.Mutex
	diagnostics []Diagnostic
}

func (c *Collector) Report(diagnostic Diagnostic) {
	c.mu.Lock()
	c.diagnostics = append(c.diagnostics, diagnostic)
	c.mu.Unlock()
}

func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.diagnostics))
	copy(out, c.diagnostics)
	return out
}

func (c *Collector) HasErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.diagnostics {
		if c.diagnostics[i].Severity == SeverityError {
			return true
		}
	}
	return false
}

func (c *Collector) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines := make([]string, len(c.diagnostics))
	for i := range c.diagnostics {
		lines[i] = c.diagnostics[i].String()
	}
	return strings.Join(lines, "\n")
}

// LoggingSink logs every diagnostic, forwarding it to Next if set.
type LoggingSink struct {
	Log  *logrus.Entry
	Next Sink
}

func (s *LoggingSink) Report(diagnostic Diagnostic) {
	operands := make([]string, len(diagnostic.Operands))
	for i := range diagnostic.Operands {
		operands[i] = diagnostic.Operands[i].String()
	}
	entry := s.Log.WithFields(logrus.Fields{
		"location": diagnostic.Location.String(),
		"operator": diagnostic.Operator,
		"operands": strings.Join(operands, ", "),
	})
	switch diagnostic.Severity {
	case SeverityError:
		entry.Error(diagnostic.Err.Error())
	default:
		entry.Warn(diagnostic.Err.Error())
	}
	if s.Next != nil {
		s.Next.Report(diagnostic)
	}
}
