package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseParse    Phase = "parse"    // variant declaration parsing
	PhaseGenerate Phase = "generate" // bindings generation
	PhaseLoad     Phase = "load"     // collector module loading
	PhaseCall     Phase = "call"     // foreign calls into the collector
	PhaseSnapshot Phase = "snapshot" // heap snapshot encode/decode
	PhaseConfig   Phase = "config"   // tool configuration
)

// Kind categorizes the error
type Kind string

const (
	KindSyntax        Kind = "syntax"
	KindUnsupported   Kind = "unsupported"
	KindDuplicate     Kind = "duplicate"
	KindOverflow      Kind = "overflow"
	KindMissingExport Kind = "missing_export"
	KindInstantiation Kind = "instantiation"
	KindTrap          Kind = "trap"
	KindInvalidData   Kind = "invalid_data"
	KindNotFound      Kind = "not_found"
	KindInvalidInput  Kind = "invalid_input"
)

// Pos is a 1-based position in a variant declaration source.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Error is the structured error type used throughout the library
type Error struct {
	Value     any
	Cause     error
	Phase     Phase
	Kind      Kind
	Decl      string // enclosing type declaration, if any
	Construct string // offending construct, if any
	Detail    string
	Pos       Pos // zero when no source position applies
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Decl != "" {
		b.WriteString(" in ")
		b.WriteString(e.Decl)
	}
	if e.Pos != (Pos{}) {
		b.WriteString(" at ")
		b.WriteString(e.Pos.String())
	}

	if e.Construct != "" {
		b.WriteString(": ")
		b.WriteString(e.Construct)
	}

	if e.Detail != "" {
		if e.Construct != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Decl sets the enclosing type declaration name
func (b *Builder) Decl(name string) *Builder {
	b.err.Decl = name
	return b
}

// Construct sets the offending construct
func (b *Builder) Construct(c string) *Builder {
	b.err.Construct = c
	return b
}

// Pos sets the source position
func (b *Builder) Pos(line, col int) *Builder {
	b.err.Pos = Pos{Line: line, Col: col}
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Syntax creates a parse syntax error
func Syntax(decl string, pos Pos, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindSyntax,
		Decl:   decl,
		Pos:    pos,
		Detail: detail,
	}
}

// UnsupportedConstruct rejects a declaration shape the generator cannot
// soundly emit bindings for
func UnsupportedConstruct(decl, construct string, pos Pos, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:     PhaseParse,
		Kind:      KindUnsupported,
		Decl:      decl,
		Construct: construct,
		Pos:       pos,
		Detail:    detail,
	}
}

// DuplicateConstructor creates a duplicate constructor name error
func DuplicateConstructor(decl, ctor string, pos Pos) *Error {
	return &Error{
		Phase:     PhaseParse,
		Kind:      KindDuplicate,
		Decl:      decl,
		Construct: ctor,
		Pos:       pos,
		Detail:    fmt.Sprintf("constructor %q declared twice", ctor),
	}
}

// TagOverflow reports a declaration with more constructors than the tag
// space can discriminate
func TagOverflow(decl string, kind string, count, max int) *Error {
	return &Error{
		Phase:  PhaseGenerate,
		Kind:   KindOverflow,
		Decl:   decl,
		Detail: fmt.Sprintf("%d %s constructors exceed the %d-tag limit", count, kind, max),
	}
}

// MissingExport creates an error for a collector module lacking a required export
func MissingExport(name string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindMissingExport,
		Detail: fmt.Sprintf("collector module does not export %q", name),
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInstantiation,
		Detail: "instantiate collector module",
		Cause:  cause,
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// Trap wraps a fault raised by the collector during a foreign call
func Trap(export string, cause error) *Error {
	return &Error{
		Phase:     PhaseCall,
		Kind:      KindTrap,
		Construct: export,
		Detail:    "collector trapped",
		Cause:     cause,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// InvalidSnapshot creates a snapshot decode error
func InvalidSnapshot(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseSnapshot,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}
