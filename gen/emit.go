package gen

import (
	"bytes"
	"fmt"
	"go/format"
	"strings"
	"text/template"
	"unicode"

	"go.uber.org/zap"

	"github.com/camlgate/camlgate/errors"
)

// maxBlockTags is the number of constructor tags the block header can
// discriminate.
const maxBlockTags = 256

// Options configure generation.
type Options struct {
	// Package is the output package name.
	Package string
}

type genArg struct {
	Field     string // arg0
	CellField string // Arg0
	Type      string // bindings.Int, Tree[A], list.List[bindings.Int]
}

type genCtor struct {
	Name        string // CircleBig for a source Circle_big
	BuilderName string // circleBigBuilder
	Cell        string // CircleBigCell, empty for unboxed constructors
	Tag         int
	Args        []genArg
}

// ArgDecls renders the builder function's parameter list.
func (c genCtor) ArgDecls() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = fmt.Sprintf("%s mem.Builder[%s]", a.Field, a.Type)
	}
	return strings.Join(parts, ", ")
}

// ArgInit renders the builder struct literal's field assignments.
func (c genCtor) ArgInit() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = fmt.Sprintf("%s: %s", a.Field, a.Field)
	}
	return strings.Join(parts, ", ")
}

// RootedArgs renders the names passed to Alloc after rooting.
func (c genCtor) RootedArgs() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.Field
	}
	return strings.Join(parts, ", ")
}

type genDecl struct {
	SourceName string // shape
	GoName     string // Shape
	ParamsDecl string // [A any, B any], empty when not generic
	ParamsUse  string // [A, B], empty when not generic
	TypeUse    string // Shape[A, B] or Shape
	Inline     []genCtor
	Block      []genCtor
}

type genFile struct {
	Package string
	Imports []string
	Decls   []genDecl
}

type generator struct {
	byName  map[string]*genDecl
	imports struct {
		roots    bool
		bindings bool
		list     bool
		option   bool
	}
	names map[string]string // emitted top-level name -> owning declaration
}

// Generate renders Go bindings for the parsed declarations: tag constants,
// one builder per constructor, one cell struct and accessor per payload
// constructor, and a Match shorthand per type. The output is gofmt-shaped.
func Generate(decls []Decl, opts Options) ([]byte, error) {
	if opts.Package == "" {
		return nil, errors.InvalidInput(errors.PhaseGenerate, "output package name is empty")
	}
	if len(decls) == 0 {
		return nil, errors.InvalidInput(errors.PhaseGenerate, "no declarations to generate")
	}

	g := &generator{
		byName: make(map[string]*genDecl, len(decls)),
		names:  make(map[string]string),
	}
	out := make([]genDecl, len(decls))
	for i, d := range decls {
		out[i] = genDecl{SourceName: d.Name, GoName: goName(d.Name)}
		g.byName[d.Name] = &out[i]
	}

	for i, d := range decls {
		if err := g.fill(&out[i], d); err != nil {
			return nil, err
		}
	}

	file := genFile{
		Package: opts.Package,
		Imports: g.importPaths(),
		Decls:   out,
	}
	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, file); err != nil {
		return nil, errors.New(errors.PhaseGenerate, errors.KindInvalidData).
			Detail("render bindings").
			Cause(err).
			Build()
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, errors.New(errors.PhaseGenerate, errors.KindInvalidData).
			Detail("format generated bindings").
			Cause(err).
			Build()
	}
	Logger().Debug("generate",
		zap.Int("decls", len(decls)),
		zap.String("package", opts.Package),
		zap.Int("bytes", len(src)))
	return src, nil
}

func (g *generator) fill(out *genDecl, d Decl) error {
	params := make([]string, len(d.Params))
	paramMap := make(map[string]string, len(d.Params))
	for i, p := range d.Params {
		params[i] = goName(p)
		paramMap[p] = params[i]
	}
	if len(params) > 0 {
		decl := make([]string, len(params))
		for i, p := range params {
			decl[i] = p + " any"
		}
		out.ParamsDecl = "[" + strings.Join(decl, ", ") + "]"
		out.ParamsUse = "[" + strings.Join(params, ", ") + "]"
	}
	out.TypeUse = out.GoName + out.ParamsUse

	if err := g.claim(d.Name, d.Pos, out.GoName, out.GoName+"Inline", out.GoName+"Block", "Match"+out.GoName); err != nil {
		return err
	}

	for _, c := range d.Ctors {
		name := goName(c.Name)
		gc := genCtor{
			Name:        name,
			BuilderName: lowerFirst(name) + "Builder",
		}
		claims := []string{name, name + "Tag", gc.BuilderName}
		if len(c.Args) == 0 {
			gc.Tag = len(out.Inline)
			claims = append(claims, "Is"+name)
		} else {
			gc.Tag = len(out.Block)
			gc.Cell = name + "Cell"
			claims = append(claims, gc.Cell, "As"+name)
			for i, a := range c.Args {
				gc.Args = append(gc.Args, genArg{
					Field:     fmt.Sprintf("arg%d", i),
					CellField: fmt.Sprintf("Arg%d", i),
					Type:      g.goType(a, paramMap),
				})
			}
		}
		if err := g.claim(d.Name, c.Pos, claims...); err != nil {
			return err
		}
		if len(c.Args) == 0 {
			out.Inline = append(out.Inline, gc)
		} else {
			out.Block = append(out.Block, gc)
		}
	}

	if len(out.Block) > maxBlockTags {
		return errors.TagOverflow(d.Name, "block", len(out.Block), maxBlockTags)
	}
	if len(out.Block) > 0 {
		g.imports.roots = true
	}
	return nil
}

// claim reserves emitted top-level names; every constructor becomes several
// package-scope declarations, so collisions across types are build breaks.
func (g *generator) claim(decl string, pos errors.Pos, names ...string) error {
	for _, n := range names {
		if owner, dup := g.names[n]; dup {
			return errors.New(errors.PhaseGenerate, errors.KindUnsupported).
				Decl(decl).
				Construct(n).
				Pos(pos.Line, pos.Col).
				Detail("generated name %q collides with one from type %q", n, owner).
				Build()
		}
		g.names[n] = decl
	}
	return nil
}

func (g *generator) goType(te TypeExpr, params map[string]string) string {
	if te.IsVar {
		return params[te.Name]
	}
	switch te.Name {
	case "int":
		g.imports.bindings = true
		return "bindings.Int"
	case "bool":
		g.imports.bindings = true
		return "bindings.Bool"
	case "unit":
		g.imports.bindings = true
		return "bindings.Unit"
	case "list":
		g.imports.list = true
		return "list.List[" + g.goType(te.Args[0], params) + "]"
	case "option":
		g.imports.option = true
		return "option.Option[" + g.goType(te.Args[0], params) + "]"
	}

	target := g.byName[te.Name]
	if len(te.Args) == 0 {
		return target.GoName
	}
	parts := make([]string, len(te.Args))
	for i, a := range te.Args {
		parts[i] = g.goType(a, params)
	}
	return target.GoName + "[" + strings.Join(parts, ", ") + "]"
}

func (g *generator) importPaths() []string {
	paths := []string{
		"github.com/camlgate/camlgate",
		"github.com/camlgate/camlgate/match",
		"github.com/camlgate/camlgate/mem",
	}
	if g.imports.roots {
		paths = append(paths, "github.com/camlgate/camlgate/roots")
	}
	if g.imports.bindings {
		paths = append(paths, "github.com/camlgate/camlgate/bindings")
	}
	if g.imports.list {
		paths = append(paths, "github.com/camlgate/camlgate/bindings/list")
	}
	if g.imports.option {
		paths = append(paths, "github.com/camlgate/camlgate/bindings/option")
	}
	return paths
}

// goName maps a source identifier to an exported Go name: first rune and
// every rune after an underscore are upcased, underscores drop.
func goName(s string) string {
	var b strings.Builder
	up := true
	for _, r := range s {
		if r == '_' || r == '\'' {
			up = true
			continue
		}
		if up {
			r = unicode.ToUpper(r)
			up = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func lowerFirst(s string) string {
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

var fileTemplate = template.Must(template.New("bindings").Parse(`// Code generated by camlgen. DO NOT EDIT.

package {{.Package}}

import (
{{- range .Imports}}
	"{{.}}"
{{- end}}
)
{{range $d := .Decls}}
// {{$d.GoName}} is the phantom type of {{$d.SourceName}} values.
type {{$d.GoName}}{{$d.ParamsDecl}} struct{}

// {{$d.GoName}}Inline is {{$d.SourceName}}'s unboxed constructor tag type.
type {{$d.GoName}}Inline int

// {{$d.GoName}}Block is {{$d.SourceName}}'s boxed constructor tag type.
type {{$d.GoName}}Block uint8
{{- if $d.Inline}}

// Unboxed {{$d.SourceName}} constructors, in declaration order.
const (
{{- range $c := $d.Inline}}
	{{$c.Name}}Tag {{$d.GoName}}Inline = {{$c.Tag}}
{{- end}}
)
{{- end}}
{{- if $d.Block}}

// Boxed {{$d.SourceName}} constructors, in declaration order.
const (
{{- range $c := $d.Block}}
	{{$c.Name}}Tag {{$d.GoName}}Block = {{$c.Tag}}
{{- end}}
)
{{- end}}

// Match{{$d.GoName}} decodes one level of a {{$d.SourceName}} value.
func Match{{$d.GoName}}(v camlgate.Value) match.View[{{$d.GoName}}Inline, {{$d.GoName}}Block, struct{}] {
	return match.Of[{{$d.GoName}}Inline, {{$d.GoName}}Block, struct{}](v)
}
{{- range $c := $d.Inline}}

// {{$c.Name}} describes the {{$c.Name}} case.
func {{$c.Name}}{{$d.ParamsDecl}}() mem.Builder[{{$d.TypeUse}}] {
	return {{$c.BuilderName}}{{$d.ParamsUse}}{}
}

// Is{{$c.Name}} reports whether v is the {{$c.Name}} case.
func Is{{$c.Name}}(v camlgate.Value) bool {
	return v == camlgate.FromInt(int({{$c.Name}}Tag))
}

type {{$c.BuilderName}}{{$d.ParamsDecl}} struct{}

func ({{$c.BuilderName}}{{$d.ParamsUse}}) Build(gc *mem.GC) mem.Ref[{{$d.TypeUse}}] {
	return mem.AsRef[{{$d.TypeUse}}](camlgate.FromInt(int({{$c.Name}}Tag)))
}
{{- end}}
{{- range $c := $d.Block}}

// {{$c.Cell}} is the field layout of a {{$c.Name}} block.
type {{$c.Cell}} struct {
{{- range $a := $c.Args}}
	{{$a.CellField}} camlgate.Value
{{- end}}
}

// {{$c.Name}} describes a {{$c.Name}} block holding its payload.
func {{$c.Name}}{{$d.ParamsDecl}}({{$c.ArgDecls}}) mem.Builder[{{$d.TypeUse}}] {
	return {{$c.BuilderName}}{{$d.ParamsUse}}{ {{$c.ArgInit}} }
}

// As{{$c.Name}} returns the payload cell when v is a {{$c.Name}} block.
func As{{$c.Name}}(v camlgate.Value) (*{{$c.Cell}}, bool) {
	m := match.Of[{{$d.GoName}}Inline, {{$d.GoName}}Block, {{$c.Cell}}](v)
	if m.Kind() != match.KindBlock {
		return nil, false
	}
	tag, cell := m.Block()
	if tag != {{$c.Name}}Tag {
		return nil, false
	}
	return cell, true
}

type {{$c.BuilderName}}{{$d.ParamsDecl}} struct {
{{- range $a := $c.Args}}
	{{$a.Field}} mem.Builder[{{$a.Type}}]
{{- end}}
}

func (b {{$c.BuilderName}}{{$d.ParamsUse}}) Build(gc *mem.GC) mem.Ref[{{$d.TypeUse}}] {
	s := roots.NewScope()
	defer s.Close()
{{- range $a := $c.Args}}
	{{$a.Field}} := mem.Rooted(gc, s, b.{{$a.Field}})
{{- end}}
	return mem.AsRef[{{$d.TypeUse}}](gc.Alloc(uint8({{$c.Name}}Tag), {{$c.RootedArgs}}))
}
{{- end}}
{{end}}`))
