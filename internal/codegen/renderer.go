package codegen

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"
	"unicode"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templateFiles = map[Kind]string{
	KindForm:   "form.tsx.tmpl",
	KindSearch: "search.tsx.tmpl",
	KindPage:   "page.tsx.tmpl",
}

// Renderer turns Components into source text. It is safe for concurrent use.
type Renderer struct {
	templates map[Kind]*template.Template
}

// NewRenderer parses every embedded template.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[Kind]*template.Template, len(templateFiles))}
	for kind, name := range templateFiles {
		data, err := templateFS.ReadFile("templates/" + name)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", name, err)
		}
		tmpl, err := template.New(name).Funcs(funcMap()).Parse(string(data))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		r.templates[kind] = tmpl
	}
	return r, nil
}

// MustRenderer is NewRenderer for package-level wiring; the templates are
// embedded, so a failure is a programming error.
func MustRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

// Render executes the template for c.Kind.
func (r *Renderer) Render(c Component) (string, error) {
	tmpl, ok := r.templates[c.Kind]
	if !ok {
		return "", fmt.Errorf("no template for component kind %q", c.Kind)
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, c); err != nil {
		return "", fmt.Errorf("executing %s template for %s: %w", c.Kind, c.Name, err)
	}
	return buf.String(), nil
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"camel":       lowerFirst,
		"comment":     lineComment,
		"key":         objectKey,
		"quote":       jsString,
		"text":        jsxText,
		"validator":   validatorExpr,
		"control":     controlMarkup,
		"regionClass": regionClass,
		"timestamp":   func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
	}
}

// jsString renders s as a double-quoted string literal valid in TS and JSX
// attribute position.
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}

func objectKey(s string) string {
	if isIdentifier(s) {
		return s
	}
	return jsString(s)
}

var jsxEscaper = strings.NewReplacer(
	"{", "&#123;",
	"}", "&#125;",
	"<", "&lt;",
	">", "&gt;",
)

// jsxText escapes s for use as JSX child text.
func jsxText(s string) string {
	return jsxEscaper.Replace(s)
}

// lineComment keeps s on one line so it cannot end a // comment early.
func lineComment(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\u2028', '\u2029':
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

func validatorExpr(f Field) string {
	var expr string
	switch f.Validator {
	case ValidatorNumber:
		expr = "z.number()"
	case ValidatorBoolean:
		expr = "z.boolean()"
	case ValidatorEmail:
		expr = "z.string().email()"
	default:
		expr = "z.string()"
	}
	if f.Optional {
		return expr + ".optional()"
	}
	if f.Validator == ValidatorString || f.Validator == ValidatorEmail || f.Validator == "" {
		expr += fmt.Sprintf(".min(1, { message: %s })", jsString(f.Label+" is required"))
	}
	return expr
}

func controlMarkup(f Field) string {
	id := jsString(f.Name)
	const cls = `className="w-full rounded-md border px-3 py-2"`
	switch f.Control {
	case ControlTextarea:
		return fmt.Sprintf(`<textarea id=%s {...register(%s)} rows={4} %s />`, id, id, cls)
	case ControlNumber:
		return fmt.Sprintf(`<input id=%s type="number" {...register(%s, { valueAsNumber: true })} %s />`, id, id, cls)
	case ControlCheckbox:
		return fmt.Sprintf(`<input id=%s type="checkbox" {...register(%s)} className="h-4 w-4" />`, id, id)
	case ControlEmail:
		return fmt.Sprintf(`<input id=%s type="email" {...register(%s)} %s />`, id, id, cls)
	default:
		return fmt.Sprintf(`<input id=%s type="text" {...register(%s)} %s />`, id, id, cls)
	}
}

func regionClass(role RegionRole) string {
	if role == RoleSidebar {
		return "lg:col-span-1 space-y-4"
	}
	return "lg:col-span-3 space-y-6"
}
