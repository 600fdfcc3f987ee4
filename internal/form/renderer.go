// internal/form/renderer.go
//
// MovieNest – Forms subsystem: HTML renderer.
//
// Context
//   Given a parsed FormDef this file turns individual fields into safe,
//   accessible HTML.  Page templates own the layout (the movie forms put the
//   image drop zone beside the text inputs), so rendering is per field
//   rather than per form: a template asks a View for “movie_title” and gets
//   the label, the input with its HTML5 validation attributes, and the
//   field's error message.
//
// Workflow
//   •  NewView binds a FormDef to the values and errors of one render and
//      mints a fresh CSRF token.
//   •  View.Field writes one field; View.Hidden writes the CSRF input.
//   •  Required, minlength, maxlength, pattern, accept, and placeholder
//      attributes are attached where relevant.  Passwords are never
//      prefilled.
//   •  Output is template.HTML so the surrounding template does not
//      double-escape the markup.
//
// Style
//   Output HTML is deliberately plain.  Each input gets id="fld-{name}" and
//   is wrapped in <div class="form-field"> for consistent styling.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"html/template"
	"strconv"
)

// View is one render of a form.
type View struct {
	Def    *FormDef
	Values map[string]string
	Errors []ErrorField
	csrf   string
}

// NewView looks up formID and prepares a render for the session on ctx.
// values may be nil.
func NewView(ctx context.Context, formID string, values map[string]string, errs []ErrorField) (*View, error) {
	fd, ok := GetFormDef(formID)
	if !ok {
		return nil, fmt.Errorf("form: unknown form %q", formID)
	}
	tok, err := GenerateToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("form %s: csrf token: %w", formID, err)
	}
	return &View{Def: fd, Values: values, Errors: errs, csrf: tok}, nil
}

// Hidden returns the CSRF input.
func (v *View) Hidden() template.HTML {
	return template.HTML(`<input type="hidden" name="` + csrfField + `" value="` + v.csrf + `">`)
}

// ErrorFor returns the message for name ("" for none).
func (v *View) ErrorFor(name string) string { return ErrorFor(v.Errors, name) }

// FormError returns the first form-level message.
func (v *View) FormError() string { return ErrorFor(v.Errors, "") }

// Value returns the prefill for name.
func (v *View) Value(name string) string {
	if v.Values == nil {
		return ""
	}
	return v.Values[name]
}

// Label returns the configured label of name, or "" when unknown.
func (v *View) Label(name string) string {
	if f, ok := v.Def.Field(name); ok {
		return f.Label
	}
	return ""
}

// Field returns the markup for the named field.
func (v *View) Field(name string) (template.HTML, error) {
	f, ok := v.Def.Field(name)
	if !ok {
		return "", fmt.Errorf("form %s: unknown field %q", v.Def.ID, name)
	}
	var buf bytes.Buffer
	if err := writeField(&buf, f, v.Value(name), v.ErrorFor(name)); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// writeField emits HTML for an individual field into buf.
func writeField(buf *bytes.Buffer, f *FieldDef, val, errMsg string) error {
	name := html.EscapeString(f.Name)
	idAttr := `id="fld-` + name + `"`
	nameAttr := `name="` + name + `"`

	buf.WriteString(`<div class="form-field">` + "\n")

	switch f.Type {
	case "text", "email", "password":
		buf.WriteString(`<label for="fld-` + name + `">` + html.EscapeString(f.Label) + `</label>` + "\n")
		buf.WriteString(`<input ` + idAttr + ` ` + nameAttr + ` type="` + f.Type + `"`)
		if f.Placeholder != "" {
			buf.WriteString(` placeholder="` + html.EscapeString(f.Placeholder) + `"`)
		}
		if f.InputMode != "" {
			buf.WriteString(` inputmode="` + html.EscapeString(f.InputMode) + `"`)
		}
		if f.Required {
			buf.WriteString(` required`)
		}
		if f.MinLength > 0 {
			buf.WriteString(` minlength="` + strconv.Itoa(f.MinLength) + `"`)
		}
		if f.MaxLength > 0 {
			buf.WriteString(` maxlength="` + strconv.Itoa(f.MaxLength) + `"`)
		}
		if f.Pattern != "" {
			buf.WriteString(` pattern="` + html.EscapeString(f.Pattern) + `"`)
		}
		if val != "" && f.Type != "password" {
			buf.WriteString(` value="` + html.EscapeString(val) + `"`)
		}
		if errMsg != "" {
			buf.WriteString(` aria-invalid="true"`)
		}
		buf.WriteString(`>` + "\n")

	case "checkbox":
		checked := ""
		if val == "true" || val == "on" {
			checked = ` checked`
		}
		buf.WriteString(`<input ` + idAttr + ` ` + nameAttr + ` type="checkbox" value="on"` + checked + `>` + "\n")
		buf.WriteString(`<label for="fld-` + name + `">` + html.EscapeString(f.Label) + `</label>` + "\n")

	case "file":
		// Label text is supplied by the page (drop zone); keep one for screen readers.
		buf.WriteString(`<label class="sr-only" for="fld-` + name + `">` + html.EscapeString(f.Label) + `</label>` + "\n")
		buf.WriteString(`<input ` + idAttr + ` ` + nameAttr + ` type="file"`)
		if f.Accept != "" {
			buf.WriteString(` accept="` + html.EscapeString(f.Accept) + `"`)
		}
		buf.WriteString(`>` + "\n")

	default:
		return fmt.Errorf("writeField: unsupported field type %q in form field %s", f.Type, f.Name)
	}

	buf.WriteString(`<span class="error" aria-live="polite">` + html.EscapeString(errMsg) + `</span>` + "\n")
	buf.WriteString(`</div>` + "\n")
	return nil
}
