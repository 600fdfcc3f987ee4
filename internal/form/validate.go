// internal/form/validate.go
//
// MovieNest – Forms subsystem: server-side validation.
//
// Context
//   The browser posts user input (see submit.go for parsing and the CSRF
//   gate).  This file checks every field of a FormDef against its rules in
//   a fixed order and reports at most one message per field, the first rule
//   that failed:
//
//       required → minlength → maxlength → pattern → type (email)
//
//   Messages come from the YAML definition so each form speaks its own
//   wording (“Enter a valid year”, “Must be a 4-digit year”).
//
// Workflow
//   •  ValidateForm retrieves the FormDef and walks its fields in order.
//   •  Text values are trimmed; a whitespace-only value counts as missing.
//   •  File fields are satisfied by a non-empty upload.File.
//   •  On success a Values map of clean strings is returned.  Files are not
//      copied into Values; callers read them from the Submission.
//
//------------------------------------------------------------------------------

package form

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// -----------------------------------------------------------------------------
// Error types
// -----------------------------------------------------------------------------

// ErrorField describes a single validation failure so the template can render
// a field-level message.  Name is empty for form-level problems.
type ErrorField struct {
	Name    string // field name
	Message string // user-facing message
}

// Values are clean, trimmed field values keyed by field name.
type Values map[string]string

// validate is shared; validator caches struct metadata internally.
var validate = validator.New()

// -----------------------------------------------------------------------------
// Public API
// -----------------------------------------------------------------------------

// ValidateForm validates sub against formID.  It returns clean values and
// any field errors.  A non-empty error slice means the page is re-rendered
// and no request leaves the process.
func ValidateForm(formID string, sub *Submission) (Values, []ErrorField) {
	fd, ok := GetFormDef(formID)
	if !ok {
		return nil, []ErrorField{{Name: "", Message: "Unknown form."}}
	}
	if sub == nil {
		sub = &Submission{}
	}

	var errs []ErrorField
	errs = append(errs, sub.Errors...)
	failed := make(map[string]bool, len(errs))
	for _, e := range errs {
		failed[e.Name] = true
	}

	clean := make(Values)
	for i := range fd.Fields {
		f := &fd.Fields[i]
		if failed[f.Name] {
			continue
		}

		if f.Type == "file" {
			if f.Required && sub.File(f.Name).Empty() {
				errs = append(errs, ErrorField{f.Name, requiredMsg(f)})
			}
			continue
		}

		raw := strings.TrimSpace(sub.Values.Get(f.Name))
		if f.Type == "checkbox" {
			if raw != "" {
				clean[f.Name] = "true"
			} else if f.Required {
				errs = append(errs, ErrorField{f.Name, requiredMsg(f)})
			}
			continue
		}

		if raw == "" {
			if f.Required {
				errs = append(errs, ErrorField{f.Name, requiredMsg(f)})
			} else {
				clean[f.Name] = ""
			}
			continue
		}

		if msg := checkField(f, raw); msg != "" {
			errs = append(errs, ErrorField{f.Name, msg})
			continue
		}
		clean[f.Name] = raw
	}

	return clean, errs
}

// ErrorFor returns the first message for name, or "".
func ErrorFor(errs []ErrorField, name string) string {
	for _, e := range errs {
		if e.Name == name {
			return e.Message
		}
	}
	return ""
}

// -----------------------------------------------------------------------------
// Field-level helpers
// -----------------------------------------------------------------------------

// checkField applies the non-required rules to a present value.
func checkField(f *FieldDef, val string) string {
	n := utf8.RuneCountInString(val)
	if f.MinLength > 0 && n < f.MinLength {
		return pick(f.Messages.MinLength, fmt.Sprintf("Must be at least %d characters.", f.MinLength))
	}
	if f.MaxLength > 0 && n > f.MaxLength {
		return pick(f.Messages.MaxLength, fmt.Sprintf("Must be at most %d characters.", f.MaxLength))
	}
	if f.re != nil && !f.re.MatchString(val) {
		return pick(f.Messages.Pattern, "Input does not match required format.")
	}
	if f.Type == "email" {
		if err := validate.Var(val, "email"); err != nil {
			return pick(f.Messages.Invalid, "Invalid input.")
		}
	}
	return ""
}

// user-friendly default messages
func requiredMsg(f *FieldDef) string {
	return pick(f.Messages.Required, "This field is required.")
}

func pick(custom, fallback string) string {
	if custom != "" {
		return custom
	}
	return fallback
}
