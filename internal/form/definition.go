// internal/form/definition.go
//
// MovieNest – Forms subsystem: YAML definition loader.
//
// Context
//   Each HTML form is declared in a YAML file that ships inside its
//   component (“components/<comp>/forms/*.yaml”, embedded with go:embed).
//   A definition names the form, lists its fields, and carries every
//   validation rule together with the exact user-facing message for that
//   rule.  The renderer and the validator both read the same FormDef, so
//   the HTML hints and the server checks never drift apart.
//
// Workflow
//   •  Structs mirror the YAML schema: FormDef → FieldDef → Messages.
//   •  LoadFormDef parses one YAML document and validates structural rules.
//   •  RegisterFS walks an fs.FS (usually a component's embed.FS), loads
//      every “*.yaml”, and adds the result to the in-memory registry.
//   •  GetFormDef offers safe, read-only access to a parsed form by ID.
//
// Style
//   Comments follow the house guide: full sentences, two spaces after
//   periods, Oxford commas, and clear roles.  Helper comments use short noun
//   phrases.
//
//------------------------------------------------------------------------------

package form

import (
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------
// Data structures
// -----------------------------------------------------------------------------

// FormDef represents one form definition loaded from YAML.
//
// The form is uniquely identified by ID which should be namespaced by
// component, e.g. “auth/login”.
type FormDef struct {
	ID     string     `yaml:"id"`     // Component-scoped identifier.
	Title  string     `yaml:"title"`  // Display title, optional.
	Submit string     `yaml:"submit"` // Submit button caption, optional.
	Fields []FieldDef `yaml:"fields"` // Fields in render order.
}

// FieldDef describes a single input control on the form.  Validation
// metadata lives inline so the server enforces the same rules the browser
// hints at.
type FieldDef struct {
	Name        string   `yaml:"name"`        // Submission key.  Required.
	Label       string   `yaml:"label"`       // Human-readable label.  Required.
	Type        string   `yaml:"type"`        // text, email, password, checkbox, or file.
	Placeholder string   `yaml:"placeholder"` // Optional placeholder text.
	Required    bool     `yaml:"required"`    // True if input is mandatory.
	MinLength   int      `yaml:"minlength"`   // ≥ 0, 0 means unset.
	MaxLength   int      `yaml:"maxlength"`   // ≥ 0, 0 means unset.
	Pattern     string   `yaml:"pattern"`     // Regex pattern string.
	Accept      string   `yaml:"accept"`      // File inputs only.
	InputMode   string   `yaml:"inputmode"`   // Optional keyboard hint.
	Messages    Messages `yaml:"messages"`    // Per-rule messages.

	re *regexp.Regexp
}

// Messages holds the user-facing text for each rule.  Blank entries fall
// back to generic wording.
type Messages struct {
	Required  string `yaml:"required"`
	MinLength string `yaml:"minlength"`
	MaxLength string `yaml:"maxlength"`
	Pattern   string `yaml:"pattern"`
	Invalid   string `yaml:"invalid"`
}

var knownTypes = map[string]bool{
	"text":     true,
	"email":    true,
	"password": true,
	"checkbox": true,
	"file":     true,
}

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

// registry maps compositeID (“comp/form”) → *FormDef.  Guarded by mutex.
var (
	registryMu sync.RWMutex
	registry   = make(map[string]*FormDef)
)

// GetFormDef returns a parsed FormDef by composite ID (“component/form”).
// The boolean is false when the ID is unknown.
func GetFormDef(id string) (*FormDef, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	fd, ok := registry[id]
	return fd, ok
}

// Field returns the named field definition.
func (fd *FormDef) Field(name string) (*FieldDef, bool) {
	for i := range fd.Fields {
		if fd.Fields[i].Name == name {
			return &fd.Fields[i], true
		}
	}
	return nil, false
}

// -----------------------------------------------------------------------------
// Loader API
// -----------------------------------------------------------------------------

// LoadFormDef parses one YAML document, validates its structure, and
// returns a populated FormDef.  It NEVER mutates the global registry.
// path is used in error messages only.
func LoadFormDef(raw []byte, path string) (*FormDef, error) {
	var fd FormDef
	if err := yaml.Unmarshal(raw, &fd); err != nil {
		return nil, fmt.Errorf("parse YAML %s: %w", path, err)
	}
	if err := validateFormDef(&fd, path); err != nil {
		return nil, err
	}
	return &fd, nil
}

// RegisterFS loads every “*.yaml” below root in fsys and registers it.
// Later registrations with the same ID replace earlier ones.
//
// Example:
//
//	//go:embed forms/*.yaml
//	var formsFS embed.FS
//	err := form.RegisterFS(formsFS, "forms")
func RegisterFS(fsys fs.FS, root string) error {
	return fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".yaml") {
			return nil // skip non-YAML
		}
		raw, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("read form file %s: %w", path, err)
		}
		fd, err := LoadFormDef(raw, path)
		if err != nil {
			return err // fail fast so issues surface loudly.
		}
		register(fd)
		return nil
	})
}

// register inserts or overrides the form in the global registry.  Caller
// must ensure the FormDef passed validation.
func register(fd *FormDef) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[fd.ID] = fd
}

// -----------------------------------------------------------------------------
// Validation helpers
// -----------------------------------------------------------------------------

// validateFormDef enforces structural rules that cannot be expressed via
// YAML tags alone.  It returns a descriptive error referencing the file.
func validateFormDef(fd *FormDef, path string) error {
	if fd.ID == "" {
		return fmt.Errorf("form definition %s: missing required 'id'", path)
	}
	if len(fd.Fields) == 0 {
		return fmt.Errorf("form definition %s: must have 'fields'", path)
	}

	fieldNames := make(map[string]struct{})
	for i := range fd.Fields {
		f := &fd.Fields[i]
		if err := validateField(f, path); err != nil {
			return err
		}
		if _, dup := fieldNames[f.Name]; dup {
			return fmt.Errorf("form %s: duplicate field name '%s'", path, f.Name)
		}
		fieldNames[f.Name] = struct{}{}
	}
	return nil
}

// validateField confirms that essential attributes are present and sane,
// and compiles the pattern once.
func validateField(f *FieldDef, path string) error {
	if f.Name == "" {
		return fmt.Errorf("form %s: field missing 'name'", path)
	}
	if f.Name == csrfField {
		return fmt.Errorf("form %s: field name '%s' is reserved", path, f.Name)
	}
	if f.Label == "" {
		return fmt.Errorf("form %s: field '%s' missing 'label'", path, f.Name)
	}
	if !knownTypes[f.Type] {
		return fmt.Errorf("form %s: field '%s' has unsupported type %q", path, f.Name, f.Type)
	}

	if f.Pattern != "" {
		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			return fmt.Errorf("form %s: field '%s' invalid regex pattern: %v", path, f.Name, err)
		}
		f.re = re
	}

	if f.MinLength < 0 || f.MaxLength < 0 {
		return fmt.Errorf("form %s: field '%s' minlength/maxlength cannot be negative", path, f.Name)
	}
	if f.MaxLength > 0 && f.MinLength > f.MaxLength {
		return fmt.Errorf("form %s: field '%s' minlength greater than maxlength", path, f.Name)
	}
	return nil
}
