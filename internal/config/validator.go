// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals the merged Koanf tree into a `Config` instance.  Any tag
// mismatch or validation error aborts startup, ensuring the binary never
// runs with partial, malformed, or missing configuration.
//
// Rules in use: `required`, `url`, `hostname_port`, `oneof`, `gt`/`gte`,
// and `required_if` for the MySQL session DSN.

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var v = validator.New()

//
// public API
//

// validateStruct returns nil on success, or one error listing every
// offending field as "Section.Field (rule)".
func validateStruct(c *Config) error {
	err := v.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		ns := strings.TrimPrefix(fe.StructNamespace(), "Config.")
		parts = append(parts, fmt.Sprintf("%s (%s)", ns, fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(parts, ", "))
}
