// Package validate wraps the shared validator instance used on request DTOs.
package validate

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// v is shared across all handlers; register custom types in init() before
// the first Struct call.
var v = validator.New()

// Struct runs the validate tags on s and flattens any violations into a
// single readable error, one clause per failing field.
func Struct(s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
