// Package validation builds the struct validator shared by the services and
// the HTTP layer and turns its failures into apperror validation errors.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ManuelReschke/FoodFox/internal/pkg/apperror"
)

// New returns a validator that reports fields by their JSON name.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Error reports the first failed field using its JSON path, e.g.
// "items[0].quantity".
func Error(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.Validation("", "%v", err)
	}
	fe := verrs[0]
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	unit := "characters"
	if k := fe.Kind(); k == reflect.Slice || k == reflect.Array || k == reflect.Map {
		unit = "entries"
	}
	switch fe.Tag() {
	case "required":
		return apperror.Validation(field, "is required")
	case "min":
		return apperror.Validation(field, "must contain at least %s %s", fe.Param(), unit)
	case "max":
		return apperror.Validation(field, "must be at most %s %s", fe.Param(), unit)
	case "gt":
		return apperror.Validation(field, "must be greater than %s", fe.Param())
	case "email":
		return apperror.Validation(field, "must be a valid email address")
	case "oneof":
		return apperror.Validation(field, "must be one of %s", strings.Join(strings.Fields(fe.Param()), ", "))
	default:
		return apperror.Validation(field, "failed %s validation", fe.Tag())
	}
}
