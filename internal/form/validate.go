package form

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/cafe-registration/internal/types"
)

// Whitespace for both the name check and the email shape: Unicode Z plus
// \t \n \v \f \r and the BOM.
const space = `\s\v\p{Z}\x{FEFF}`

var (
	blankRe = regexp.MustCompile(`^[` + space + `]*$`)

	// one '@' with non-whitespace on each side and at least one '.'
	// inside the trailing segment.
	emailShapeRe = regexp.MustCompile(`[^` + space + `]+@[^` + space + `]+\.[^` + space + `]+`)
)

// Messages shown to the user, keyed by field and then by the failing tag.
var messages = map[string]map[string]string{
	types.FieldName: {
		"notblank": "Name is required",
	},
	types.FieldEmail: {
		"required":   "Email is required",
		"emailshape": "Email is invalid",
	},
	types.FieldPassword: {
		"required": "Password is required",
		"min":      "Password must be at least 8 characters",
	},
	types.FieldConfirmPassword: {
		"eqfield": "Passwords don't match",
	},
	types.FieldTerms: {
		"required": "You must agree to terms",
	},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their json name so FieldError.Field() is the same
	// key the Errors map uses.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
		return !blankRe.MatchString(fl.Field().String())
	})
	mustRegister(v, "emailshape", func(fl validator.FieldLevel) bool {
		return emailShapeRe.MatchString(fl.Field().String())
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("form: register %s: %v", tag, err))
	}
}

// Validate checks every field of state independently and returns a fresh
// Errors holding exactly the keys that failed. It never mutates state and
// returns an empty (non-nil) map when everything passes.
//
// Each field reports at most one message: the validator stops at the first
// failing tag of a field, which keeps "required" and "invalid" mutually
// exclusive.
func Validate(state types.Registration) types.Errors {
	out := make(types.Errors)

	err := validate.Struct(state)
	if err == nil {
		return out
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// InvalidValidationError only happens for non-struct input.
		panic(fmt.Sprintf("form: validate: %v", err))
	}

	for _, fe := range fieldErrs {
		out[fe.Field()] = message(fe.Field(), fe.Tag())
	}
	return out
}

func message(field, tag string) string {
	if msg, ok := messages[field][tag]; ok {
		return msg
	}
	return fmt.Sprintf("field %s is invalid", field)
}
