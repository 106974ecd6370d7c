package models

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// report json field names rather than Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("mintokens", func(fl validator.FieldLevel) bool {
		return CountTokens(fl.Field().String()) >= minTokens(fl.Param())
	})
	return v
}

func minTokens(param string) int {
	n, _ := strconv.Atoi(param)
	return n
}

// CountTokens counts whitespace-delimited tokens.
func CountTokens(s string) int {
	return len(strings.Fields(s))
}

// ValidateStruct runs tag validation and converts the first failure into a *ValidationError.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{Field: fe.Field(), Reason: reasonFor(fe)}
	}
	return &ValidationError{Field: "", Reason: err.Error()}
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "mintokens":
		return "must contain at least " + fe.Param() + " words"
	}
	return "failed " + fe.Tag()
}
