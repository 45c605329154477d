package models

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// validate is the shared request validator. Custom rules are registered in init().
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report json field names instead of Go field names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("trimmedmin", validateTrimmedMin)
	_ = validate.RegisterValidation("place_category", func(fl validator.FieldLevel) bool {
		return PlaceCategory(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("price_range", func(fl validator.FieldLevel) bool {
		return PriceRange(fl.Field().String()).Valid()
	})
}

// validateTrimmedMin requires at least N characters once surrounding whitespace is removed.
func validateTrimmedMin(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= n
}

// Validate runs struct validation and converts the first failure into a *ValidationError.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	fe := fieldErrs[0]
	return &ValidationError{Field: fieldPath(fe), Message: describe(fe)}
}

// fieldPath drops the root struct name from the namespace, e.g. "CreateReviewRequest.amenity_ratings.cleanliness".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "trimmedmin":
		return "must be at least " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "latitude", "longitude":
		return "must be a valid " + fe.Tag()
	case "place_category":
		return "is not a valid category"
	case "price_range":
		return "must be one of $, $$, $$$, $$$$"
	case "url":
		return "must be a valid URL"
	case "datetime":
		return "must be a date formatted as YYYY-MM-DD"
	case "oneof":
		return "must be one of " + fe.Param()
	}
	return "is invalid"
}
