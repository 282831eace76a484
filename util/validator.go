package util

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	validate.RegisterValidation("latitude", validateLatitude)
	validate.RegisterValidation("longitude", validateLongitude)
}

// validateLatitude also rejects NaN, which fails both comparisons.
func validateLatitude(fl validator.FieldLevel) bool {
	lat := fl.Field().Float()
	return lat >= -90 && lat <= 90
}

func validateLongitude(fl validator.FieldLevel) bool {
	lon := fl.Field().Float()
	return lon >= -180 && lon <= 180
}

// ValidateStruct checks s against its validate tags. Failures are reported
// one per field, named after the json tag.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs[i] = fmt.Sprintf("%s fails %s=%s", fe.Field(), fe.Tag(), fe.Param())
		} else {
			msgs[i] = fmt.Sprintf("%s is not a valid %s", fe.Field(), fe.Tag())
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
