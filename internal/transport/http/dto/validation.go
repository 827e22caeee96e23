package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/domain"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	validate.RegisterCustomTypeFunc(optIntValue, OptInt{})
}

// optIntValue gives validator a nil pointer for an unset OptInt and a pointer to the number otherwise.
func optIntValue(field reflect.Value) interface{} {
	o, ok := field.Interface().(OptInt)
	if !ok || !o.Set {
		return (*int64)(nil)
	}
	n := int64(o.Int)
	return &n
}

func validateStruct(v interface{}, msg string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.ErrValidation(err.Error())
	}
	meta := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		meta[fe.Field()] = fieldMessage(fe)
	}
	return domain.ErrValidationMeta(msg, meta)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "cannot be blank"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be no less than %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be no greater than %s", fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}
