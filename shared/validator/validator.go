package validator

import (
	"encoding/json"
	"fmt"
	"io"

	"innkeeper/shared/failure"

	val "github.com/go-playground/validator/v10"
)

var validate *val.Validate

func init() {
	validate = val.New(val.WithRequiredStructEnabled())

	err := validate.RegisterValidation("staydate", func(fl val.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}

		return isStayDate(str)
	})
	if err != nil {
		panic(err)
	}
}

func isStayDate(s string) bool {
	if len(s) != len("2006-01-02") {
		return false
	}

	for i, c := range s {
		if i == 4 || i == 7 {
			if c != '-' {
				return false
			}

			continue
		}

		if c < '0' || c > '9' {
			return false
		}
	}

	return true
}

// Validate reads from the given io.Reader into the given struct, and then performs validation
// on the struct using the validator package. If the struct is invalid according to the
// validation rules, an error is returned. Otherwise, nil is returned.
// https://github.com/go-playground/validator
func Validate[T any](r io.Reader, data *T) error {
	decoder := json.NewDecoder(r)
	err := decoder.Decode(data)

	if err != nil {
		return failure.BadRequest(fmt.Errorf("failed to decode request body: %w", err)) //nolint:wrapcheck
	}

	return ValidateStruct(data)
}

func ValidateStruct[T any](data *T) error {
	err := validate.Struct(data)

	if err != nil {
		msg := message(err)

		return failure.BadRequestFromString(msg) //nolint:wrapcheck
	}

	return nil
}

func ValidateVar(field any, tag string) error {
	err := validate.Var(field, tag)

	if err != nil {
		msg := message(err)

		return failure.BadRequestFromString(msg) //nolint:wrapcheck
	}

	return nil
}
