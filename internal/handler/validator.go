package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/1wflores/amenity-reservations/internal/booking"
)

// RequestValidator plugs go-playground/validator into echo.  Field names
// in errors use the json tag so clients see the names they sent.
type RequestValidator struct {
	v *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// hhmm accepts "HH:MM" wall-clock times, including "24:00".
	if err := v.RegisterValidation("hhmm", validTimeOfDay); err != nil {
		panic(fmt.Sprintf("register hhmm validation: %v", err))
	}
	return &RequestValidator{v: v}
}

func validTimeOfDay(fl validator.FieldLevel) bool {
	_, err := booking.ParseTimeOfDay(fl.Field().String())
	return err == nil
}

func (rv *RequestValidator) Validate(i interface{}) error {
	return rv.v.Struct(i)
}

// bindAndValidate decodes the body into dst and runs its validate tags.
// The returned message is safe to show to clients.
func bindAndValidate(c echo.Context, dst interface{}) (string, bool) {
	if err := c.Bind(dst); err != nil {
		return "invalid request body", false
	}
	if err := c.Validate(dst); err != nil {
		return validationMessage(err), false
	}
	return "", true
}

func validationMessage(err error) string {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return "invalid request"
	}
	msgs := make([]string, 0, len(ves))
	for _, fe := range ves {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
