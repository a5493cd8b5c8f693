// Package validation содержит проверку входных данных запросов.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	phoneRe   = regexp.MustCompile(`^\d{10,15}$`)
	pincodeRe = regexp.MustCompile(`^\d{6}$`)
)

// FieldError описывает нарушение ограничения в одном поле запроса.
type FieldError struct {
	Field   string `json:"field"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// Error описывает ошибку валидации запроса с подробностями по полям.
// Cause позволяет отнести ошибку к более общей категории через errors.Is.
type Error struct {
	Message string
	Fields  []FieldError
	Cause   error
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithCause возвращает ошибку, относящуюся к категории cause.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

// New создаёт ошибку валидации с одним полем.
func New(message, field, kind string, value any) *Error {
	return &Error{
		Message: message,
		Fields: []FieldError{{
			Field:   field,
			Kind:    kind,
			Message: describe(field, kind, ""),
			Value:   value,
		}},
	}
}

// As извлекает ошибку валидации из цепочки ошибок.
func As(err error) (*Error, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		d, _ := f.Interface().(decimal.Decimal)
		return d.InexactFloat64()
	}, decimal.Decimal{})

	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		d, _ := f.Interface().(decimal.NullDecimal)
		if !d.Valid {
			return nil
		}
		return d.Decimal.InexactFloat64()
	}, decimal.NullDecimal{})

	mustRegister(v, "phone", phoneRe)
	mustRegister(v, "pincode", pincodeRe)

	return v
}

func mustRegister(v *validator.Validate, tag string, re *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// Struct проверяет структуру по тегам validate и возвращает *Error с подробностями.
func Struct(message string, s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validate")
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		name := fieldPath(fe.Namespace())
		fields = append(fields, FieldError{
			Field:   name,
			Kind:    fe.Tag(),
			Message: describe(name, fe.Tag(), fe.Param()),
			Value:   fe.Value(),
		})
	}
	return &Error{Message: message, Fields: fields}
}

// IsPhone проверяет номер телефона: от 10 до 15 цифр.
func IsPhone(s string) bool {
	return phoneRe.MatchString(s)
}

// fieldPath отбрасывает имя корневой структуры: "PlaceOrderRequest.items[0].price" -> "items[0].price".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(field, kind, param string) string {
	switch kind {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must contain at least %s element(s)", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", field, param)
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, param)
	case "email":
		return field + " must be a valid email"
	case "phone":
		return "Phone must be 10-15 digits"
	case "pincode":
		return "Pincode must be 6 digits"
	default:
		return fmt.Sprintf("%s failed on %s", field, kind)
	}
}
