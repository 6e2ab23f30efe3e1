// Package validate wraps go-playground/validator so that handlers get the
// per-field message list the API contract promises instead of validator's
// own error strings. Each request field carries its message in an `errmsg`
// struct tag.
package validate

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())

	// Usernames must not look like an email address.
	_ = val.RegisterValidation("not_email", func(fl validator.FieldLevel) bool {
		return val.Var(fl.Field().String(), "email") != nil
	})

	// Image URLs are accepted without a scheme or host, so validator's own
	// "url" rule is too strict. Reject only values that do not parse or
	// contain whitespace.
	_ = val.RegisterValidation("lax_url", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if strings.ContainsAny(s, " \t\n") {
			return false
		}
		_, err := url.Parse(s)
		return err == nil
	})

	return val
}

// Struct runs the validator tags on s and returns one message per failing
// field, taken from the field's errmsg tag. A nil return means valid.
func Struct(s any) []string {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if f, ok := t.FieldByName(fe.StructField()); ok {
			if m := f.Tag.Get("errmsg"); m != "" {
				msgs = append(msgs, m)
				continue
			}
		}
		msgs = append(msgs, fmt.Sprintf("Invalid value for %s.", fieldName(t, fe.StructField())))
	}
	return msgs
}

func fieldName(t reflect.Type, structField string) string {
	f, ok := t.FieldByName(structField)
	if !ok {
		return structField
	}
	tag := f.Tag.Get("json")
	if tag == "" || tag == "-" {
		return structField
	}
	if i := strings.Index(tag, ","); i >= 0 {
		tag = tag[:i]
	}
	return tag
}
