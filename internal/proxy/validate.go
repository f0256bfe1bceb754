package proxy

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// FieldsError lists invalid request fields with readable messages.
type FieldsError struct {
	Fields map[string]string
}

func (f *FieldsError) Error() string {
	return fmt.Sprintf("invalid request: %d field(s)", len(f.Fields))
}

// Validator checks request bodies and translates failures to English.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: v, trans: trans}
}

// Validate returns nil, a *FieldsError, or the validator's own error for
// inputs it cannot inspect.
func (v *Validator) Validate(req any) error {
	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fields := make(map[string]string, len(errs))
	for _, e := range errs {
		fields[fieldPath(e.Namespace())] = e.Translate(v.trans)
	}
	return &FieldsError{Fields: fields}
}

// fieldPath drops the root struct name: "ChatRequest.messages[0].role"
// becomes "messages[0].role".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
