package validator

import (
	"encoding/json"
	"errors"
	"regexp"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/samber/lo"
)

var (
	rePassword = regexp.MustCompile(`^.{8,72}$`)
	reOTP      = regexp.MustCompile(`^[0-9]{6}$`)
)

// ErrTranslatorNotFound means the English translator could not be loaded.
var ErrTranslatorNotFound = errors.New("translator not found")

// V10ValidationError maps camelCase field names to translated messages.
type V10ValidationError map[string]string

func (e V10ValidationError) Error() string {
	if len(e) == 0 {
		return "validation error"
	}
	b, _ := json.Marshal(map[string]string(e))
	return string(b)
}

// Values exposes the field map to the HTTP error codec.
func (e V10ValidationError) Values() map[string]string { return e }

// V10Validator is backed by go-playground/validator/v10.
type V10Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

type rule struct {
	tag     string
	message string
	re      *regexp.Regexp
}

var rules = []rule{
	{tag: "password", message: "{0} must be 8-72 characters", re: rePassword},
	{tag: "otp", message: "{0} must be exactly 6 digits", re: reOTP},
}

func NewV10Validator() (*V10Validator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	locale := en.New()
	trans, ok := ut.New(locale, locale).GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}
	if err := enTranslations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, err
	}

	for _, r := range rules {
		if err := register(v, trans, r); err != nil {
			return nil, err
		}
	}

	return &V10Validator{validate: v, trans: trans}, nil
}

func register(v *validator.Validate, trans ut.Translator, r rule) error {
	err := v.RegisterValidation(r.tag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && r.re.MatchString(s)
	})
	if err != nil {
		return err
	}

	return v.RegisterTranslation(r.tag, trans,
		func(t ut.Translator) error { return t.Add(r.tag, r.message, false) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, err := t.T(fe.Tag(), fe.Field())
			if err != nil {
				return fe.Error()
			}
			return msg
		},
	)
}

func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	return V10ValidationError(lo.SliceToMap(fieldErrs, func(fe validator.FieldError) (string, string) {
		return lo.CamelCase(fe.Field()), fe.Translate(v.trans)
	}))
}
