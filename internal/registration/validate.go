package registration

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"clubbot/internal/models"
)

// ErrInvalidField is returned when a profile answer does not pass validation.
var ErrInvalidField = errors.New("invalid profile field")

const maxFieldLen = 100

var fieldRules = map[models.ProfileField]string{
	models.FieldName:         "required",
	models.FieldSurname:      "required",
	models.FieldPatronymic:   "required",
	models.FieldPhone:        "required,e164",
	models.FieldEmail:        "required,email",
	models.FieldOrganization: "required",
}

// Validator normalizes and checks profile answers.
type Validator struct {
	v *validator.Validate
}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// Field returns the normalized value of a profile answer or ErrInvalidField.
func (v *Validator) Field(field models.ProfileField, raw string) (string, error) {
	value := strings.TrimSpace(raw)
	switch field {
	case models.FieldPhone:
		value = NormalizePhone(value)
	case models.FieldEmail:
		value = strings.ToLower(value)
	}
	if utf8.RuneCountInString(value) > maxFieldLen {
		return "", fmt.Errorf("%w: %s too long", ErrInvalidField, field)
	}
	rule, ok := fieldRules[field]
	if !ok {
		return "", fmt.Errorf("%w: unknown field %q", ErrInvalidField, field)
	}
	if err := v.v.Var(value, rule); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidField, field, err)
	}
	return value, nil
}

// NormalizePhone strips separators and rewrites the domestic 8XXXXXXXXXX form to +7XXXXXXXXXX.
func NormalizePhone(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '\t':
			return -1
		}
		return r
	}, s)
	switch {
	case len(s) == 11 && s[0] == '8':
		return "+7" + s[1:]
	case len(s) == 11 && s[0] == '7':
		return "+" + s
	}
	return s
}
