package validator

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

func NewValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
	})
	return validate
}

func GetValidator() *validator.Validate {
	return NewValidator()
}

// ValidateRequest runs struct tag validation and reports each failing field
func ValidateRequest(req interface{}) error {
	if err := GetValidator().Struct(req); err != nil {
		details := make(map[string]any)
		var validateErrs validator.ValidationErrors
		if ierr.As(err, &validateErrs) {
			for _, fe := range validateErrs {
				details[fe.Field()] = fe.Error()
			}
		}
		return ierr.WithError(err).
			WithHint("Request validation failed").
			WithReportableDetails(details).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ValidateEmail checks a single address the same way request structs do
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if err := GetValidator().Var(email, "required,email"); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid email format").
			WithReportableDetails(map[string]any{
				"email": email,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
