package domain

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// NewJob is the input for creating a job.
type NewJob struct {
	Title        string   `validate:"required"`
	Description  string   `validate:"required"`
	Location     string   `validate:"omitempty"`
	Type         string   `validate:"omitempty"`
	Tags         []string `validate:"dive,required"`
	Requirements []string `validate:"dive,required"`
}

// Validate checks required fields.
func (n NewJob) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return Validationf("title is required")
	}
	return validateStruct(n)
}

// NewCandidate is the input for creating a candidate.
type NewCandidate struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Phone    string `validate:"omitempty"`
	JobID    string `validate:"required"`
	JobTitle string `validate:"omitempty"`
}

// Validate checks required fields and the email format.
func (n NewCandidate) Validate() error {
	return validateStruct(n)
}

// validateStruct runs struct tag validation and converts failures to a
// VALIDATION error listing the offending fields.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &Error{Code: ErrCodeValidation, Message: "invalid input", Err: err}
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field()+" ("+fe.Tag()+")")
	}
	return &Error{
		Code:    ErrCodeValidation,
		Message: "invalid fields: " + strings.Join(fields, ", "),
		Err:     err,
	}
}
