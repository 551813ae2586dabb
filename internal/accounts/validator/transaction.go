package validator

import (
	"errors"
	"fmt"
	"strings"

	"circdesk/pkg/logger"
	"circdesk/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type TransactionValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewTransactionValidator(log *logger.Logger) *TransactionValidator {
	v := validator.New()

	log.Info("Transaction validator initialized successfully")

	return &TransactionValidator{
		validate: v,
		logger:   log,
	}
}

func (v *TransactionValidator) Validate(txn *model.Transaction) error {
	if err := v.validate.Struct(txn); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if txn.Type == model.TxWaive && strings.TrimSpace(txn.Note) == "" {
		return ValidationErrors{
			ValidationError{
				Field:   "Note",
				Message: "a waiver requires a reason",
			},
		}
	}

	return nil
}

func (v *TransactionValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
