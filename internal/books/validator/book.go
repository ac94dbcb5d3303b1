package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"pustaka/pkg/logger"
	"pustaka/pkg/model"

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
	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BookValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookValidator(log *logger.Logger) *BookValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	log.Debug("Book validator initialized successfully")

	return &BookValidator{
		validate: v,
		logger:   log,
	}
}

func (v *BookValidator) Validate(book *model.Book) error {
	return v.check(book)
}

func (v *BookValidator) ValidateStockAdjustment(adj *model.StockAdjustment) error {
	return v.check(adj)
}

func (v *BookValidator) check(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		var message string
		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "isbn":
			message = fmt.Sprintf("%s must be a valid ISBN-10 or ISBN-13", err.Field())
		case "url":
			message = fmt.Sprintf("%s must be a valid URL", err.Field())
		default:
			message = fmt.Sprintf("%s failed validation: %s", err.Field(), err.Tag())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
