package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"pustaka/pkg/logger"
	"pustaka/pkg/model"

	"github.com/go-playground/validator/v10"
)

const ktpLength = 16

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

type MemberValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewMemberValidator(log *logger.Logger) *MemberValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("ktp", validateKTPField); err != nil {
		log.Fatal("Failed to register 'ktp' validator",
			"error", err,
		)
	}

	log.Debug("Member validator initialized successfully")

	return &MemberValidator{
		validate: v,
		logger:   log,
	}
}

func (v *MemberValidator) Validate(member *model.Member) error {
	return v.check(member)
}

func (v *MemberValidator) ValidateDecision(decision *model.VerificationDecision) error {
	return v.check(decision)
}

func (v *MemberValidator) check(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func validateKTPField(fl validator.FieldLevel) bool {
	return ValidKTP(fl.Field().String())
}

// ValidKTP checks the structure of a 16-digit NIK: a plausible province
// code and a birth date where women's day of month is offset by 40.
func ValidKTP(nik string) bool {
	if len(nik) != ktpLength {
		return false
	}
	for _, r := range nik {
		if r < '0' || r > '9' {
			return false
		}
	}

	province, _ := strconv.Atoi(nik[0:2])
	if province < 11 || province > 94 {
		return false
	}

	day, _ := strconv.Atoi(nik[6:8])
	if day > 40 {
		day -= 40
	}
	if day < 1 || day > 31 {
		return false
	}

	month, _ := strconv.Atoi(nik[8:10])
	return month >= 1 && month <= 12
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		var message string
		switch err.Tag() {
		case "required", "required_if":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "e164":
			message = fmt.Sprintf("%s must be a valid phone number", err.Field())
		case "ktp":
			message = fmt.Sprintf("%s must be a valid 16-digit KTP number", err.Field())
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
