package validation

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	errors "github.com/frahmantamala/hr-management/internal"
	employeeDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/employee"
	userDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/user"
)

const DateLayout = "2006-01-02"

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator with JSON field names and the domain rules registered.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})

		_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
			_, err := time.Parse(DateLayout, fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			return userDatamodel.IsValidRole(fl.Field().String())
		})
		v.RegisterAlias("gender", "oneof="+strings.Join(employeeDatamodel.Genders, " "))
		v.RegisterAlias("employment_status", "oneof="+strings.Join(employeeDatamodel.Statuses, " "))

		validate = v
	})
	return validate
}

// Struct validates s and converts failures into a single 400 AppError listing every failing field.
func Struct(s interface{}) *errors.AppError {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.NewValidationError(err.Error(), errors.ErrCodeValidationFailed)
	}

	details := make([]errors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, errors.ValidationError{
			Field:   fe.Field(),
			Message: message(fe),
			Code:    strings.ToUpper(fe.Tag()),
		})
	}

	return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
		WithDetails(errors.ValidationErrors{Errors: details})
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must not exceed %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must not exceed %s", field, fe.Param())
	case "date":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
	case "role":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(userDatamodel.Roles, ", "))
	case "gender":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(employeeDatamodel.Genders, ", "))
	case "employment_status":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(employeeDatamodel.Statuses, ", "))
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt", "gte":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s must match %s", field, fe.Param())
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", field)
}

// ParseDate parses an optional YYYY-MM-DD value; nil or empty input yields nil.
func ParseDate(field string, value *string) (*time.Time, *errors.AppError) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, *value, time.Local)
	if err != nil {
		return nil, errors.NewValidationFieldError(field, fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field), errors.ErrCodeInvalidDate)
	}
	return &t, nil
}
