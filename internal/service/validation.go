package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

const dayLayout = "2006-01-02"

// registerValidations installs the custom tags used by request payloads.
func registerValidations(v *validator.Validate) *validator.Validate {
	if v == nil {
		v = validator.New()
	}
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(fl.Field().String()).Valid()
	})
	v.RegisterValidation("institute_type", func(fl validator.FieldLevel) bool {
		return models.InstituteType(fl.Field().String()).Valid()
	})
	v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		tag := fl.Field().String()
		for _, day := range models.Weekdays {
			if day == tag {
				return true
			}
		}
		return false
	})
	return v
}

// validationError turns validator failures into a ValidationError listing one
// readable message per field.
func validationError(err error, message string) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	details := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, fieldMessage(fe))
	}
	appErr := appErrors.WithDetails(appErrors.ErrValidation, message, details)
	appErr.Err = err
	return appErr
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	if field != "" {
		field = strings.ToUpper(field[:1]) + field[1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "institute_type":
		return fmt.Sprintf("%s must be one of School, College, University, Coaching", field)
	case "weekday":
		return fmt.Sprintf("%s must be one of %s", field, strings.Join(models.Weekdays, ", "))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// validID reports whether id can name a stored entity. Malformed ids are
// treated as absent rather than as storage errors.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// parseDay reads YYYY-MM-DD (or an RFC 3339 timestamp) and returns the
// calendar day at UTC midnight.
func parseDay(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(dayLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be formatted as YYYY-MM-DD", value)
	}
	return startOfDay(t), nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// dayBounds returns the inclusive whole-day range [00:00:00.000, 23:59:59.999].
func dayBounds(day time.Time) (time.Time, time.Time) {
	from := startOfDay(day)
	return from, from.Add(24*time.Hour - time.Millisecond)
}
