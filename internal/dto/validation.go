package dto

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/SscSPs/org_funding_app/internal/apperrors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// RegisterValidations installs the decimal rules on v. Gin's binding engine and the
// service-level validator both use the `binding` struct tags, so both need them.
func RegisterValidations(v *validator.Validate) error {
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	return v.RegisterValidation("dpositive", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.IsPositive()
	})
}

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.SetTagName("binding")
		if err := RegisterValidations(validate); err != nil {
			panic(fmt.Sprintf("dto: registering validations: %v", err))
		}
	})
	return validate
}

// Validate checks s against its binding tags. Failures wrap apperrors.ErrValidation.
func Validate(s interface{}) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
		}
		return apperrors.NewAppError(http.StatusBadRequest, strings.Join(msgs, "; "), apperrors.ErrValidation)
	}
	return apperrors.NewAppError(http.StatusBadRequest, err.Error(), apperrors.ErrValidation)
}

// ParseDate parses an optional YYYY-MM-DD date, falling back to def when raw is empty.
func ParseDate(raw string, def time.Time) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, apperrors.NewAppError(http.StatusBadRequest, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw), apperrors.ErrValidation)
	}
	return t, nil
}
