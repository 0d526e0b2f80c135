package handlers

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"lodge_backend/internal/models"
)

var (
	colorHexRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators installs the domain binding rules on gin's validator
// and makes field errors report JSON names. Safe to call more than once.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
			return
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		rules := map[string]validator.Func{
			"reservation_status":   stringRule(models.IsValidReservationStatus),
			"unit_status":          stringRule(models.IsValidUnitStatus),
			"unit_type":            stringRule(models.IsValidUnitType),
			"transaction_type":     stringRule(models.IsValidTransactionType),
			"transaction_category": stringRule(models.IsValidTransactionCategory),
			"payment_method":       stringRule(models.IsValidPaymentMethod),
			"color_hex":            stringRule(colorHexRegex.MatchString),
			"clock_time":           stringRule(isClockTime),
		}
		for tag, fn := range rules {
			if err := v.RegisterValidation(tag, fn); err != nil {
				registerErr = fmt.Errorf("registering %s validator: %w", tag, err)
				return
			}
		}
	})
	return registerErr
}

func stringRule(valid func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.String {
			return false
		}
		return valid(fl.Field().String())
	}
}

func isClockTime(s string) bool {
	if len(s) != 5 {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}
