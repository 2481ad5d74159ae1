package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/rs/zerolog/log"
)

const maxPriceIntegerDigits = 5

// newValidator returns a validator that reports fields by their `label` tag,
// falling back to the json name.
func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(validate, "notblank", validators.NotBlank)
	mustRegister(validate, "between", validateBetween)
	mustRegister(validate, "phone", validateBetween)
	mustRegister(validate, "price", validatePrice)
	return validate
}

func mustRegister(validate *validator.Validate, tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validation: %v", tag, err))
	}
}

// validateBetween checks a string length against a "min:max" parameter. It
// also backs the "phone" tag, which differs only in its message.
func validateBetween(fl validator.FieldLevel) bool {
	lo, hi, err := parseBetween(fl.Param())
	if err != nil {
		return false
	}
	n := utf8.RuneCountInString(fl.Field().String())
	return n >= lo && n <= hi
}

func parseBetween(param string) (int, int, error) {
	parts := strings.SplitN(param, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("between: malformed parameter %q", param)
	}
	lo, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	hi, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}

// validatePrice accepts at most five integer digits and two decimals.
func validatePrice(fl validator.FieldLevel) bool {
	v := fl.Field().Float()
	if v >= math.Pow10(maxPriceIntegerDigits) {
		return false
	}
	cents := v * 100
	return math.Abs(cents-math.Round(cents)) < 1e-6
}

func formatValidationErrors(errs validator.ValidationErrors) []string {
	details := make([]string, 0, len(errs))
	for _, fe := range errs {
		details = append(details, validationMessage(fe))
	}
	return details
}

func validationMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is mandatory", field)
	case "email":
		return fmt.Sprintf("%s not valid", field)
	case "between":
		lo, hi, err := parseBetween(fe.Param())
		if err != nil {
			return fmt.Sprintf("%s has an invalid length", field)
		}
		return fmt.Sprintf("%s must be between %d and %d characters", field, lo, hi)
	case "phone":
		lo, hi, err := parseBetween(fe.Param())
		if err != nil {
			return fmt.Sprintf("%s has an invalid length", field)
		}
		return fmt.Sprintf("%s must be between %d-%d characters", field, lo, hi)
	case "max":
		return fmt.Sprintf("%s must be less than %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must contain at least %s entries", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "price":
		return fmt.Sprintf("%s must be a valid number with up to 5 digits in the integer part and 2 digits in the fractional part", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// decodeAndValidate reads a JSON body into dst and validates it. On failure it
// has already written the response.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request payload: %v", err))
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			respondWithValidationErrors(w, formatValidationErrors(validationErrors))
		} else {
			log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return false
	}
	return true
}
