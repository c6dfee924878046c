// Package validation checks JSON request payloads. A small pass over the
// untyped payload catches wrong JSON types, the payload is then decoded into
// the request struct and its validate tags are checked with go-playground/validator.
// Validators never panic on malformed input.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// FieldError describes a single rejected field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is the outcome of a validator
type Result struct {
	IsValid bool         `json:"isValid"`
	Errors  []FieldError `json:"errors"`
}

const (
	bodyRequired     = "Request body is required"
	bodyInvalidTypes = "Request body has invalid field types"
)

var (
	slugRegex  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	digitsOnly = regexp.MustCompile(`^\d+$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "notblank", validators.NotBlank)
	mustRegister(v, "slug", func(fl validator.FieldLevel) bool {
		return IsValidSlug(fl.Field().String())
	})
	mustRegister(v, "strongpassword", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

// Decode parses a JSON body keeping numbers as json.Number.
// An empty body decodes to nil.
func Decode(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("invalid JSON body: trailing data")
	}
	return payload, nil
}

// IsStrongPassword requires at least 8 characters with an upper-case
// letter, a lower-case letter and a digit
func IsStrongPassword(password string) bool {
	if utf8.RuneCountInString(password) < 8 {
		return false
	}

	hasUpper := false
	hasLower := false
	hasNumber := false

	for _, char := range password {
		switch {
		case 'A' <= char && char <= 'Z':
			hasUpper = true
		case 'a' <= char && char <= 'z':
			hasLower = true
		case '0' <= char && char <= '9':
			hasNumber = true
		}
	}

	return hasUpper && hasLower && hasNumber
}

// IsValidSlug reports whether s is lowercase alphanumeric words joined by single hyphens
func IsValidSlug(s string) bool {
	return slugRegex.MatchString(s)
}

// SanitizeEmail trims and lower-cases an email address
func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// typeCheck reports wrong JSON types on the untyped payload
type typeCheck func(obj map[string]any, c *collector)

// bind runs check on payload, decodes the well-typed fields into dst and
// validates dst's struct tags. Fields rejected by check are decoded as absent
// and reported once.
func bind(payload, dst any, check typeCheck) Result {
	obj, ok := asObject(payload)
	if !ok {
		return invalidBody()
	}

	var c collector
	check(obj, &c)

	clean := make(map[string]any, len(obj))
	for key, value := range obj {
		if !c.has(key) {
			clean[key] = normalizeNumber(value)
		}
	}

	if err := decodeInto(clean, dst); err != nil {
		c.add("body", bodyInvalidTypes)
		return c.result()
	}

	err := validate.Struct(dst)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if !c.has(fe.Field()) {
				c.add(fe.Field(), messageFor(fe))
			}
		}
	} else if err != nil {
		c.add("body", bodyInvalidTypes)
	}

	return c.result()
}

func decodeInto(obj map[string]any, dst any) error {
	raw, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// normalizeNumber rewrites integral numbers such as 25.0 so they decode
// into integer fields. Out-of-range integers saturate and fail range tags.
func normalizeNumber(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	i, ok := asInteger(n)
	if !ok {
		return v
	}
	return json.Number(strconv.FormatInt(i, 10))
}

type collector struct {
	errors []FieldError
}

func (c *collector) add(field, message string) {
	c.errors = append(c.errors, FieldError{Field: field, Message: message})
}

func (c *collector) has(field string) bool {
	for _, e := range c.errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

func (c *collector) result() Result {
	return Result{IsValid: len(c.errors) == 0, Errors: c.errors}
}

// requireString reports a present field that is not a string
func (c *collector) requireString(obj map[string]any, field, message string) {
	if v, ok := obj[field]; ok {
		if _, isString := v.(string); !isString {
			c.add(field, message)
		}
	}
}

// requireInteger reports a present field that is not an integral number
func (c *collector) requireInteger(obj map[string]any, field, message string) {
	if v, ok := obj[field]; ok {
		if _, isInt := asInteger(v); !isInt {
			c.add(field, message)
		}
	}
}

func invalidBody() Result {
	return Result{Errors: []FieldError{{Field: "body", Message: bodyRequired}}}
}

func asObject(data any) (map[string]any, bool) {
	obj, ok := data.(map[string]any)
	return obj, ok && obj != nil
}

// truthyString returns the value when it is a non-empty string
func truthyString(obj map[string]any, key string) (string, bool) {
	s, ok := obj[key].(string)
	return s, ok && s != ""
}

func present(obj map[string]any, key string) bool {
	_, ok := obj[key]
	return ok
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}

// asInteger accepts json.Number and float64 values with no fractional part.
// Values beyond the int32 range saturate.
func asInteger(v any) (int64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return 0, false
	}

	if math.IsInf(f, 0) || math.IsNaN(f) || math.Trunc(f) != f {
		return 0, false
	}
	return int64(max(min(f, math.MaxInt32), math.MinInt32)), true
}

func trimSpace(s string) string {
	return strings.TrimSpace(s)
}

func isAllZeros(s string) bool {
	return strings.Trim(s, "0") == ""
}
