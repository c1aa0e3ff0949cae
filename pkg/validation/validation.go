package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/aldoetobex/lawcase-backend/pkg/credential"
)

var (
	v *validator.Validate

	// Firm code / account: letters, digits, underscore, dash.
	reFirmCode = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

func init() {
	v = validator.New()

	// Use JSON tag as the field name in error output
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("firmcode", func(fl validator.FieldLevel) bool {
		return IsFirmCode(fl.Field().String())
	})

	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})

	// bcrypt reads at most 72 bytes; max=72 would count runes.
	_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= credential.MaxPasswordBytes
	})
}

// IsFirmCode reports whether s matches [A-Za-z0-9_-]+.
func IsFirmCode(s string) bool {
	return reFirmCode.MatchString(s)
}

// IsStrongPassword requires at least 8 characters with one ASCII upper and one ASCII lower letter.
func IsStrongPassword(s string) bool {
	if len([]rune(s)) < 8 {
		return false
	}
	var upper, lower bool
	for _, r := range s {
		if r > unicode.MaxASCII {
			continue
		}
		switch {
		case 'A' <= r && r <= 'Z':
			upper = true
		case 'a' <= r && r <= 'z':
			lower = true
		}
	}
	return upper && lower
}

// static messages per tag; min/max are formatted in message.
var tagMessages = map[string]string{
	"required":       "This field is required",
	"email":          "Invalid email format",
	"oneof":          "Value is not allowed",
	"uuid":           "Invalid UUID format",
	"uuid4":          "Invalid UUID format",
	"eqfield":        "Passwords do not match",
	"firmcode":       "Only letters, digits, underscore and dash are allowed",
	"strongpassword": "Must be at least 8 characters with one uppercase and one lowercase letter",
	"bcryptlen":      "Must be at most 72 bytes",
}

func message(e validator.FieldError) string {
	if m, ok := tagMessages[e.Tag()]; ok {
		return m
	}
	var bound string
	switch e.Tag() {
	case "min":
		bound = "at least"
	case "max":
		bound = "at most"
	default:
		return e.Error()
	}
	if e.Kind() == reflect.String {
		return fmt.Sprintf("Must be %s %s characters", bound, e.Param())
	}
	return fmt.Sprintf("Must be %s %s", bound, e.Param())
}

// Validate returns field errors keyed by json name, or nil when s is valid.
// The error return is only set when s is not a struct.
func Validate(s any) (map[string][]string, error) {
	err := v.Struct(s)
	if err == nil {
		return nil, nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil, err
	}
	out := make(map[string][]string, len(ve))
	for _, e := range ve {
		out[e.Field()] = append(out[e.Field()], message(e))
	}
	return out, nil
}
