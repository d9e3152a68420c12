package validator

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate

	slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Domain tags registered on the shared validator.
var rules = map[string]validator.Func{
	"slug": func(fl validator.FieldLevel) bool {
		return IsSlug(fl.Field().String())
	},
	"notblank": func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	},
	"functionality_type": oneOfFold("FOLDER", "FUNCTIONALITY"),
	"severity":           oneOfFold("HIGH", "MEDIUM", "LOW"),
	"relative_position":  oneOfFold("", "ABOVE", "BELOW", "LAST_CHILD"),
}

// ValidationError is a single field failure. Field is the JSON name of the
// field; Path is its dotted location from the validated value.
type ValidationError struct {
	Field string `json:"field"`
	Path  string `json:"path"`
	Tag   string `json:"tag"`
	Param string `json:"param"`
}

// ValidationErrors collects multiple validation failures.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	var b strings.Builder
	for i, failure := range v {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(failure.Path)
		b.WriteString(" failed on ")
		b.WriteString(failure.Tag)
		if failure.Param != "" {
			b.WriteString("=" + failure.Param)
		}
	}
	return b.String()
}

// ValidateStruct validates a struct using registered rules. Rule failures are
// returned as ValidationErrors.
func ValidateStruct(s any) error {
	err := getValidator().Struct(s)

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	failures := make(ValidationErrors, len(fieldErrs))
	for i, fe := range fieldErrs {
		path := fe.Namespace()
		if _, rest, found := strings.Cut(path, "."); found {
			path = rest
		}
		failures[i] = ValidationError{
			Field: fe.Field(),
			Path:  path,
			Tag:   fe.Tag(),
			Param: fe.Param(),
		}
	}
	return failures
}

// RegisterValidation adds a custom rule to the shared validator.
func RegisterValidation(tag string, fn validator.Func) error {
	return getValidator().RegisterValidation(tag, fn)
}

// IsSlug reports whether value is a lowercase dash-separated identifier such as a project code.
func IsSlug(value string) bool {
	return slugPattern.MatchString(value)
}

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)
		for tag, fn := range rules {
			if err := validate.RegisterValidation(tag, fn); err != nil {
				panic("validator: register " + tag + ": " + err.Error())
			}
		}
	})
	return validate
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

// oneOfFold accepts any of the allowed values ignoring case and surrounding spaces.
func oneOfFold(allowed ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := strings.TrimSpace(fl.Field().String())
		for _, candidate := range allowed {
			if strings.EqualFold(value, candidate) {
				return true
			}
		}
		return false
	}
}
