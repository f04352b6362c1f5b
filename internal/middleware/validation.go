package middleware

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"unicode"

	"github.com/ajg/form"
	"github.com/go-playground/validator/v10"

	apierrors "mentedigital/internal/errors"
)

// QueryValidator decodes query strings into tagged structs and validates them.
// Struct fields use `form:"name"` for decoding and `validate:"..."` rules.
type QueryValidator struct {
	validate *validator.Validate
}

// NewQueryValidator registers the dashboard's custom rules
func NewQueryValidator() *QueryValidator {
	v := validator.New()
	_ = v.RegisterValidation("theme", isTheme)
	_ = v.RegisterValidation("fieldname", isFieldName)

	// report the query parameter name, not the Go field name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &QueryValidator{validate: v}
}

// Decode fills dst from the request query and validates it. The error is an
// *apierrors.APIError listing every rejected parameter.
func (q *QueryValidator) Decode(r *http.Request, dst interface{}) error {
	dec := form.NewDecoder(nil)
	dec.IgnoreUnknownKeys(true)
	if err := dec.DecodeValues(dst, r.URL.Query()); err != nil {
		return apierrors.NewValidationErrors([]apierrors.ValidationError{
			{Field: "query", Message: err.Error()},
		})
	}
	return q.Struct(dst)
}

// Struct validates an already decoded value
func (q *QueryValidator) Struct(v interface{}) error {
	err := q.validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	out := make([]apierrors.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apierrors.ValidationError{Field: fe.Field(), Message: formatValidationError(fe)})
	}
	return apierrors.NewValidationErrors(out)
}

func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "theme":
		return fmt.Sprintf("%s must be claro or escuro", field)
	case "fieldname":
		return fmt.Sprintf("%s must be a column name", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// isTheme accepts the theme names understood by the report package
func isTheme(fl validator.FieldLevel) bool {
	switch strings.ToLower(fl.Field().String()) {
	case "", "claro", "escuro", "light", "dark":
		return true
	}
	return false
}

// isFieldName accepts printable column names of reasonable length
func isFieldName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if strings.TrimSpace(name) == "" || len(name) > 200 {
		return false
	}
	for _, r := range name {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
