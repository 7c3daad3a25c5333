package framework

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/validator.v9"
	entranslations "gopkg.in/go-playground/validator.v9/translations/en"
)

// validate holds the settings and caches for validating request payloads.
var validate *validator.Validate

// translator is a cache of locale and translation information.
var translator *ut.UniversalTranslator

func init() {
	validate = validator.New()

	enLocale := en.New()
	translator = ut.New(enLocale, enLocale)

	lang, _ := translator.GetTranslator("en")
	_ = entranslations.RegisterDefaultTranslations(validate, lang)

	// use JSON tag names for errors instead of Go struct field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// GetParam is a utility to get a path parameter from the request, nil if not found
func GetParam(c *gin.Context, param string) *string {
	v := c.Param(param)
	if v == "" {
		return nil
	}
	return &v
}

// Decode reads an HTTP request body looking for a JSON document.
// The body is decoded into the value provided.
func Decode(r *http.Request, val any) error {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(val); err != nil {
		return &SafeError{Err: errors.Wrap(err, "invalid request body"), StatusCode: http.StatusBadRequest}
	}
	return ValidateRequest(val)
}

// ValidateRequest runs the struct-level validation tags over a decoded request
func ValidateRequest(val any) error {
	err := validate.Struct(val)
	if err == nil {
		return nil
	}
	vErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	lang, _ := translator.GetTranslator("en")
	fieldErrors := make([]FieldError, 0, len(vErrors))
	for _, vError := range vErrors {
		fieldErrors = append(fieldErrors, FieldError{
			Field: vError.Field(),
			Error: vError.Translate(lang),
		})
	}
	return &SafeError{
		Err:        errors.New("field validation error"),
		StatusCode: http.StatusBadRequest,
		Fields:     fieldErrors,
	}
}
