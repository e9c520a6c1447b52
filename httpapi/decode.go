package httpapi

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/s3fm/errors"
	"github.com/kbukum/s3fm/validation"
)

// bind decodes the JSON object body of c into dst through gin's JSON binding
// and validates it. Unknown fields are ignored; a field of the wrong JSON
// type is invalid_body. The body is kept on the context, so the null check
// does not read it twice.
func bind(c *gin.Context, dst any) error {
	if err := c.ShouldBindBodyWithJSON(dst); err != nil {
		return decodeError(err)
	}
	if body, ok := c.Get(gin.BodyBytesKey); ok {
		if raw, _ := body.([]byte); bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return notObject()
		}
	}
	return validation.Validate(dst)
}

func notObject() error { return errors.InvalidBody("Expected JSON object body") }

func decodeError(err error) error {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return errors.New(errors.ErrCodeInvalidBody, "Request body too large", http.StatusRequestEntityTooLarge)
	}
	if stderrors.Is(err, io.EOF) {
		return notObject()
	}
	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &typeErr) {
		if typeErr.Field == "" {
			return notObject()
		}
		return errors.InvalidBody(fmt.Sprintf("Expected '%s' to be %s", typeErr.Field, describe(typeErr.Type))).
			WithDetail("field", typeErr.Field)
	}
	var syntaxErr *json.SyntaxError
	if stderrors.As(err, &syntaxErr) {
		return errors.InvalidBody("Malformed JSON body").WithDetail("offset", syntaxErr.Offset)
	}
	return errors.InvalidBody("Invalid request body: " + err.Error())
}

func describe(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Map:
		return "an object of strings"
	case reflect.Struct:
		if t.PkgPath() == "time" && t.Name() == "Time" {
			return "a date string"
		}
		return "an object"
	default:
		return "a valid value"
	}
}
