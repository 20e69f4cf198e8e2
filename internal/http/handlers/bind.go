package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// BindJSON decodes and validates the body into out, answering 400 (or 413
// for an oversize body) itself when it cannot.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBindJSON(out)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		RespondError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body is too large", nil)
		return false
	}

	RespondBadRequest(ctx, "Invalid request body", bindErrorDetails(err, out))
	return false
}

func bindErrorDetails(err error, out interface{}) interface{} {
	root := reflect.TypeOf(out)

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]FieldError, 0, len(validationErrs))

		for _, fe := range validationErrs {
			// namespace is "<Struct>.<Field>[.<Nested>...]"
			parts := strings.Split(fe.StructNamespace(), ".")
			if len(parts) > 1 {
				parts = parts[1:]
			}

			fields = append(fields, FieldError{
				Field:   jsonPath(root, parts),
				Rule:    fe.Tag(),
				Param:   fe.Param(),
				Message: validationMessage(fe.Tag(), fe.Param()),
			})
		}
		return gin.H{"fields": fields}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return gin.H{"json": "invalid_json_syntax"}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := jsonPath(root, strings.Split(typeErr.Field, "."))
		return gin.H{
			"json":  "invalid_json_type",
			"field": field,
			"fields": []FieldError{{
				Field:   field,
				Rule:    "type",
				Message: fmt.Sprintf("must be of type %s", typeErr.Type.String()),
			}},
		}
	}

	return gin.H{"json": "invalid_body"}
}

// jsonPath maps Go field names (or JSON names already) to their json tags,
// walking nested structs through pointers.
func jsonPath(t reflect.Type, parts []string) string {
	out := make([]string, 0, len(parts))

	for _, part := range parts {
		if part == "" {
			continue
		}

		for t != nil && t.Kind() == reflect.Pointer {
			t = t.Elem()
		}

		name := part
		var next reflect.Type

		if t != nil && t.Kind() == reflect.Struct {
			if sf, ok := fieldByNameOrTag(t, part); ok {
				name = jsonName(sf)
				next = sf.Type
			}
		}

		out = append(out, name)
		t = next
	}

	return strings.Join(out, ".")
}

func fieldByNameOrTag(t reflect.Type, part string) (reflect.StructField, bool) {
	if sf, ok := t.FieldByName(part); ok {
		return sf, true
	}

	for i := 0; i < t.NumField(); i++ {
		if jsonName(t.Field(i)) == part {
			return t.Field(i), true
		}
	}

	return reflect.StructField{}, false
}

func jsonName(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return sf.Name
	}
	return name
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}
