package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/geocoder89/todohub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// FullMessage renders the error the way it appears in the "errors" list,
// e.g. "Email must be a valid email address".
func (f FieldError) FullMessage() string {
	name := f.Field
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ReplaceAll(name, "_", " ")
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}

	return strings.TrimSpace(name + " " + f.Message)
}

var registerOnce sync.Once

// registerValidators installs the custom binding tags on gin's validator.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		if err := security.RegisterValidators(v); err != nil {
			panic(fmt.Sprintf("register validators: %v", err))
		}
	})
}

// BindJSON binds and validates the request body. Malformed JSON is a 400,
// a well-formed body that fails validation is a 422.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	registerValidators()

	err := ctx.ShouldBindJSON(out)

	if err == nil {
		return true
	}

	var validatorError validator.ValidationErrors

	if errors.As(err, &validatorError) {
		RespondUnprocessable(ctx, fieldErrors(validatorError, out))
		return false
	}

	var maxBytesError *http.MaxBytesError
	if errors.As(err, &maxBytesError) {
		RespondError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large")
		return false
	}

	var unmatchedTypeError *json.UnmarshalTypeError

	if errors.As(err, &unmatchedTypeError) {
		field := jsonPathFromDotPath(baseStructType(out), unmatchedTypeError.Field)

		if field == "" {
			field = strings.TrimSpace(unmatchedTypeError.Field)
		}

		RespondUnprocessable(ctx, []FieldError{{
			Field:   field,
			Rule:    "type",
			Message: fmt.Sprintf("must be of type %s", unmatchedTypeError.Type.String()),
		}})
		return false
	}

	// bad json, empty body and anything else the decoder rejects
	if errors.Is(err, io.EOF) {
		RespondBadRequest(ctx, "Request body is required")
		return false
	}

	RespondBadRequest(ctx, "Invalid JSON body")
	return false
}

func fieldErrors(validatorError validator.ValidationErrors, out interface{}) []FieldError {
	rootType := baseStructType(out)
	fields := make([]FieldError, 0, len(validatorError))

	for _, fieldError := range validatorError {
		field := jsonPathFromValidatorError(rootType, fieldError)
		rule := fieldError.Tag()
		param := fieldError.Param()

		fields = append(fields, FieldError{
			Field:   field,
			Rule:    rule,
			Param:   param,
			Message: validationMessage(rule, param, fieldError.Kind()),
		})
	}

	return fields
}

func baseStructType(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t != nil && t.Kind() == reflect.Struct {
		return t
	}

	return nil
}

func jsonPathFromValidatorError(rootType reflect.Type, fieldError validator.FieldError) string {
	// Namespace format is usually "<StructName>.<Field>[.<NestedField>...]".
	namespace := fieldError.StructNamespace()
	if namespace == "" {
		namespace = fieldError.Namespace()
	}

	if namespace == "" {
		return fieldError.Field()
	}

	parts := strings.Split(namespace, ".")

	if rootType != nil && rootType.Name() != "" && parts[0] == rootType.Name() {
		parts = parts[1:]
	}

	path := mapStructPathToJSONPath(rootType, parts)
	if path != "" {
		return path
	}

	return fieldError.Field()
}

func jsonPathFromDotPath(rootType reflect.Type, dotPath string) string {
	dotPath = strings.TrimSpace(dotPath)
	if dotPath == "" {
		return ""
	}

	return mapStructPathToJSONPath(rootType, strings.Split(dotPath, "."))
}

func mapStructPathToJSONPath(rootType reflect.Type, parts []string) string {
	if len(parts) == 0 {
		return ""
	}

	current := rootType
	out := make([]string, 0, len(parts))

	for _, rawPart := range parts {
		if rawPart == "" {
			continue
		}

		fieldName, indexSuffix := splitFieldIndex(rawPart)
		jsonName := fieldName

		nextType := reflect.Type(nil)
		if current != nil {
			for current.Kind() == reflect.Pointer {
				current = current.Elem()
			}

			if current.Kind() == reflect.Struct {
				if sf, ok := current.FieldByName(fieldName); ok {
					jsonName = jsonNameFromStructField(sf)
					nextType = sf.Type
				}
			}
		}

		out = append(out, jsonName+indexSuffix)

		if nextType != nil {
			current = unwindCollection(nextType)
		} else {
			current = nil
		}
	}

	return strings.Join(out, ".")
}

func splitFieldIndex(part string) (string, string) {
	idx := strings.Index(part, "[")
	if idx == -1 {
		return part, ""
	}

	return part[:idx], part[idx:]
}

func jsonNameFromStructField(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "" {
		return sf.Name
	}

	name, _, _ := strings.Cut(tag, ",")
	if name == "" || name == "-" {
		return sf.Name
	}

	return name
}

func unwindCollection(t reflect.Type) reflect.Type {
	for t != nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array:
			t = t.Elem()
		default:
			return t
		}
	}

	return nil
}

func validationMessage(rule, param string, kind reflect.Kind) string {
	switch rule {
	case "required":
		return "can't be blank"
	case "email":
		return "must be a valid email address"
	case "password":
		return "must include at least one lowercase letter, one uppercase letter, one digit, and one special character (" + security.SpecialChars + ")"
	case "password_bytes":
		return "is too long (maximum is 72 bytes)"
	case "eqfield":
		return "doesn't match " + param
	case "min":
		if kind == reflect.String {
			return "is too short (minimum is " + param + " characters)"
		}
		return "must be at least " + param
	case "max":
		if kind == reflect.String {
			return "is too long (maximum is " + param + " characters)"
		}
		return "must be at most " + param
	case "unique":
		return "has already been taken"
	case "blank":
		return "can't be blank"
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}
