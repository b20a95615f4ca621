// Package validation holds the request schemas shared by the HTTP handlers
// and turns binding failures into field-level issues.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Issue is one failed rule, addressed by the JSON path of the field.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var (
	registerOnce sync.Once
	hhmm         = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// Register installs the custom rules and JSON field naming on gin's
// validator. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonName)
		_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
			return primitive.IsValidObjectID(fl.Field().String())
		})
		_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
			return hhmm.MatchString(fl.Field().String())
		})
	})
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// Issues converts a binding error into a list of issues.
func Issues(err error) []Issue {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]Issue, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, Issue{Field: fieldPath(fe), Message: message(fe)})
		}
		return out
	}

	if errors.Is(err, io.EOF) {
		return []Issue{{Field: "", Message: "Request body is required"}}
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return []Issue{{Field: "", Message: "Malformed JSON"}}
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []Issue{{Field: typeErr.Field, Message: fmt.Sprintf("Expected %s", typeErr.Type.String())}}
	}
	return []Issue{{Field: "", Message: err.Error()}}
}

// fieldPath drops the top-level struct name from the namespace, e.g.
// "DietPlanInput.meals[0].name" becomes "meals[0].name".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Required"
	case "email":
		return "Invalid email"
	case "url":
		return "Invalid url"
	case "objectid":
		return "Invalid id"
	case "hhmm":
		return "Expected time as HH:MM"
	case "oneof":
		return "Expected one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min", "gte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must contain at least %s character(s)", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must contain at most %s character(s)", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Must contain at most %s item(s)", fe.Param())
		}
		return fmt.Sprintf("Must be less than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	default:
		return fmt.Sprintf("Failed %s validation", fe.Tag())
	}
}

// BindJSON binds the body into req and writes the 400 response on failure.
func BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		Abort(c, Issues(err)...)
		return false
	}
	return true
}

// Abort writes the validation failure response.
func Abort(c *gin.Context, issues ...Issue) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":   "Validation failed",
		"details": issues,
	})
}
