package handler

import (
	"errors"
	"io"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/dto"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
	apperrors "github.com/HitaloNasc/v-lab-tech-lead-test/pkg/errors"
	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/response"
)

var (
	cpfPattern      = regexp.MustCompile(`^\d{3}\.?\d{3}\.?\d{3}-?\d{2}$`)
	roleNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{1,49}$`)

	registerOnce sync.Once
)

// RegisterValidators installs the custom binding tags on gin's validator.
// Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		// report wire names in error details
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" {
				name = f.Tag.Get("form")
			}
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})

		// validate the inner value of a patch field; absent and null skip omitempty rules
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			n := field.Interface().(model.Nullable[string])
			if n.Value == nil {
				return nil
			}
			return *n.Value
		}, model.Nullable[string]{})
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			n := field.Interface().(model.Nullable[dto.Date])
			if n.Value == nil {
				return nil
			}
			return n.Value.Time
		}, model.Nullable[dto.Date]{})

		_ = v.RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
			return cpfPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("role_name", func(fl validator.FieldLevel) bool {
			return roleNamePattern.MatchString(strings.TrimSpace(fl.Field().String()))
		})
	})
}

// bindJSON decodes and validates the body, writing the error response on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		failBinding(c, err)
		return false
	}
	return true
}

func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		failBinding(c, err)
		return false
	}
	return true
}

// deleteReason reads the optional {"reason": "..."} body of a delete. An
// empty body is allowed.
func deleteReason(c *gin.Context) (*string, bool) {
	var req dto.DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, true
		}
		failBinding(c, err)
		return nil, false
	}
	return req.Reason, true
}

// failBinding maps validator errors to a 422 with one detail per field;
// anything else is a malformed payload.
func failBinding(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		response.BadRequest(c, "malformed request payload")
		return
	}

	details := make([]apperrors.Detail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, apperrors.Detail{Field: fieldPath(fe), Reason: reasonFor(fe)})
	}
	response.Fail(c, apperrors.Validation("request validation failed", details...))
}

// fieldPath keeps the json segments of the namespace:
// "CreateUserRequest.candidate_profile.cpf" becomes "candidate_profile.cpf".
// Go identifiers (the root struct and embedded structs) start upper case.
func fieldPath(fe validator.FieldError) string {
	parts := strings.Split(fe.Namespace(), ".")
	kept := parts[:0]
	for _, p := range parts {
		if p != "" && unicode.IsUpper(rune(p[0])) {
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return fe.Field()
	}
	return strings.Join(kept, ".")
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "max":
		return "max_length"
	case "min":
		if fe.Kind() == reflect.String {
			return "min_length"
		}
		return "too_small"
	default:
		return "invalid"
	}
}
