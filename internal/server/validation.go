package server

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/klass-lk/miniblog/internal/slug"
)

var (
	registerOnce sync.Once

	// Usernames never contain "@", so a login identifier is unambiguous.
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

// RegisterValidations adds the custom rules to gin's validator and reports
// fields by their json name. It panics when the rules cannot be installed,
// since every request using them would fail later.
func RegisterValidations() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			panic(fmt.Sprintf("unexpected validator engine %T", binding.Validator.Engine()))
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return field.Name
			}
			return name
		})
		rules := map[string]validator.Func{
			"slug": func(fl validator.FieldLevel) bool {
				return slug.Valid(fl.Field().String())
			},
			"username": func(fl validator.FieldLevel) bool {
				return usernamePattern.MatchString(fl.Field().String())
			},
		}
		for tag, fn := range rules {
			if err := v.RegisterValidation(tag, fn); err != nil {
				panic(fmt.Sprintf("register %q validation: %v", tag, err))
			}
		}
	})
}
