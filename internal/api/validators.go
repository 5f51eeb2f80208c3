package api

import (
	"reflect"
	"strings"
	"sync"

	"jober/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// registerValidators teaches gin's validator the enum tags and makes it
// report fields by their json or form names
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})

		_ = v.RegisterValidation("jobtype", func(fl validator.FieldLevel) bool {
			return models.JobType(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("appstatus", func(fl validator.FieldLevel) bool {
			return models.ApplicationStatus(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("signuprole", func(fl validator.FieldLevel) bool {
			return models.Role(fl.Field().String()).SelfAssignable()
		})
	})
}
