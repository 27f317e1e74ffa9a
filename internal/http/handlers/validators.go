package handlers

import (
	"github.com/geocoder89/admithub/internal/domain/user"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// hook the userid shape rule into gin's binding validator so DTO tags can use
// it directly

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("userid", func(fl validator.FieldLevel) bool {
			return user.ValidID(fl.Field().String())
		})
	}
}
