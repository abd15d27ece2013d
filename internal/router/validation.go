package router

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/VictorRomo99/veterinaria-pro/internal/model"
)

// registerValidators adds the date and clock formats used by scheduling
// requests to gin's binding validator.
func registerValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	_ = v.RegisterValidation("dateformat", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(model.DateLayout, fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("clockformat", func(fl validator.FieldLevel) bool {
		return model.MinuteOf(fl.Field().String()) >= 0
	})
}
