package dto

import (
	"errors"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prohmpiriya/gym-booking/internal/domain"
)

var registerOnce sync.Once

// RegisterValidators adds the "weekday" and "clock" tags to gin's validator
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		if err = v.RegisterValidation("weekday", validateWeekday); err != nil {
			return
		}
		err = v.RegisterValidation("clock", validateClock)
	})
	return err
}

func validateWeekday(fl validator.FieldLevel) bool {
	_, ok := domain.ParseWeekday(fl.Field().String())
	return ok
}

func validateClock(fl validator.FieldLevel) bool {
	_, _, err := domain.ParseClock(fl.Field().String())
	return err == nil
}
