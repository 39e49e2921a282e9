package utils

import (
	"log"
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// West African MSISDN: optional +225/+226/... prefix and 8 to 10 digits.
var phonePattern = regexp.MustCompile(`^(\+?22[0-9])?[0-9]{8,10}$`)

var registerOnce sync.Once

func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// ValidMobileMoneyAmount reports whether Cinetpay accepts the amount.
func ValidMobileMoneyAmount(amount int64) bool {
	return amount >= 100 && amount%5 == 0
}

func validatePhone(fl validator.FieldLevel) bool {
	return ValidPhone(fl.Field().String())
}

// RegisterValidators installs the custom "phone" binding tag on gin's validator.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			log.Println("Binding validator is not go-playground, custom tags not registered.")
			return
		}
		if err := v.RegisterValidation("phone", validatePhone); err != nil {
			log.Println("Failed to register phone validator:", err)
		}
	})
}
