package utils

import (
	"net/mail"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type CustomValidator struct {
	Validator *validator.Validate
}

func NewCustomValidator() *CustomValidator {
	Validator := &CustomValidator{validator.New()}
	Validator.ValidatorRegistery()
	return Validator
}

func (c *CustomValidator) ValidatorRegistery() {
	c.Validator.RegisterValidation("isemail", c.IsValidEmail)
	c.Validator.RegisterValidation("isphone", c.IsValidPhone)
}

// RegisterBindingValidations makes the custom tags usable in gin binding
// tags.
func RegisterBindingValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		(&CustomValidator{Validator: v}).ValidatorRegistery()
	}
}

func (c *CustomValidator) IsValidEmail(fl validator.FieldLevel) bool {

	email := strings.TrimSpace(fl.Field().String())
	_, err := mail.ParseAddress(email)
	return err == nil
}

// IsValidPhone accepts international numbers written with the usual
// separators, as long as they hold 10 to 15 digits.
func (c *CustomValidator) IsValidPhone(fl validator.FieldLevel) bool {
	return IsPhone(fl.Field().String())
}

func IsPhone(phoneNumber string) bool {
	phoneNumber = strings.TrimSpace(phoneNumber)
	digits := 0
	for i, char := range phoneNumber {
		switch {
		case unicode.IsDigit(char):
			digits++
		case char == '+' && i == 0:
		case char == ' ' || char == '-' || char == '(' || char == ')' || char == '.':
		default:
			return false
		}
	}
	return digits >= 10 && digits <= 15
}
