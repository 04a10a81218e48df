// internal/utils/validator_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type contactForm struct {
	Email string `validate:"required,email"`
	Phone string `validate:"required,phone"`
}

func TestValidateStructPhone(t *testing.T) {
	valid := []string{"+15550142233", "5550142233", "1234567"}
	for _, phone := range valid {
		err := ValidateStruct(contactForm{Email: "a@b.com", Phone: phone})
		assert.NoError(t, err, phone)
	}

	invalid := []string{"", "123456", "+1 555 014 2233", "phone", "12345678901234567"}
	for _, phone := range invalid {
		err := ValidateStruct(contactForm{Email: "a@b.com", Phone: phone})
		assert.Error(t, err, phone)
	}
}

func TestGetValidationErrors(t *testing.T) {
	err := ValidateStruct(contactForm{Email: "not-an-email", Phone: "abc"})
	assert.Error(t, err)

	fields := GetValidationErrors(err)
	assert.Len(t, fields, 2)
	assert.Equal(t, "email", fields[0].Field)
	assert.Equal(t, "Invalid email format", fields[0].Message)
	assert.Equal(t, "phone", fields[1].Field)
	assert.Equal(t, "Invalid phone number", fields[1].Message)
}
