package dto

import "github.com/go-playground/validator/v10"

// ErrorResponse HTTP error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var validate = validator.New()

// Validate runs struct-tag validation on a request DTO.
func Validate(s any) error {
	return validate.Struct(s)
}
