package api

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// GenerateInvoiceRequest is the body of POST /api/generate-invoice.
// Optional business fields override process-wide configuration.
type GenerateInvoiceRequest struct {
	Chats         []string `json:"chats" validate:"required,min=1,dive,required"`
	UPIID         string   `json:"upi_id" validate:"required,min=3,max=100"`
	CustomerName  string   `json:"customer_name" validate:"required,min=1,max=200"`
	CustomerPhone string   `json:"customer_phone"`
	CustomerEmail string   `json:"customer_email" validate:"omitempty,email"`
	PayeeName     string   `json:"payee_name" validate:"omitempty,max=100"`

	BusinessName    string `json:"business_name" validate:"omitempty,max=200"`
	BusinessAddress string `json:"business_address" validate:"omitempty,max=500"`
	BusinessPhone   string `json:"business_phone"`
	BusinessEmail   string `json:"business_email" validate:"omitempty,email"`
	BusinessGST     string `json:"business_gst" validate:"omitempty,max=50"`
}

// TestParseRequest is the body of POST /api/test-parse.
type TestParseRequest struct {
	Chats []string `json:"chats" validate:"required,min=1,dive,required"`
}

// newValidator returns a validator reporting fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationDetails flattens validator errors into field → message.
func validationDetails(err error) map[string]string {
	details := make(map[string]string)
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		details["request"] = err.Error()
		return details
	}
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			details[field] = "this field is required"
		case "min":
			details[field] = "value is too short (min " + fe.Param() + ")"
		case "max":
			details[field] = "value is too long (max " + fe.Param() + ")"
		case "email":
			details[field] = "must be a valid email address"
		default:
			details[field] = "invalid value"
		}
	}
	return details
}
