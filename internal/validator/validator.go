// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"lizsys/internal/finance"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("contract_status", validateContractStatus)
		_ = v.RegisterValidation("asset_status", validateAssetStatus)
		_ = v.RegisterValidation("document_kind", validateDocumentKind)
		_ = v.RegisterValidation("date", validateDate)
	}
}

func validateContractStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "active", "transferred":
		return true
	}
	return false
}

func validateAssetStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "available", "leased", "maintenance", "retired":
		return true
	}
	return false
}

func validateDocumentKind(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "maintenance", "insurance", "other":
		return true
	}
	return false
}

func validateDate(fl validator.FieldLevel) bool {
	_, err := finance.ParseDate(fl.Field().String())
	return err == nil
}
