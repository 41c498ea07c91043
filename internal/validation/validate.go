package validation

import "github.com/go-playground/validator/v10"

// Paylaşılan validator instance'ı; request DTO'larındaki
// `validate` tag'leri için
var Validate = validator.New()
