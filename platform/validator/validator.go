// Package validator checks configuration and credential structs against
// their validate tags.
package validator

import "github.com/go-playground/validator/v10"

// Validator wraps a go-playground validator instance.
type Validator struct {
	v *validator.Validate
}

// New creates a validator.
func New() *Validator {
	return &Validator{v: validator.New()}
}

// Struct validates every tagged field of s.
func (val *Validator) Struct(s any) error {
	return val.v.Struct(s)
}
