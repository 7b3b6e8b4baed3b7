// Package validator checks request structs using `validate` tags.
package validator

// Validator returns nil or a V10ValidationError describing each bad field.
type Validator interface {
	Validate(data any) error
}
