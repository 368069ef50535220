package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxKeyLength bounds author and blueprint names.
const MaxKeyLength = 128

// MaxPoints bounds the number of points accepted in a single create request.
const MaxPoints = 10000

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// PointInput is a point as decoded from a request body. Nil coordinates mean
// the field was absent.
type PointInput struct {
	X *int
	Y *int
}

// CreateBlueprintRequest mirrors the fields needed for create blueprint validation.
type CreateBlueprintRequest struct {
	Author string
	Name   string
	Points []PointInput
}

// ValidateCreateBlueprintRequest validates the fields of a create blueprint request.
// Returns a slice of field errors; empty slice means valid.
func ValidateCreateBlueprintRequest(req CreateBlueprintRequest) []FieldError {
	var errs []FieldError

	errs = append(errs, validateKeyPart("author", req.Author)...)
	errs = append(errs, validateKeyPart("name", req.Name)...)

	if len(req.Points) > MaxPoints {
		errs = append(errs, FieldError{Field: "points", Message: fmt.Sprintf("points must contain at most %d entries", MaxPoints)})
		return errs
	}
	for i, p := range req.Points {
		errs = append(errs, validatePoint(fmt.Sprintf("points[%d]", i), p)...)
	}

	return errs
}

// ValidateAddPointRequest validates the body of an add point request.
func ValidateAddPointRequest(p PointInput) []FieldError {
	return validatePoint("", p)
}

func validateKeyPart(field, value string) []FieldError {
	v := strings.TrimSpace(value)
	switch {
	case v == "":
		return []FieldError{{Field: field, Message: field + " is required"}}
	case utf8.RuneCountInString(v) > MaxKeyLength:
		return []FieldError{{Field: field, Message: fmt.Sprintf("%s must be at most %d characters", field, MaxKeyLength)}}
	case strings.ContainsRune(v, '/'):
		return []FieldError{{Field: field, Message: field + " must not contain '/'"}}
	}
	return nil
}

func validatePoint(prefix string, p PointInput) []FieldError {
	var errs []FieldError
	if p.X == nil {
		errs = append(errs, FieldError{Field: join(prefix, "x"), Message: "x is required"})
	}
	if p.Y == nil {
		errs = append(errs, FieldError{Field: join(prefix, "y"), Message: "y is required"})
	}
	return errs
}

func join(prefix, field string) string {
	if prefix == "" {
		return field
	}
	return prefix + "." + field
}
