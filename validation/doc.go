// Package validation checks decoded request bodies.
//
// Struct tags cover presence and ranges:
//
//	type previewRequest struct {
//	    Path             *string `json:"path" validate:"required"`
//	    ExpiresInSeconds int     `json:"expiresInSeconds" validate:"gte=0"`
//	}
//	err := validation.Validate(req)
//
// Rules that span fields collect into FieldErrors:
//
//	var fe validation.FieldErrors
//	fe.Check(req.Paths != nil || req.Items != nil, "paths", "paths or items must be provided")
//	err := fe.Err()
//
// Both return an errors.InvalidBody AppError listing every failed field.
package validation
