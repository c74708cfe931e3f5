package models

import (
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"net/url"
	"reflect"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxPhotoBytes caps the decoded size of an inline data URI photo.
const MaxPhotoBytes = 5 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("issue_type", func(fl validator.FieldLevel) bool {
		return IssueType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		return Priority(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("photo", func(fl validator.FieldLevel) bool {
		return CheckPhotoURL(fl.Field().String()) == nil
	})
	return v
}

// NewIssueInput is the citizen-supplied part of an issue. Status, ids and
// timestamps are never taken from the client.
type NewIssueInput struct {
	IssueType       string   `json:"issue_type" validate:"required,issue_type"`
	Description     string   `json:"description" validate:"required,max=2000"`
	PhotoURL        *string  `json:"photo_url,omitempty" validate:"omitempty,photo"`
	Latitude        *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude       *float64 `json:"longitude" validate:"required,min=-180,max=180"`
	LocationAddress *string  `json:"location_address,omitempty" validate:"omitempty,max=500"`
	Priority        string   `json:"priority,omitempty" validate:"omitempty,priority"`
}

// Validate trims free text and checks every field, returning a ValidationError
// that names the offending fields.
func (in *NewIssueInput) Validate() error {
	in.Description = strings.TrimSpace(in.Description)
	if in.LocationAddress != nil {
		addr := strings.TrimSpace(*in.LocationAddress)
		if addr == "" {
			in.LocationAddress = nil
		} else {
			in.LocationAddress = &addr
		}
	}
	if in.PhotoURL != nil && strings.TrimSpace(*in.PhotoURL) == "" {
		in.PhotoURL = nil
	}
	return asValidationError(validate.Struct(in))
}

// Issue builds the pending issue owned by userID. Call Validate first.
func (in *NewIssueInput) Issue(userID primitive.ObjectID) *Issue {
	priority := Priority(in.Priority)
	if priority == "" {
		priority = PriorityMedium
	}
	return &Issue{
		UserID:          userID,
		IssueType:       IssueType(in.IssueType),
		Description:     in.Description,
		PhotoURL:        in.PhotoURL,
		Latitude:        *in.Latitude,
		Longitude:       *in.Longitude,
		LocationAddress: in.LocationAddress,
		Priority:        priority,
		Status:          Pending,
	}
}

// ValidationError reports input problems keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, name := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields[fe.Field()] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "issue_type":
		return "is not a known issue type"
	case "priority":
		return "must be one of low, medium, high, critical"
	case "photo":
		return "must be an http(s) URL or an image data URI"
	case "email":
		return "must be a valid email address"
	}
	return "is invalid"
}

// CheckPhotoURL accepts http(s) URLs and base64 data URIs whose payload is an image.
func CheckPhotoURL(raw string) error {
	if strings.HasPrefix(raw, "data:") {
		meta, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
		if !ok || !strings.HasSuffix(meta, ";base64") {
			return errors.New("data URI must be base64 encoded")
		}
		if base64.StdEncoding.DecodedLen(len(payload)) > MaxPhotoBytes+3 {
			return fmt.Errorf("photo exceeds %d bytes", MaxPhotoBytes)
		}
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return fmt.Errorf("decode photo: %w", err)
		}
		if len(data) > MaxPhotoBytes {
			return fmt.Errorf("photo exceeds %d bytes", MaxPhotoBytes)
		}
		detected := mimetype.Detect(data)
		if !strings.HasPrefix(detected.String(), "image/") {
			return fmt.Errorf("photo content is %s, not an image", detected.String())
		}
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("photo URL must be http or https")
	}
	return nil
}
