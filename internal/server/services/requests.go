package services

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/dmitrijs2005/qaapi/internal/common"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// RegisterRequest is the payload of a self-service registration.
type RegisterRequest struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName *string `json:"full_name,omitempty"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 50),
			validation.Match(usernamePattern).Error("must contain only letters, digits and underscores")),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100), validation.By(passwordStrength)),
		validation.Field(&r.FullName, validation.Length(0, 100)),
	)
}

// ProfileUpdate is what a user may change about themselves.
type ProfileUpdate struct {
	Email    *string `json:"email,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	Password *string `json:"password,omitempty"`
}

func (r ProfileUpdate) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.NilOrNotEmpty, is.Email),
		validation.Field(&r.FullName, validation.Length(0, 100)),
		validation.Field(&r.Password, validation.NilOrNotEmpty, validation.Length(8, 100), validation.By(passwordStrength)),
	)
}

// AdminUpdate additionally lets a superuser toggle the active flag.
type AdminUpdate struct {
	ProfileUpdate
	IsActive *bool `json:"is_active,omitempty"`
}

func (r AdminUpdate) Validate() error {
	return r.ProfileUpdate.Validate()
}

// passwordStrength requires at least one digit and one uppercase letter.
func passwordStrength(value any) error {
	v, isNil := validation.Indirect(value)
	if isNil {
		return nil
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	if !strings.ContainsFunc(s, unicode.IsDigit) {
		return errors.New("must contain at least one digit")
	}
	if !strings.ContainsFunc(s, unicode.IsUpper) {
		return errors.New("must contain at least one uppercase letter")
	}
	return nil
}

type validatable interface {
	Validate() error
}

// validate runs v.Validate and wraps failures as *common.ValidationError.
func validate(v validatable) error {
	if err := v.Validate(); err != nil {
		return common.NewValidationError(err)
	}
	return nil
}
