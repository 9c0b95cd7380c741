// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// the form controller, storage, handlers and the terminal surface can all
// import types without depending on each other.
package types

import (
	"log/slog"
	"time"
)

// Field keys. These are the only keys a Registration (and therefore an
// Errors map) may hold.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
	FieldPhone           = "phone"
	FieldPayment         = "payment"
	FieldGender          = "gender"
	FieldTerms           = "terms"
	FieldComments        = "comments"
)

// Payment is the preferred payment method. The empty value means unset.
type Payment string

const (
	PaymentUnset   Payment = ""
	PaymentCard    Payment = "card"
	PaymentCash    Payment = "cash"
	PaymentBalance Payment = "balance"
)

// Gender is the optional gender selection.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// DefaultGender is used both for a fresh form and after a successful
// submission resets it.
const DefaultGender = GenderMale

// Registration is the FormState: the current value of every field in the
// registration form.
//
// Struct tags serve three purposes:
//
//  1. json:"..."     — wire name for the HTTP API (and the key used in Errors).
//  2. form:"..."     — name in an application/x-www-form-urlencoded post,
//     decoded by go-playground/form.
//  3. validate:"..." — rules checked by go-playground/validator. The custom
//     tags (notblank, emailshape) are registered by the form package.
//
// Values are stored verbatim; nothing is trimmed or normalised on write.
type Registration struct {
	Name            string  `json:"name"            form:"name"            validate:"notblank"`
	Email           string  `json:"email"           form:"email"           validate:"required,emailshape"`
	Password        string  `json:"password"        form:"password"        validate:"required,min=8"`
	ConfirmPassword string  `json:"confirmPassword" form:"confirmPassword" validate:"eqfield=Password"`
	Phone           string  `json:"phone"           form:"phone"`
	Payment         Payment `json:"payment"         form:"payment"`
	Gender          Gender  `json:"gender"          form:"gender"`
	Terms           bool    `json:"terms"           form:"terms"           validate:"required"`
	Comments        string  `json:"comments"        form:"comments"`
}

// NewRegistration returns a Registration holding the initial defaults:
// every text field empty, payment unset, gender defaulted, terms unchecked.
func NewRegistration() Registration {
	return Registration{Gender: DefaultGender}
}

// LogValue implements slog.LogValuer so a Registration can be logged
// directly without ever writing a password to the log.
func (r Registration) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String(FieldName, r.Name),
		slog.String(FieldEmail, r.Email),
		slog.String(FieldPassword, redact(r.Password)),
		slog.String(FieldConfirmPassword, redact(r.ConfirmPassword)),
		slog.String(FieldPhone, r.Phone),
		slog.String(FieldPayment, string(r.Payment)),
		slog.String(FieldGender, string(r.Gender)),
		slog.Bool(FieldTerms, r.Terms),
		slog.String(FieldComments, r.Comments),
	)
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "[REDACTED]"
}

// Errors is the ErrorState: field key → human-readable message.
// A missing key or an empty message both mean the field is valid.
type Errors map[string]string

// Has reports whether key currently carries a non-empty message.
func (e Errors) Has(key string) bool {
	return e[key] != ""
}

// Valid reports whether no field carries a message.
func (e Errors) Valid() bool {
	for _, msg := range e {
		if msg != "" {
			return false
		}
	}
	return true
}

// Clone returns an independent copy. Empty messages are dropped.
func (e Errors) Clone() Errors {
	out := make(Errors, len(e))
	for k, v := range e {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Account is a registration accepted by the store. The password only
// exists as a hash and is never encoded back to clients.
type Account struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone"`
	Payment      Payment   `json:"payment"`
	Gender       Gender    `json:"gender"`
	Terms        bool      `json:"terms"`
	Comments     string    `json:"comments"`
	CreatedAt    time.Time `json:"createdAt"`
}
