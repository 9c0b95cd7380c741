// Package storage defines the Storage interface, the contract any
// database backend must satisfy to keep accepted registrations.
//
// Handlers and the submission collaborator depend only on this interface,
// so tests can pass a fake and the backend can change without touching
// them.
package storage

import (
	"errors"

	"github.com/aanand-mishra/cafe-registration/internal/types"
)

var (
	// ErrNotFound is returned when no registration has the requested id.
	ErrNotFound = errors.New("registration not found")

	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("email is already registered")
)

// Storage is the database contract.
type Storage interface {
	// CreateRegistration stores a validated registration and returns the
	// generated id. The password is hashed; confirmPassword is dropped.
	CreateRegistration(reg types.Registration) (int64, error)

	// GetRegistrationByID fetches one stored registration.
	// Returns ErrNotFound if there is none.
	GetRegistrationByID(id int64) (types.Account, error)

	// GetRegistrations returns every stored registration, oldest first.
	// Returns an empty slice (not nil) if there are none.
	GetRegistrations() ([]types.Account, error)

	// DeleteRegistrationByID removes a stored registration permanently.
	// Returns ErrNotFound if there is none.
	DeleteRegistrationByID(id int64) error
}
