// Package form implements the registration form controller: it owns the
// field values (types.Registration) and the per-field error messages
// (types.Errors), and gates submission on validation.
//
// A Controller is a single-owner state container. It is not safe for
// concurrent use; callers that share one across goroutines (the session
// store does) must serialise access.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aanand-mishra/cafe-registration/internal/types"
)

// ErrUnknownField is returned by UpdateField for a key that is not part of
// the registration form.
var ErrUnknownField = errors.New("unknown field")

// Receipt is what a Submitter hands back for an accepted registration.
type Receipt struct {
	// ID of the stored record; zero when the collaborator does not store.
	ID int64 `json:"id,omitempty"`
	// Message is the one-shot acknowledgement shown to the user.
	Message string `json:"message"`
}

// Submitter receives a validated registration.
type Submitter interface {
	Submit(ctx context.Context, reg types.Registration) (Receipt, error)
}

// SubmitterFunc adapts a plain function to Submitter.
type SubmitterFunc func(ctx context.Context, reg types.Registration) (Receipt, error)

func (f SubmitterFunc) Submit(ctx context.Context, reg types.Registration) (Receipt, error) {
	return f(ctx, reg)
}

// Result describes the outcome of Submit.
type Result struct {
	// Submitted is true when validation passed and the collaborator
	// accepted the registration. The form has already been reset.
	Submitted bool
	// Errors holds the validation failures when Submitted is false.
	Errors types.Errors
	Receipt Receipt
}

// Controller owns one registration form.
type Controller struct {
	state     types.Registration
	errors    types.Errors
	submitter Submitter
	log       *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for submission events.
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// New returns a Controller holding the default form values. submitter
// receives every registration that passes validation.
func New(submitter Submitter, opts ...Option) *Controller {
	c := &Controller{
		state:     types.NewRegistration(),
		errors:    make(types.Errors),
		submitter: submitter,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a copy of the current field values.
func (c *Controller) State() types.Registration {
	return c.state
}

// Errors returns a copy of the current error messages.
func (c *Controller) Errors() types.Errors {
	return c.errors.Clone()
}

// UpdateField stores raw under key. For KindToggle the stored value is the
// checked state read by types.ParseToggle; every other kind stores raw
// verbatim. A stale message for key is cleared without re-validating.
func (c *Controller) UpdateField(key, raw string, kind types.Kind) error {
	if kind == types.KindToggle {
		if key != types.FieldTerms {
			return fmt.Errorf("UpdateField: %w: %q is not a toggle", ErrUnknownField, key)
		}
		c.state.Terms = types.ParseToggle(raw)
		c.clearError(key)
		return nil
	}

	switch key {
	case types.FieldName:
		c.state.Name = raw
	case types.FieldEmail:
		c.state.Email = raw
	case types.FieldPassword:
		c.state.Password = raw
	case types.FieldConfirmPassword:
		c.state.ConfirmPassword = raw
	case types.FieldPhone:
		c.state.Phone = raw
	case types.FieldPayment:
		c.state.Payment = types.Payment(raw)
	case types.FieldGender:
		c.state.Gender = types.Gender(raw)
	case types.FieldTerms:
		// a value-bearing update of the checkbox still carries its state
		c.state.Terms = types.ParseToggle(raw)
	case types.FieldComments:
		c.state.Comments = raw
	default:
		return fmt.Errorf("UpdateField: %w: %q", ErrUnknownField, key)
	}

	c.clearError(key)
	return nil
}

func (c *Controller) clearError(key string) {
	if c.errors[key] != "" {
		delete(c.errors, key)
	}
}

// Validate runs the validation rules over the current state and replaces
// the stored errors wholesale with the result.
func (c *Controller) Validate() types.Errors {
	c.errors = Validate(c.state)
	return c.errors.Clone()
}

// Submit validates the current state. On failure the errors are stored
// and returned and nothing is reset. On success the registration is handed
// to the Submitter and the form goes back to its defaults.
//
// If the Submitter fails, the state is kept so the user can try again and
// the error is returned.
func (c *Controller) Submit(ctx context.Context) (Result, error) {
	errs := c.Validate()
	if !errs.Valid() {
		c.log.Debug("registration rejected", slog.Int("errors", len(errs)))
		return Result{Errors: errs}, nil
	}

	receipt, err := c.submitter.Submit(ctx, c.state)
	if err != nil {
		return Result{Errors: errs}, fmt.Errorf("Submit: %w", err)
	}

	c.log.Info("registration submitted", slog.String("email", c.state.Email))
	c.Reset()

	return Result{Submitted: true, Errors: make(types.Errors), Receipt: receipt}, nil
}

// Replace loads a complete set of values at once, as a plain HTML form
// post does, and drops every stored error.
func (c *Controller) Replace(state types.Registration) {
	c.state = state
	c.errors = make(types.Errors)
}

// Reset restores the default values and clears every error.
func (c *Controller) Reset() {
	c.Replace(types.NewRegistration())
}
