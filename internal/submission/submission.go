// Package submission holds the collaborators that receive a registration
// once it has passed validation.
package submission

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aanand-mishra/cafe-registration/internal/form"
	"github.com/aanand-mishra/cafe-registration/internal/storage"
	"github.com/aanand-mishra/cafe-registration/internal/types"
)

// Acknowledgement is the one-shot message shown after a successful
// registration.
const Acknowledgement = "Registration successful! Welcome aboard."

var (
	_ form.Submitter = (*Log)(nil)
	_ form.Submitter = (*Store)(nil)
)

// Log only records the registration in the log and acknowledges it.
type Log struct {
	log *slog.Logger
}

func NewLog(log *slog.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) Submit(ctx context.Context, reg types.Registration) (form.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return form.Receipt{}, err
	}
	l.log.InfoContext(ctx, "form data", slog.Any("registration", reg))
	return form.Receipt{Message: Acknowledgement}, nil
}

// Store persists the registration and acknowledges it with the new id.
type Store struct {
	storage storage.Storage
	log     *slog.Logger
}

func NewStore(storage storage.Storage, log *slog.Logger) *Store {
	return &Store{storage: storage, log: log}
}

func (s *Store) Submit(ctx context.Context, reg types.Registration) (form.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return form.Receipt{}, err
	}

	id, err := s.storage.CreateRegistration(reg)
	if err != nil {
		return form.Receipt{}, fmt.Errorf("submission.Store: %w", err)
	}

	s.log.InfoContext(ctx, "registration stored",
		slog.Int64("id", id),
		slog.Any("registration", reg))

	return form.Receipt{ID: id, Message: Acknowledgement}, nil
}
