// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// Passwords never reach the database in clear text: they are hashed with
// bcrypt before the insert, over a SHA-256 digest so that passwords longer
// than bcrypt's 72-byte input limit are accepted too. Free-form comments are stripped of any markup
// with bluemonday's strict policy, since whatever reads them back later may
// well be a web page.
package sqlite

import (
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/crypto/bcrypt"

	"github.com/aanand-mishra/cafe-registration/internal/config"
	"github.com/aanand-mishra/cafe-registration/internal/storage"
	"github.com/aanand-mishra/cafe-registration/internal/types"
)

var _ storage.Storage = (*SQLite)(nil)

// SQLite is the concrete implementation of storage.Storage.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db *sql.DB

	sanitizer *bluemonday.Policy
	cost      int
	now       func() time.Time
}

// New opens the SQLite database at cfg.StoragePath, creates the
// registrations table if it does not exist yet and returns a ready-to-use
// *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	db, err := sql.Open("sqlite3", cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// Schema:
	//   email         — unique; a second registration for it is rejected
	//   password_hash — bcrypt hash, never the password itself
	//   terms         — always 1 for a stored row, kept for the record
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS registrations (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			name          TEXT     NOT NULL,
			email         TEXT     NOT NULL UNIQUE,
			password_hash TEXT     NOT NULL,
			phone         TEXT     NOT NULL DEFAULT '',
			payment       TEXT     NOT NULL DEFAULT '',
			gender        TEXT     NOT NULL DEFAULT '',
			terms         BOOLEAN  NOT NULL,
			comments      TEXT     NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{
		Db:        db,
		sanitizer: bluemonday.StrictPolicy(),
		cost:      bcrypt.DefaultCost,
		now:       time.Now,
	}, nil
}

// Close releases the underlying connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

// CreateRegistration hashes the password, sanitises the comments and
// inserts a new row.
func (s *SQLite) CreateRegistration(reg types.Registration) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword(passwordKey(reg.Password), s.cost)
	if err != nil {
		return 0, fmt.Errorf("CreateRegistration: hash password: %w", err)
	}

	stmt, err := s.Db.Prepare(`
		INSERT INTO registrations
			(name, email, password_hash, phone, payment, gender, terms, comments, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("CreateRegistration: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.Exec(
		reg.Name,
		reg.Email,
		string(hash),
		reg.Phone,
		string(reg.Payment),
		string(reg.Gender),
		reg.Terms,
		s.sanitizer.Sanitize(reg.Comments),
		s.now().UTC(),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return 0, fmt.Errorf("CreateRegistration: %w", storage.ErrDuplicateEmail)
		}
		return 0, fmt.Errorf("CreateRegistration: exec: %w", err)
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("CreateRegistration: last insert id: %w", err)
	}

	return lastID, nil
}

// passwordKey is what bcrypt sees for a password: the base64 of its
// SHA-256, always 44 bytes.
func passwordKey(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

const selectAccount = `
	SELECT id, name, email, password_hash, phone, payment, gender, terms, comments, created_at
	FROM registrations`

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (types.Account, error) {
	var (
		acc     types.Account
		payment string
		gender  string
	)
	err := row.Scan(
		&acc.ID,
		&acc.Name,
		&acc.Email,
		&acc.PasswordHash,
		&acc.Phone,
		&payment,
		&gender,
		&acc.Terms,
		&acc.Comments,
		&acc.CreatedAt,
	)
	acc.Payment = types.Payment(payment)
	acc.Gender = types.Gender(gender)
	return acc, err
}

// GetRegistrationByID fetches exactly one row matched by primary key.
func (s *SQLite) GetRegistrationByID(id int64) (types.Account, error) {
	stmt, err := s.Db.Prepare(selectAccount + " WHERE id = ? LIMIT 1")
	if err != nil {
		return types.Account{}, fmt.Errorf("GetRegistrationByID: prepare: %w", err)
	}
	defer stmt.Close()

	acc, err := scanAccount(stmt.QueryRow(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Account{}, fmt.Errorf("no registration found with id %d: %w", id, storage.ErrNotFound)
		}
		return types.Account{}, fmt.Errorf("GetRegistrationByID: scan: %w", err)
	}

	return acc, nil
}

// GetRegistrations returns all rows ordered by id.
func (s *SQLite) GetRegistrations() ([]types.Account, error) {
	stmt, err := s.Db.Prepare(selectAccount + " ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("GetRegistrations: prepare: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.Query()
	if err != nil {
		return nil, fmt.Errorf("GetRegistrations: query: %w", err)
	}
	defer rows.Close()

	accounts := make([]types.Account, 0)
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("GetRegistrations: scan row: %w", err)
		}
		accounts = append(accounts, acc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetRegistrations: rows iteration: %w", err)
	}

	return accounts, nil
}

// DeleteRegistrationByID removes a row by primary key.
func (s *SQLite) DeleteRegistrationByID(id int64) error {
	stmt, err := s.Db.Prepare("DELETE FROM registrations WHERE id = ?")
	if err != nil {
		return fmt.Errorf("DeleteRegistrationByID: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.Exec(id)
	if err != nil {
		return fmt.Errorf("DeleteRegistrationByID: exec: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteRegistrationByID: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no registration found with id %d: %w", id, storage.ErrNotFound)
	}

	return nil
}
