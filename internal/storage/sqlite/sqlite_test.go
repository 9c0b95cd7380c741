package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aanand-mishra/cafe-registration/internal/config"
	"github.com/aanand-mishra/cafe-registration/internal/form"
	"github.com/aanand-mishra/cafe-registration/internal/storage"
	"github.com/aanand-mishra/cafe-registration/internal/submission"
	"github.com/aanand-mishra/cafe-registration/internal/types"
)

var fixedNow = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	cfg := &config.Config{StoragePath: filepath.Join(t.TempDir(), "registrations.db")}

	db, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	db.cost = bcrypt.MinCost
	db.now = func() time.Time { return fixedNow }
	return db
}

func registration(email string) types.Registration {
	return types.Registration{
		Name:            "Max Johnson",
		Email:           email,
		Password:        "longenough1",
		ConfirmPassword: "longenough1",
		Phone:           "+993 61 234567",
		Payment:         types.PaymentCard,
		Gender:          types.GenderMale,
		Terms:           true,
		Comments:        "Oat flat white",
	}
}

func TestCreateAndGetRegistration(t *testing.T) {
	db := newTestDB(t)

	id, err := db.CreateRegistration(registration("max@example.com"))
	require.NoError(t, err)
	require.Equal(t, int64(1), id)

	acc, err := db.GetRegistrationByID(id)
	require.NoError(t, err)
	require.Equal(t, "Max Johnson", acc.Name)
	require.Equal(t, "max@example.com", acc.Email)
	require.Equal(t, "+993 61 234567", acc.Phone)
	require.Equal(t, types.PaymentCard, acc.Payment)
	require.Equal(t, types.GenderMale, acc.Gender)
	require.True(t, acc.Terms)
	require.Equal(t, "Oat flat white", acc.Comments)
	require.True(t, fixedNow.Equal(acc.CreatedAt), "created_at %s", acc.CreatedAt)
}

func TestCreateRegistrationHashesPassword(t *testing.T) {
	db := newTestDB(t)

	id, err := db.CreateRegistration(registration("max@example.com"))
	require.NoError(t, err)

	acc, err := db.GetRegistrationByID(id)
	require.NoError(t, err)
	require.NotEqual(t, "longenough1", acc.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), passwordKey("longenough1")))
	require.Error(t, bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), passwordKey("longenough2")))
}

func TestCreateRegistrationLongPassword(t *testing.T) {
	db := newTestDB(t)
	long := strings.Repeat("a", 73)
	reg := registration("max@example.com")
	reg.Password = long
	reg.ConfirmPassword = long

	id, err := db.CreateRegistration(reg)
	require.NoError(t, err)

	acc, err := db.GetRegistrationByID(id)
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), passwordKey(long)))
	// the 73rd byte still counts
	require.Error(t, bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), passwordKey(long[:72])))
}

func TestControllerSubmitsLongPasswordToStore(t *testing.T) {
	db := newTestDB(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := form.New(submission.NewStore(db, log), form.WithLogger(log))

	long := strings.Repeat("é", 40) // 80 bytes
	c.Replace(registration("max@example.com"))
	require.NoError(t, c.UpdateField(types.FieldPassword, long, types.KindText))
	require.NoError(t, c.UpdateField(types.FieldConfirmPassword, long, types.KindText))

	res, err := c.Submit(context.Background())
	require.NoError(t, err)
	require.True(t, res.Submitted)
	require.Equal(t, int64(1), res.Receipt.ID)
	require.Equal(t, types.NewRegistration(), c.State())
}

func TestCreateRegistrationSanitizesComments(t *testing.T) {
	db := newTestDB(t)
	reg := registration("max@example.com")
	reg.Comments = `<b>Latte</b><script>alert("x")</script> please`

	id, err := db.CreateRegistration(reg)
	require.NoError(t, err)

	acc, err := db.GetRegistrationByID(id)
	require.NoError(t, err)
	require.Equal(t, "Latte please", acc.Comments)
}

func TestCreateRegistrationDuplicateEmail(t *testing.T) {
	db := newTestDB(t)

	_, err := db.CreateRegistration(registration("max@example.com"))
	require.NoError(t, err)

	_, err = db.CreateRegistration(registration("max@example.com"))
	require.ErrorIs(t, err, storage.ErrDuplicateEmail)
}

func TestGetRegistrations(t *testing.T) {
	db := newTestDB(t)

	accounts, err := db.GetRegistrations()
	require.NoError(t, err)
	require.NotNil(t, accounts)
	require.Empty(t, accounts)

	for _, email := range []string{"a@example.com", "b@example.com"} {
		_, err := db.CreateRegistration(registration(email))
		require.NoError(t, err)
	}

	accounts, err = db.GetRegistrations()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	require.Equal(t, "a@example.com", accounts[0].Email)
	require.Equal(t, "b@example.com", accounts[1].Email)
}

func TestGetRegistrationByIDNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetRegistrationByID(42)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteRegistrationByID(t *testing.T) {
	db := newTestDB(t)

	id, err := db.CreateRegistration(registration("max@example.com"))
	require.NoError(t, err)

	require.NoError(t, db.DeleteRegistrationByID(id))

	_, err = db.GetRegistrationByID(id)
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.ErrorIs(t, db.DeleteRegistrationByID(id), storage.ErrNotFound)
}
