package auth_test

import (
	"context"
	"os"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront/internal/auth"
	"github.com/vasiliy-maslov/storefront/internal/db/dbtest"
)

var testDB *pgxpool.Pool

func TestMain(m *testing.M) {
	pool, err := dbtest.Open(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare test database")
	}
	testDB = pool

	exitCode := m.Run()

	if testDB != nil {
		testDB.Close()
	}
	os.Exit(exitCode)
}

func setupRepository(t *testing.T) auth.Repository {
	t.Helper()
	dbtest.RequirePool(t, testDB)
	dbtest.Reset(t, testDB)
	t.Cleanup(func() { dbtest.Reset(t, testDB) })
	return auth.NewRepository(testDB)
}

func TestRepository_CreateAndFetch(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &auth.User{Email: "  Jane@Example.com ", PasswordHash: "hash", FullName: "Jane Doe"})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "jane@example.com", created.Email)
	assert.False(t, created.CreatedAt.IsZero())

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", byID.FullName)
	assert.Equal(t, "hash", byID.PasswordHash)
	assert.False(t, byID.IsAdmin)

	byEmail, err := repo.GetByEmail(ctx, "JANE@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
}

func TestRepository_CreateDuplicateEmail(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, &auth.User{Email: "dup@example.com", PasswordHash: "hash", FullName: "First"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &auth.User{Email: "DUP@example.com", PasswordHash: "hash", FullName: "Second"})
	require.ErrorIs(t, err, auth.ErrEmailExists)
}

func TestRepository_NotFound(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, uuid.Must(uuid.NewV4()))
	require.ErrorIs(t, err, auth.ErrNotFound)

	_, err = repo.GetByEmail(ctx, "ghost@example.com")
	require.ErrorIs(t, err, auth.ErrNotFound)
}
