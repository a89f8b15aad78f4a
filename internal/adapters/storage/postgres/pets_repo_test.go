package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"pet-registry/internal/domain/pets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requiere una base real: PET_REGISTRY_TEST_DSN=postgres://... go test ./...
func openTestDB(t *testing.T) *PetsRepo {
	t.Helper()

	dsn := os.Getenv("PET_REGISTRY_TEST_DSN")
	if dsn == "" {
		t.Skip("PET_REGISTRY_TEST_DSN not set")
	}

	db, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))
	_, err = db.ExecContext(ctx, `TRUNCATE pet_records, ownership_index, registry_counter`)
	require.NoError(t, err)

	return NewPetsRepo(db)
}

func TestPetsRepo_RoundTrip(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	created := time.Date(2025, 12, 22, 10, 0, 0, 123456789, time.UTC)
	updated := created.Add(time.Minute)
	to := pets.Identity("bob")
	rec := pets.Record{
		ID:          1,
		Name:        "Milo",
		Breed:       "mixed",
		Sex:         "male",
		DateOfBirth: "2020-01-01",
		ImageURL:    "https://img/milo.png",
		CreatedAt:   created,
		UpdatedAt:   &updated,
		TransferTo:  &to,
		Owner:       pets.Owner{ID: "alice", Name: "Alice", Address: "Main St", PhoneNumber: "555"},
	}

	require.NoError(t, repo.Apply(ctx, pets.Change{
		Counter: 1,
		Put:     &rec,
		Index: []pets.IndexOp{
			{Collection: pets.CollectionOwned, Identity: "alice", PetID: 1},
			{Collection: pets.CollectionPending, Identity: "bob", PetID: 1},
		},
	}))

	snap, err := repo.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, snap.Verify())
	require.Len(t, snap.Records, 1)
	assert.Equal(t, rec, snap.Records[0])
	assert.Equal(t, uint64(1), snap.Counter)
	assert.Equal(t, []pets.PetID{1}, snap.Pending["bob"])
}

func TestPetsRepo_Apply_RollsBackOnIndexError(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	rec := pets.Record{ID: 1, CreatedAt: time.Unix(0, 1).UTC(), Owner: pets.Owner{ID: "alice"}}
	require.NoError(t, repo.Apply(ctx, pets.Change{
		Counter: 1,
		Put:     &rec,
		Index:   []pets.IndexOp{{Collection: pets.CollectionOwned, Identity: "alice", PetID: 1}},
	}))

	moved := rec
	moved.Owner.ID = "bob"
	err := repo.Apply(ctx, pets.Change{
		Counter: 1,
		Put:     &moved,
		Index: []pets.IndexOp{
			{Collection: pets.CollectionOwned, Identity: "alice", PetID: 1, Remove: true},
			{Collection: pets.CollectionPending, Identity: "bob", PetID: 1, Remove: true},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pets.ErrNotFound))

	snap, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, pets.Identity("alice"), snap.Records[0].Owner.ID)
	assert.Equal(t, []pets.PetID{1}, snap.Owned["alice"])
}

func TestUpSection(t *testing.T) {
	got := upSection("-- +migrate Up\nCREATE TABLE x();\n-- +migrate Down\nDROP TABLE x;")
	assert.Equal(t, "\nCREATE TABLE x();\n", got)
	assert.Equal(t, "SELECT 1", upSection("SELECT 1"))
}
