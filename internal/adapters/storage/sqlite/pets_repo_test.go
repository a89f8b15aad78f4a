package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"pet-registry/internal/domain/pets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRepo(t *testing.T, path string) *PetsRepo {
	t.Helper()
	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPetsRepo(db)
}

func record(id pets.PetID, owner pets.Identity, created time.Time) pets.Record {
	return pets.Record{
		ID:        id,
		Name:      "Firulais",
		Breed:     "mestizo",
		Sex:       "male",
		CreatedAt: created,
		Owner:     pets.Owner{ID: owner, Name: "Ana", Address: "Calle 1", PhoneNumber: "555"},
	}
}

func TestPetsRepo_EmptyLoad(t *testing.T) {
	repo := openTestRepo(t, filepath.Join(t.TempDir(), "reg.db"))

	snap, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Zero(t, snap.Counter)
	assert.Empty(t, snap.Records)
	assert.Empty(t, snap.Owned)
	assert.Empty(t, snap.Pending)
}

func TestPetsRepo_TransferRoundTrip_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "reg.db")
	repo := openTestRepo(t, path)

	created := time.Date(2026, 3, 1, 10, 0, 0, 123456789, time.UTC)
	rec := record(1, "alice", created)
	require.NoError(t, repo.Apply(ctx, pets.Change{
		Counter: 1,
		Put:     &rec,
		Index:   []pets.IndexOp{{Collection: pets.CollectionOwned, Identity: "alice", PetID: 1}},
	}))

	// alice -> bob queda pendiente
	bob := pets.Identity("bob")
	updated := created.Add(time.Minute)
	rec.TransferTo = &bob
	rec.UpdatedAt = &updated
	require.NoError(t, repo.Apply(ctx, pets.Change{
		Counter: 1,
		Put:     &rec,
		Index:   []pets.IndexOp{{Collection: pets.CollectionPending, Identity: "bob", PetID: 1}},
	}))

	require.NoError(t, repo.DB().Close())
	repo = openTestRepo(t, path)

	snap, err := repo.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, snap.Verify())
	assert.EqualValues(t, 1, snap.Counter)
	require.Len(t, snap.Records, 1)

	got := snap.Records[0]
	assert.True(t, got.CreatedAt.Equal(created))
	require.NotNil(t, got.UpdatedAt)
	assert.True(t, got.UpdatedAt.Equal(updated))
	require.NotNil(t, got.TransferTo)
	assert.Equal(t, bob, *got.TransferTo)
	assert.Equal(t, rec.Owner, got.Owner)
	assert.Equal(t, []pets.PetID{1}, snap.Owned["alice"])
	assert.Equal(t, []pets.PetID{1}, snap.Pending["bob"])
}

func TestPetsRepo_Apply_RollsBackOnIndexError(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t, filepath.Join(t.TempDir(), "reg.db"))

	rec := record(1, "alice", time.Now().UTC())
	require.NoError(t, repo.Apply(ctx, pets.Change{
		Counter: 1,
		Put:     &rec,
		Index:   []pets.IndexOp{{Collection: pets.CollectionOwned, Identity: "alice", PetID: 1}},
	}))

	other := record(2, "alice", time.Now().UTC())
	err := repo.Apply(ctx, pets.Change{
		Counter: 2,
		Put:     &other,
		Index: []pets.IndexOp{
			{Collection: pets.CollectionOwned, Identity: "alice", PetID: 2},
			{Collection: pets.CollectionOwned, Identity: "alice", PetID: 1}, // duplicado
		},
	})
	require.ErrorIs(t, err, pets.ErrDuplicateEntry)

	err = repo.Apply(ctx, pets.Change{
		Counter: 2,
		Index:   []pets.IndexOp{{Collection: pets.CollectionPending, Identity: "carol", PetID: 1, Remove: true}},
	})
	require.ErrorIs(t, err, pets.ErrNotFound)

	snap, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, snap.Counter)
	assert.Len(t, snap.Records, 1)
	assert.Equal(t, []pets.PetID{1}, snap.Owned["alice"])
}

func TestPetsRepo_Delete_CounterNeverGoesBack(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t, filepath.Join(t.TempDir(), "reg.db"))

	rec := record(3, "alice", time.Now().UTC())
	require.NoError(t, repo.Apply(ctx, pets.Change{
		Counter: 3,
		Put:     &rec,
		Index:   []pets.IndexOp{{Collection: pets.CollectionOwned, Identity: "alice", PetID: 3}},
	}))

	id := pets.PetID(3)
	require.NoError(t, repo.Apply(ctx, pets.Change{
		Counter: 1,
		Delete:  &id,
		Index:   []pets.IndexOp{{Collection: pets.CollectionOwned, Identity: "alice", PetID: 3, Remove: true}},
	}))

	snap, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, snap.Counter)
	assert.Empty(t, snap.Records)
	assert.Empty(t, snap.Owned)
}
