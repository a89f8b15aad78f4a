package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"pet-registry/internal/domain/pets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPetRepo_ApplyAndLoad(t *testing.T) {
	ctx := context.Background()
	repo := NewPetRepo()

	rec := pets.Record{
		ID:        1,
		Name:      "Milo",
		CreatedAt: time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC),
		Owner:     pets.Owner{ID: "alice"},
	}
	require.NoError(t, repo.Apply(ctx, pets.Change{
		Counter: 1,
		Put:     &rec,
		Index:   []pets.IndexOp{{Collection: pets.CollectionOwned, Identity: "alice", PetID: 1}},
	}))

	snap, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Counter)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "Milo", snap.Records[0].Name)
	assert.Equal(t, []pets.PetID{1}, snap.Owned["alice"])
	require.NoError(t, snap.Verify())

	// el snapshot es una copia
	snap.Owned["alice"][0] = 99
	again, _ := repo.Load(ctx)
	assert.Equal(t, []pets.PetID{1}, again.Owned["alice"])
}

func TestPetRepo_Apply_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	repo := NewPetRepo()

	rec := pets.Record{ID: 1, Owner: pets.Owner{ID: "alice"}}
	require.NoError(t, repo.Apply(ctx, pets.Change{
		Counter: 1,
		Put:     &rec,
		Index:   []pets.IndexOp{{Collection: pets.CollectionOwned, Identity: "alice", PetID: 1}},
	}))

	// segunda op falla (bob no tiene pending) => no debe quedar nada aplicado
	moved := rec
	moved.Owner.ID = "bob"
	err := repo.Apply(ctx, pets.Change{
		Counter: 1,
		Put:     &moved,
		Index: []pets.IndexOp{
			{Collection: pets.CollectionOwned, Identity: "alice", PetID: 1, Remove: true},
			{Collection: pets.CollectionPending, Identity: "bob", PetID: 1, Remove: true},
			{Collection: pets.CollectionOwned, Identity: "bob", PetID: 1},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pets.ErrNotFound))

	snap, _ := repo.Load(ctx)
	assert.Equal(t, []pets.PetID{1}, snap.Owned["alice"])
	assert.Empty(t, snap.Owned["bob"])
	assert.Equal(t, pets.Identity("alice"), snap.Records[0].Owner.ID)
}

func TestPetRepo_Delete_PrunesEmptyLists(t *testing.T) {
	ctx := context.Background()
	repo := NewPetRepo()

	rec := pets.Record{ID: 1, Owner: pets.Owner{ID: "alice"}}
	require.NoError(t, repo.Apply(ctx, pets.Change{
		Counter: 1,
		Put:     &rec,
		Index:   []pets.IndexOp{{Collection: pets.CollectionOwned, Identity: "alice", PetID: 1}},
	}))

	id := pets.PetID(1)
	require.NoError(t, repo.Apply(ctx, pets.Change{
		Counter: 1,
		Delete:  &id,
		Index:   []pets.IndexOp{{Collection: pets.CollectionOwned, Identity: "alice", PetID: 1, Remove: true}},
	}))

	snap, _ := repo.Load(ctx)
	assert.Empty(t, snap.Records)
	assert.NotContains(t, snap.Owned, pets.Identity("alice"))
	assert.Equal(t, uint64(1), snap.Counter)
}
