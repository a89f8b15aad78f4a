package pets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnershipIndex_AddKeepsInsertionOrder(t *testing.T) {
	x := NewOwnershipIndex()
	require.NoError(t, x.Add(CollectionOwned, "alice", 3))
	require.NoError(t, x.Add(CollectionOwned, "alice", 1))
	require.NoError(t, x.Add(CollectionOwned, "alice", 2))

	assert.Equal(t, []PetID{3, 1, 2}, x.List(CollectionOwned, "alice"))
	assert.Empty(t, x.List(CollectionPending, "alice"))
}

func TestOwnershipIndex_AddDuplicate(t *testing.T) {
	x := NewOwnershipIndex()
	require.NoError(t, x.Add(CollectionPending, "bob", 1))

	err := x.Add(CollectionPending, "bob", 1)
	assert.ErrorIs(t, err, ErrDuplicateEntry)
	assert.Equal(t, []PetID{1}, x.List(CollectionPending, "bob"))

	// misma mascota en la otra colección no es duplicado
	assert.NoError(t, x.Add(CollectionOwned, "bob", 1))
}

func TestOwnershipIndex_Remove(t *testing.T) {
	x := NewOwnershipIndex()
	require.NoError(t, x.Add(CollectionOwned, "alice", 1))
	require.NoError(t, x.Add(CollectionOwned, "alice", 2))

	require.NoError(t, x.Remove(CollectionOwned, "alice", 1))
	assert.Equal(t, []PetID{2}, x.List(CollectionOwned, "alice"))

	assert.ErrorIs(t, x.Remove(CollectionOwned, "alice", 1), ErrNotFound)
	assert.ErrorIs(t, x.Remove(CollectionOwned, "nobody", 2), ErrNotFound)
}

func TestOwnershipIndex_RemoveLastPrunesIdentity(t *testing.T) {
	x := NewOwnershipIndex()
	require.NoError(t, x.Add(CollectionOwned, "alice", 1))
	require.NoError(t, x.Remove(CollectionOwned, "alice", 1))

	assert.NotContains(t, x.snapshot(CollectionOwned), Identity("alice"))
	list := x.List(CollectionOwned, "alice")
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestOwnershipIndex_ListIsACopy(t *testing.T) {
	x := NewOwnershipIndex()
	require.NoError(t, x.Add(CollectionOwned, "alice", 1))

	list := x.List(CollectionOwned, "alice")
	list[0] = 42

	assert.Equal(t, []PetID{1}, x.List(CollectionOwned, "alice"))
}

func TestOwnershipIndex_CheckSimulatesInOrder(t *testing.T) {
	x := NewOwnershipIndex()
	require.NoError(t, x.Add(CollectionOwned, "alice", 1))
	require.NoError(t, x.Add(CollectionPending, "bob", 1))

	claim := []IndexOp{
		removeOp(CollectionOwned, "alice", 1),
		removeOp(CollectionPending, "bob", 1),
		addOp(CollectionOwned, "bob", 1),
	}
	require.NoError(t, x.Check(claim))
	// Check no muta
	assert.Equal(t, []PetID{1}, x.List(CollectionOwned, "alice"))

	// remove + add del mismo par es válido; dos removes no
	assert.NoError(t, x.Check([]IndexOp{removeOp(CollectionOwned, "alice", 1), addOp(CollectionOwned, "alice", 1)}))
	assert.ErrorIs(t, x.Check([]IndexOp{removeOp(CollectionOwned, "alice", 1), removeOp(CollectionOwned, "alice", 1)}), ErrNotFound)
	assert.ErrorIs(t, x.Check([]IndexOp{addOp(CollectionOwned, "carol", 5), addOp(CollectionOwned, "carol", 5)}), ErrDuplicateEntry)

	require.NoError(t, x.Apply(claim))
	assert.Empty(t, x.List(CollectionOwned, "alice"))
	assert.Empty(t, x.List(CollectionPending, "bob"))
	assert.Equal(t, []PetID{1}, x.List(CollectionOwned, "bob"))
}
