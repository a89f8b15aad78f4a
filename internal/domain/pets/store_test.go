package pets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordStore_AllocateID_StartsAtOneAndNeverRepeats(t *testing.T) {
	s := NewRecordStore()
	assert.Zero(t, s.Counter())

	var prev PetID
	for i := 0; i < 5; i++ {
		id := s.AllocateID()
		assert.Greater(t, id, prev)
		prev = id
	}
	assert.EqualValues(t, 1+4, prev)

	s.Put(Record{ID: prev})
	_, ok := s.Remove(prev)
	require.True(t, ok)
	assert.EqualValues(t, 6, s.AllocateID())
}

func TestRecordStore_GetReturnsCopy(t *testing.T) {
	s := NewRecordStore()
	to := Identity("bob")
	now := time.Now()
	s.Put(Record{ID: 1, Name: "Milo", TransferTo: &to, UpdatedAt: &now})

	got, ok := s.Get(1)
	require.True(t, ok)
	*got.TransferTo = "mallory"
	got.Name = "changed"

	again, _ := s.Get(1)
	assert.Equal(t, "Milo", again.Name)
	assert.Equal(t, Identity("bob"), *again.TransferTo)
}

func TestRecordStore_PutUpserts(t *testing.T) {
	s := NewRecordStore()
	s.Put(Record{ID: 1, Name: "a"})
	s.Put(Record{ID: 1, Name: "b"})

	assert.Equal(t, 1, s.Len())
	got, _ := s.Get(1)
	assert.Equal(t, "b", got.Name)
}

func TestRecordStore_MissingID(t *testing.T) {
	s := NewRecordStore()
	_, ok := s.Get(99)
	assert.False(t, ok)
	_, ok = s.Remove(99)
	assert.False(t, ok)
}

func TestRecordStore_RestoreKeepsCounterMonotonic(t *testing.T) {
	s := NewRecordStore()
	s.restore(7, []Record{{ID: 3}, {ID: 7}})
	assert.EqualValues(t, 7, s.Counter())
	assert.Equal(t, 2, s.Len())

	s.restore(2, nil)
	assert.EqualValues(t, 7, s.Counter())
	assert.EqualValues(t, 8, s.AllocateID())
}
