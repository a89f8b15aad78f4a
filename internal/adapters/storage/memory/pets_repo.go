package memory

import (
	"context"
	"fmt"
	"sync"

	"pet-registry/internal/domain/pets"
)

// PetRepo guarda el estado del registro en memoria. Sirve para dev/tests y
// sobrevive a un "reinicio" del Service dentro del mismo proceso.
type PetRepo struct {
	mu      sync.RWMutex
	counter uint64
	byID    map[pets.PetID]pets.Record
	index   map[pets.Collection]map[pets.Identity][]pets.PetID
}

func NewPetRepo() *PetRepo {
	return &PetRepo{
		byID:  make(map[pets.PetID]pets.Record),
		index: make(map[pets.Collection]map[pets.Identity][]pets.PetID),
	}
}

func (r *PetRepo) Load(ctx context.Context) (pets.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := pets.Snapshot{
		Counter: r.counter,
		Records: make([]pets.Record, 0, len(r.byID)),
		Owned:   copyLists(r.index[pets.CollectionOwned]),
		Pending: copyLists(r.index[pets.CollectionPending]),
	}
	for _, rec := range r.byID {
		snap.Records = append(snap.Records, cloneRecord(rec))
	}
	return snap, nil
}

// Apply trabaja sobre una copia del índice y solo la publica si todas las ops pasan.
func (r *PetRepo) Apply(ctx context.Context, ch pets.Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := map[pets.Collection]map[pets.Identity][]pets.PetID{
		pets.CollectionOwned:   copyLists(r.index[pets.CollectionOwned]),
		pets.CollectionPending: copyLists(r.index[pets.CollectionPending]),
	}
	for _, op := range ch.Index {
		if err := applyOp(next[op.Collection], op); err != nil {
			return err
		}
	}

	if ch.Counter > r.counter {
		r.counter = ch.Counter
	}
	if ch.Put != nil {
		r.byID[ch.Put.ID] = cloneRecord(*ch.Put)
	}
	if ch.Delete != nil {
		delete(r.byID, *ch.Delete)
	}
	r.index = next
	return nil
}

func applyOp(lists map[pets.Identity][]pets.PetID, op pets.IndexOp) error {
	list := lists[op.Identity]
	pos := -1
	for i, id := range list {
		if id == op.PetID {
			pos = i
			break
		}
	}

	if !op.Remove {
		if pos >= 0 {
			return fmt.Errorf("%w: pet %d in %s list of %q", pets.ErrDuplicateEntry, op.PetID, op.Collection, op.Identity)
		}
		lists[op.Identity] = append(list, op.PetID)
		return nil
	}

	if pos < 0 {
		return fmt.Errorf("%w: pet %d in %s list of %q", pets.ErrNotFound, op.PetID, op.Collection, op.Identity)
	}
	rest := append(list[:pos:pos], list[pos+1:]...)
	if len(rest) == 0 {
		delete(lists, op.Identity)
		return nil
	}
	lists[op.Identity] = rest
	return nil
}

func copyLists(in map[pets.Identity][]pets.PetID) map[pets.Identity][]pets.PetID {
	out := make(map[pets.Identity][]pets.PetID, len(in))
	for who, ids := range in {
		cp := make([]pets.PetID, len(ids))
		copy(cp, ids)
		out[who] = cp
	}
	return out
}

func cloneRecord(r pets.Record) pets.Record {
	if r.UpdatedAt != nil {
		t := *r.UpdatedAt
		r.UpdatedAt = &t
	}
	if r.TransferTo != nil {
		to := *r.TransferTo
		r.TransferTo = &to
	}
	return r
}
