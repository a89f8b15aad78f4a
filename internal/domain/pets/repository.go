package pets

import (
	"context"
	"fmt"
)

// Repository persiste el estado del registro: dos tablas lógicas (registros e índice) más el contador.
// Apply debe ser todo-o-nada.
type Repository interface {
	Load(ctx context.Context) (Snapshot, error)
	Apply(ctx context.Context, ch Change) error
}

// Snapshot es el estado completo tal como lo devuelve Load.
type Snapshot struct {
	Counter uint64
	Records []Record
	Owned   map[Identity][]PetID
	Pending map[Identity][]PetID
}

// Verify valida los invariantes 1-3 sobre un snapshot.
func (s Snapshot) Verify() error {
	seen := make(map[PetID]struct{}, len(s.Records))
	for _, r := range s.Records {
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("%w: record %d appears twice", ErrDuplicateEntry, r.ID)
		}
		seen[r.ID] = struct{}{}

		if uint64(r.ID) > s.Counter {
			return fmt.Errorf("record %d is above id counter %d", r.ID, s.Counter)
		}
		if n := count(s.Owned[r.Owner.ID], r.ID); n != 1 {
			return fmt.Errorf("owned list of %q holds pet %d %d times", r.Owner.ID, r.ID, n)
		}
		if r.TransferTo != nil {
			if n := count(s.Pending[*r.TransferTo], r.ID); n != 1 {
				return fmt.Errorf("pending list of %q holds pet %d %d times", *r.TransferTo, r.ID, n)
			}
		}
	}

	// Cada entrada del índice debe corresponder a un registro coherente.
	byID := make(map[PetID]Record, len(s.Records))
	for _, r := range s.Records {
		byID[r.ID] = r
	}
	for who, ids := range s.Owned {
		for _, id := range ids {
			r, ok := byID[id]
			if !ok || r.Owner.ID != who {
				return fmt.Errorf("owned list of %q holds stale pet %d", who, id)
			}
		}
	}
	for who, ids := range s.Pending {
		for _, id := range ids {
			r, ok := byID[id]
			if !ok || r.TransferTo == nil || *r.TransferTo != who {
				return fmt.Errorf("pending list of %q holds stale pet %d", who, id)
			}
		}
	}
	return nil
}

func count(list []PetID, id PetID) int {
	n := 0
	for _, v := range list {
		if v == id {
			n++
		}
	}
	return n
}
