package pets

import (
	"fmt"
	"time"
)

// Change es la unidad atómica de escritura: imagen nueva del registro (o su borrado),
// las ops del índice en orden y el valor del contador. Se persiste y se aplica completa o no se aplica.
type Change struct {
	Counter uint64
	Put     *Record
	Delete  *PetID
	Index   []IndexOp
}

// Los planificadores de abajo implementan las transiciones de la máquina de
// transferencia. Solo validan y arman el Change; no mutan store ni índice.
//
//   Owned(owner) --initiate--> PendingTransfer(owner, to)
//   PendingTransfer --revoke--> Owned(owner)
//   PendingTransfer --claim(to)--> Owned(to)
//   Owned --delete--> (borrado)

func planCreate(id PetID, caller Identity, pet PetInput, owner OwnerInput, now time.Time) Change {
	rec := Record{
		ID:          id,
		Name:        pet.Name,
		Breed:       pet.Breed,
		Sex:         pet.Sex,
		DateOfBirth: pet.DateOfBirth,
		ImageURL:    pet.ImageURL,
		CreatedAt:   now,
		Owner: Owner{
			ID:          caller,
			Name:        owner.Name,
			Address:     owner.Address,
			PhoneNumber: owner.PhoneNumber,
		},
	}
	return Change{
		Put:   &rec,
		Index: []IndexOp{addOp(CollectionOwned, caller, id)},
	}
}

func planUpdatePet(rec Record, caller Identity, patch PetPatch, now time.Time) (Change, error) {
	if err := requireOwner(rec, caller); err != nil {
		return Change{}, err
	}
	patch.apply(&rec)
	rec.UpdatedAt = &now
	return Change{Put: &rec}, nil
}

func planUpdateOwner(rec Record, caller Identity, patch OwnerPatch, now time.Time) (Change, error) {
	if err := requireOwner(rec, caller); err != nil {
		return Change{}, err
	}
	patch.apply(&rec.Owner)
	rec.UpdatedAt = &now
	return Change{Put: &rec}, nil
}

func planInitiate(rec Record, caller, recipient Identity, now time.Time) (Change, error) {
	if err := requireOwner(rec, caller); err != nil {
		return Change{}, err
	}
	if rec.TransferTo != nil {
		return Change{}, fmt.Errorf("%w: pet %d is already assigned to %q", ErrAlreadyPending, rec.ID, *rec.TransferTo)
	}

	to := recipient
	rec.TransferTo = &to
	rec.UpdatedAt = &now
	return Change{
		Put:   &rec,
		Index: []IndexOp{addOp(CollectionPending, recipient, rec.ID)},
	}, nil
}

func planRevoke(rec Record, caller Identity, now time.Time) (Change, error) {
	if err := requireOwner(rec, caller); err != nil {
		return Change{}, err
	}
	if rec.TransferTo == nil {
		return Change{}, fmt.Errorf("%w: pet %d", ErrNotPending, rec.ID)
	}

	recipient := *rec.TransferTo
	rec.TransferTo = nil
	rec.UpdatedAt = &now
	return Change{
		Put:   &rec,
		Index: []IndexOp{removeOp(CollectionPending, recipient, rec.ID)},
	}, nil
}

func planClaim(rec Record, caller Identity, owner OwnerInput, now time.Time) (Change, error) {
	if rec.TransferTo == nil {
		return Change{}, fmt.Errorf("%w: pet %d", ErrNotPending, rec.ID)
	}
	if *rec.TransferTo != caller {
		return Change{}, fmt.Errorf("%w: pet %d", ErrNotRecipient, rec.ID)
	}

	previous := rec.Owner.ID
	rec.Owner = Owner{
		ID:          caller,
		Name:        owner.Name,
		Address:     owner.Address,
		PhoneNumber: owner.PhoneNumber,
	}
	rec.TransferTo = nil
	rec.UpdatedAt = &now
	return Change{
		Put: &rec,
		Index: []IndexOp{
			removeOp(CollectionOwned, previous, rec.ID),
			removeOp(CollectionPending, caller, rec.ID),
			addOp(CollectionOwned, caller, rec.ID),
		},
	}, nil
}

func planDelete(rec Record, caller Identity) (Change, error) {
	if err := requireOwner(rec, caller); err != nil {
		return Change{}, err
	}
	if rec.TransferTo != nil {
		return Change{}, fmt.Errorf("%w: pet %d has a pending transfer to %q", ErrConflict, rec.ID, *rec.TransferTo)
	}

	id := rec.ID
	return Change{
		Delete: &id,
		Index:  []IndexOp{removeOp(CollectionOwned, caller, id)},
	}, nil
}

func requireOwner(rec Record, caller Identity) error {
	if rec.Owner.ID != caller {
		return fmt.Errorf("%w: pet %d", ErrUnauthorized, rec.ID)
	}
	return nil
}
