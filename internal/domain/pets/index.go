package pets

import "fmt"

// Collection identifica una de las dos listas del índice.
type Collection string

const (
	CollectionOwned   Collection = "owned"
	CollectionPending Collection = "pending"
)

// IndexOp es un add/remove sobre el índice. Las ops de un Change se aplican en orden.
type IndexOp struct {
	Collection Collection
	Identity   Identity
	PetID      PetID
	Remove     bool
}

func addOp(c Collection, who Identity, id PetID) IndexOp {
	return IndexOp{Collection: c, Identity: who, PetID: id}
}

func removeOp(c Collection, who Identity, id PetID) IndexOp {
	return IndexOp{Collection: c, Identity: who, PetID: id, Remove: true}
}

// OwnershipIndex mantiene, por identidad, las mascotas que posee (owned)
// y las que puede reclamar (pending). Orden = orden de inserción, sin duplicados.
// No conoce Record: el orden correcto de las ops lo garantiza la máquina de transferencia.
type OwnershipIndex struct {
	lists map[Collection]map[Identity][]PetID
}

func NewOwnershipIndex() *OwnershipIndex {
	return &OwnershipIndex{
		lists: map[Collection]map[Identity][]PetID{
			CollectionOwned:   {},
			CollectionPending: {},
		},
	}
}

// Add agrega id al final de la lista. Falla con ErrDuplicateEntry si ya estaba.
func (x *OwnershipIndex) Add(c Collection, who Identity, id PetID) error {
	if x.contains(c, who, id) {
		return fmt.Errorf("%w: pet %d already in %s list of %q", ErrDuplicateEntry, id, c, who)
	}
	x.collection(c)[who] = append(x.collection(c)[who], id)
	return nil
}

// Remove quita id por valor. Falla con ErrNotFound si la identidad no tiene lista o no lo contiene.
// Si la lista queda vacía, se elimina la entrada de la identidad.
func (x *OwnershipIndex) Remove(c Collection, who Identity, id PetID) error {
	list := x.collection(c)[who]
	pos := indexOf(list, id)
	if pos < 0 {
		return fmt.Errorf("%w: pet %d not in %s list of %q", ErrNotFound, id, c, who)
	}

	out := make([]PetID, 0, len(list)-1)
	out = append(out, list[:pos]...)
	out = append(out, list[pos+1:]...)
	if len(out) == 0 {
		delete(x.collection(c), who)
		return nil
	}
	x.collection(c)[who] = out
	return nil
}

// List devuelve una copia; vacía (no nil) si la identidad no existe.
func (x *OwnershipIndex) List(c Collection, who Identity) []PetID {
	list := x.collection(c)[who]
	out := make([]PetID, len(list))
	copy(out, list)
	return out
}

// Check simula ops en orden sin mutar nada y devuelve el primer error
// que Add/Remove devolverían.
func (x *OwnershipIndex) Check(ops []IndexOp) error {
	type key struct {
		c   Collection
		who Identity
		id  PetID
	}
	overlay := map[key]bool{}

	for _, op := range ops {
		k := key{op.Collection, op.Identity, op.PetID}
		present, seen := overlay[k]
		if !seen {
			present = x.contains(op.Collection, op.Identity, op.PetID)
		}

		if op.Remove && !present {
			return fmt.Errorf("%w: pet %d not in %s list of %q", ErrNotFound, op.PetID, op.Collection, op.Identity)
		}
		if !op.Remove && present {
			return fmt.Errorf("%w: pet %d already in %s list of %q", ErrDuplicateEntry, op.PetID, op.Collection, op.Identity)
		}
		overlay[k] = !op.Remove
	}
	return nil
}

// Apply ejecuta ops en orden. Llamar solo después de Check.
func (x *OwnershipIndex) Apply(ops []IndexOp) error {
	for _, op := range ops {
		var err error
		if op.Remove {
			err = x.Remove(op.Collection, op.Identity, op.PetID)
		} else {
			err = x.Add(op.Collection, op.Identity, op.PetID)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// snapshot copia la colección c.
func (x *OwnershipIndex) snapshot(c Collection) map[Identity][]PetID {
	out := make(map[Identity][]PetID, len(x.collection(c)))
	for who, list := range x.collection(c) {
		cp := make([]PetID, len(list))
		copy(cp, list)
		out[who] = cp
	}
	return out
}

func (x *OwnershipIndex) contains(c Collection, who Identity, id PetID) bool {
	return indexOf(x.collection(c)[who], id) >= 0
}

func (x *OwnershipIndex) collection(c Collection) map[Identity][]PetID {
	m, ok := x.lists[c]
	if !ok {
		m = map[Identity][]PetID{}
		x.lists[c] = m
	}
	return m
}

func indexOf(list []PetID, id PetID) int {
	for i, v := range list {
		if v == id {
			return i
		}
	}
	return -1
}
