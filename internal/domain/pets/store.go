package pets

// RecordStore es el mapa id -> registro más el contador de ids.
// No valida campos ni es thread-safe: el Service le da acceso exclusivo.
type RecordStore struct {
	counter uint64
	byID    map[PetID]Record
}

func NewRecordStore() *RecordStore {
	return &RecordStore{byID: make(map[PetID]Record)}
}

// AllocateID incrementa el contador y devuelve el nuevo valor.
// Nunca reutiliza ids, aunque el registro se haya borrado.
func (s *RecordStore) AllocateID() PetID {
	s.counter++
	return PetID(s.counter)
}

// Counter es el último id asignado (0 si nunca se asignó ninguno).
func (s *RecordStore) Counter() uint64 {
	return s.counter
}

func (s *RecordStore) Get(id PetID) (Record, bool) {
	r, ok := s.byID[id]
	if !ok {
		return Record{}, false
	}
	return r.clone(), true
}

// Put hace upsert.
func (s *RecordStore) Put(r Record) {
	s.byID[r.ID] = r.clone()
}

func (s *RecordStore) Remove(id PetID) (Record, bool) {
	r, ok := s.byID[id]
	if !ok {
		return Record{}, false
	}
	delete(s.byID, id)
	return r, true
}

func (s *RecordStore) Len() int {
	return len(s.byID)
}

// restore se usa solo al cargar un snapshot.
// El contador nunca retrocede.
func (s *RecordStore) restore(counter uint64, records []Record) {
	if counter > s.counter {
		s.counter = counter
	}
	for _, r := range records {
		s.byID[r.ID] = r.clone()
	}
}

func (s *RecordStore) all() []Record {
	out := make([]Record, 0, len(s.byID))
	for _, r := range s.byID {
		out = append(out, r.clone())
	}
	return out
}
