package pets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"pet-registry/internal/platform/logger"

	"github.com/google/uuid"
)

// Recorder recibe el resultado de cada operación (lo implementa platform/metrics).
type Recorder interface {
	ObserveOperation(op, outcome string)
	SetRecords(n int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, string) {}
func (nopRecorder) SetRecords(int)                  {}

type Options struct {
	Publisher Publisher // opcional
	Recorder  Recorder  // opcional
	Logger    logger.Logger
}

// Service es la fachada del registro. Es dueño único del Record Store, del
// Ownership Index y del contador; cada llamada tiene acceso exclusivo (mutaciones)
// o compartido (lecturas) durante toda su duración.
type Service struct {
	mu    sync.RWMutex
	store *RecordStore
	index *OwnershipIndex

	repo Repository
	pub  Publisher
	rec  Recorder
	log  logger.Logger

	now     func() time.Time
	eventID func() string
}

// NewService carga el snapshot del repositorio una sola vez y verifica los invariantes antes de servir.
func NewService(ctx context.Context, repo Repository, opts Options) (*Service, error) {
	if repo == nil {
		return nil, errors.New("pets: repository required")
	}

	s := &Service{
		store:   NewRecordStore(),
		index:   NewOwnershipIndex(),
		repo:    repo,
		pub:     opts.Publisher,
		rec:     opts.Recorder,
		log:     opts.Logger,
		now:     func() time.Time { return time.Now().UTC() },
		eventID: uuid.NewString,
	}
	if s.pub == nil {
		s.pub = nopPublisher{}
	}
	if s.rec == nil {
		s.rec = nopRecorder{}
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}

	snap, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	if err := snap.Verify(); err != nil {
		return nil, fmt.Errorf("verify registry snapshot: %w", err)
	}
	if err := s.restore(snap); err != nil {
		return nil, err
	}

	s.rec.SetRecords(s.store.Len())
	s.log.Info("pet registry loaded", map[string]any{
		"records": s.store.Len(),
		"counter": s.store.Counter(),
	})
	return s, nil
}

func (s *Service) restore(snap Snapshot) error {
	s.store.restore(snap.Counter, snap.Records)
	for who, ids := range snap.Owned {
		for _, id := range ids {
			if err := s.index.Add(CollectionOwned, who, id); err != nil {
				return err
			}
		}
	}
	for who, ids := range snap.Pending {
		for _, id := range ids {
			if err := s.index.Add(CollectionPending, who, id); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, caller Identity, pet PetInput, owner OwnerInput) (Record, error) {
	if err := requireIdentity("caller", caller); err != nil {
		return Record{}, s.fail("create", err)
	}
	return s.mutate(ctx, "create", func(now time.Time) (Record, Change, Event, error) {
		id := s.store.AllocateID()
		ch := planCreate(id, caller, pet, owner, now)
		ev := Event{Type: EventCreated, PetID: id, Actor: caller, Owner: caller}
		return *ch.Put, ch, ev, nil
	})
}

func (s *Service) Get(ctx context.Context, id PetID) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.store.Get(id)
	if !ok {
		return Record{}, notFound(id)
	}
	return r, nil
}

func (s *Service) UpdatePet(ctx context.Context, id PetID, caller Identity, patch PetPatch) (Record, error) {
	return s.mutate(ctx, "update_pet", s.withRecord(id, func(rec Record, now time.Time) (Record, Change, Event, error) {
		ch, err := planUpdatePet(rec, caller, patch, now)
		if err != nil {
			return Record{}, Change{}, Event{}, err
		}
		return *ch.Put, ch, Event{Type: EventUpdated, PetID: id, Actor: caller, Owner: rec.Owner.ID}, nil
	}))
}

func (s *Service) UpdateOwner(ctx context.Context, id PetID, caller Identity, patch OwnerPatch) (Record, error) {
	return s.mutate(ctx, "update_owner", s.withRecord(id, func(rec Record, now time.Time) (Record, Change, Event, error) {
		ch, err := planUpdateOwner(rec, caller, patch, now)
		if err != nil {
			return Record{}, Change{}, Event{}, err
		}
		return *ch.Put, ch, Event{Type: EventUpdated, PetID: id, Actor: caller, Owner: rec.Owner.ID}, nil
	}))
}

func (s *Service) InitiateTransfer(ctx context.Context, id PetID, caller, recipient Identity) (Record, error) {
	if err := requireIdentity("recipient", recipient); err != nil {
		return Record{}, s.fail("initiate_transfer", err)
	}
	return s.mutate(ctx, "initiate_transfer", s.withRecord(id, func(rec Record, now time.Time) (Record, Change, Event, error) {
		ch, err := planInitiate(rec, caller, recipient, now)
		if err != nil {
			return Record{}, Change{}, Event{}, err
		}
		ev := Event{Type: EventTransferInitiated, PetID: id, Actor: caller, Owner: rec.Owner.ID, Recipient: recipient}
		return *ch.Put, ch, ev, nil
	}))
}

func (s *Service) RevokeTransfer(ctx context.Context, id PetID, caller Identity) (Record, error) {
	return s.mutate(ctx, "revoke_transfer", s.withRecord(id, func(rec Record, now time.Time) (Record, Change, Event, error) {
		ch, err := planRevoke(rec, caller, now)
		if err != nil {
			return Record{}, Change{}, Event{}, err
		}
		ev := Event{Type: EventTransferRevoked, PetID: id, Actor: caller, Owner: rec.Owner.ID, Recipient: *rec.TransferTo}
		return *ch.Put, ch, ev, nil
	}))
}

func (s *Service) Claim(ctx context.Context, id PetID, caller Identity, owner OwnerInput) (Record, error) {
	return s.mutate(ctx, "claim", s.withRecord(id, func(rec Record, now time.Time) (Record, Change, Event, error) {
		ch, err := planClaim(rec, caller, owner, now)
		if err != nil {
			return Record{}, Change{}, Event{}, err
		}
		ev := Event{Type: EventClaimed, PetID: id, Actor: caller, Owner: caller, Recipient: caller, PreviousOwner: rec.Owner.ID}
		return *ch.Put, ch, ev, nil
	}))
}

// Delete solo procede desde el estado Owned; devuelve el registro borrado.
func (s *Service) Delete(ctx context.Context, id PetID, caller Identity) (Record, error) {
	return s.mutate(ctx, "delete", s.withRecord(id, func(rec Record, now time.Time) (Record, Change, Event, error) {
		ch, err := planDelete(rec, caller)
		if err != nil {
			return Record{}, Change{}, Event{}, err
		}
		return rec, ch, Event{Type: EventDeleted, PetID: id, Actor: caller, Owner: caller}, nil
	}))
}

func (s *Service) ListOwned(ctx context.Context, who Identity) []PetID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.List(CollectionOwned, who)
}

func (s *Service) ListPending(ctx context.Context, who Identity) []PetID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.List(CollectionPending, who)
}

// Snapshot exporta el estado actual (usado por tests y diagnósticos).
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Counter: s.store.Counter(),
		Records: s.store.all(),
		Owned:   s.index.snapshot(CollectionOwned),
		Pending: s.index.snapshot(CollectionPending),
	}
}

type planFunc func(now time.Time) (Record, Change, Event, error)

func (s *Service) withRecord(id PetID, fn func(rec Record, now time.Time) (Record, Change, Event, error)) planFunc {
	return func(now time.Time) (Record, Change, Event, error) {
		rec, ok := s.store.Get(id)
		if !ok {
			return Record{}, Change{}, Event{}, notFound(id)
		}
		return fn(rec, now)
	}
}

// mutate corre plan + commit bajo el lock exclusivo. Publica el evento ya fuera del lock.
func (s *Service) mutate(ctx context.Context, op string, plan planFunc) (Record, error) {
	var now time.Time
	out, ev, records, err := func() (Record, Event, int, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		now = s.now()
		out, ch, ev, err := plan(now)
		if err != nil {
			return Record{}, Event{}, s.store.Len(), err
		}
		if err := s.commit(ctx, ch); err != nil {
			return Record{}, Event{}, s.store.Len(), err
		}
		return out, ev, s.store.Len(), nil
	}()

	s.rec.SetRecords(records)
	if err != nil {
		return Record{}, s.fail(op, err)
	}
	s.rec.ObserveOperation(op, ErrorKind(nil))

	ev.ID = s.eventID()
	ev.OccurredAt = now
	s.log.Info("pet registry change", map[string]any{
		"op":     op,
		"pet_id": uint64(ev.PetID),
		"actor":  string(ev.Actor),
	})
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.log.Warn("publish event failed", map[string]any{
			"event_type": string(ev.Type),
			"pet_id":     uint64(ev.PetID),
			"error":      err.Error(),
		})
	}
	return out.clone(), nil
}

// commit valida las ops del índice contra el estado actual, persiste el Change
// y recién entonces lo aplica en memoria. Si algo falla antes de Apply, nada cambió.
func (s *Service) commit(ctx context.Context, ch Change) error {
	if err := s.index.Check(ch.Index); err != nil {
		return err
	}

	ch.Counter = s.store.Counter()
	if err := s.repo.Apply(ctx, ch); err != nil {
		return fmt.Errorf("persist change: %w", err)
	}

	if ch.Put != nil {
		s.store.Put(*ch.Put)
	}
	if ch.Delete != nil {
		s.store.Remove(*ch.Delete)
	}
	if err := s.index.Apply(ch.Index); err != nil {
		return fmt.Errorf("apply index ops: %w", err)
	}
	return nil
}

func (s *Service) fail(op string, err error) error {
	kind := ErrorKind(err)
	s.rec.ObserveOperation(op, kind)

	fields := map[string]any{"op": op, "error": err.Error()}
	if kind == "internal" {
		s.log.Error("pet registry operation failed", fields)
	} else {
		s.log.Debug("pet registry operation rejected", fields)
	}
	return err
}

func requireIdentity(name string, who Identity) error {
	if strings.TrimSpace(string(who)) == "" {
		return fmt.Errorf("%w: %s identity required", ErrInvalidInput, name)
	}
	return nil
}

func notFound(id PetID) error {
	return fmt.Errorf("%w: pet record with id=%d", ErrNotFound, id)
}
