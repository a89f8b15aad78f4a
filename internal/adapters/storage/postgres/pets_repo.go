package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pet-registry/internal/domain/pets"
)

const counterName = "pet_id"

// PetsRepo implementa pets.Repository. Cada Change se aplica en una transacción.
type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

func (r *PetsRepo) Load(ctx context.Context) (pets.Snapshot, error) {
	snap := pets.Snapshot{
		Owned:   map[pets.Identity][]pets.PetID{},
		Pending: map[pets.Identity][]pets.PetID{},
	}

	err := r.db.QueryRowContext(ctx, `SELECT value FROM registry_counter WHERE name = $1`, counterName).Scan(&snap.Counter)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return pets.Snapshot{}, fmt.Errorf("load counter: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, name, breed, sex, date_of_birth, image_url,
			created_at_ns, updated_at_ns, transfer_to,
			owner_id, owner_name, owner_address, owner_phone_number
		FROM pet_records
		ORDER BY id ASC
	`)
	if err != nil {
		return pets.Snapshot{}, fmt.Errorf("load records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return pets.Snapshot{}, err
		}
		snap.Records = append(snap.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return pets.Snapshot{}, err
	}

	idx, err := r.db.QueryContext(ctx, `SELECT collection, identity, pet_id FROM ownership_index ORDER BY seq ASC`)
	if err != nil {
		return pets.Snapshot{}, fmt.Errorf("load index: %w", err)
	}
	defer idx.Close()

	for idx.Next() {
		var (
			collection string
			identity   string
			petID      int64
		)
		if err := idx.Scan(&collection, &identity, &petID); err != nil {
			return pets.Snapshot{}, err
		}
		who := pets.Identity(identity)
		switch pets.Collection(collection) {
		case pets.CollectionOwned:
			snap.Owned[who] = append(snap.Owned[who], pets.PetID(petID))
		case pets.CollectionPending:
			snap.Pending[who] = append(snap.Pending[who], pets.PetID(petID))
		default:
			return pets.Snapshot{}, fmt.Errorf("unknown index collection %q", collection)
		}
	}
	return snap, idx.Err()
}

func (r *PetsRepo) Apply(ctx context.Context, ch pets.Change) (retErr error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if ch.Put != nil {
		if err := upsertRecord(ctx, tx, *ch.Put); err != nil {
			return err
		}
	}
	if ch.Delete != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pet_records WHERE id = $1`, int64(*ch.Delete)); err != nil {
			return fmt.Errorf("delete record %d: %w", *ch.Delete, err)
		}
	}

	for _, op := range ch.Index {
		if err := applyIndexOp(ctx, tx, op); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO registry_counter (name, value) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET value = GREATEST(registry_counter.value, EXCLUDED.value)
	`, counterName, int64(ch.Counter)); err != nil {
		return fmt.Errorf("update counter: %w", err)
	}

	return tx.Commit()
}

func upsertRecord(ctx context.Context, tx *sql.Tx, p pets.Record) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO pet_records (
			id, name, breed, sex, date_of_birth, image_url,
			created_at_ns, updated_at_ns, transfer_to,
			owner_id, owner_name, owner_address, owner_phone_number
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			breed = EXCLUDED.breed,
			sex = EXCLUDED.sex,
			date_of_birth = EXCLUDED.date_of_birth,
			image_url = EXCLUDED.image_url,
			updated_at_ns = EXCLUDED.updated_at_ns,
			transfer_to = EXCLUDED.transfer_to,
			owner_id = EXCLUDED.owner_id,
			owner_name = EXCLUDED.owner_name,
			owner_address = EXCLUDED.owner_address,
			owner_phone_number = EXCLUDED.owner_phone_number
	`,
		int64(p.ID),
		p.Name,
		p.Breed,
		p.Sex,
		p.DateOfBirth,
		p.ImageURL,
		p.CreatedAt.UnixNano(),
		toNullNanos(p.UpdatedAt),
		toNullIdentity(p.TransferTo),
		string(p.Owner.ID),
		p.Owner.Name,
		p.Owner.Address,
		p.Owner.PhoneNumber,
	)
	if err != nil {
		return fmt.Errorf("upsert record %d: %w", p.ID, err)
	}
	return nil
}

func applyIndexOp(ctx context.Context, tx *sql.Tx, op pets.IndexOp) error {
	if op.Remove {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM ownership_index WHERE collection = $1 AND identity = $2 AND pet_id = $3
		`, string(op.Collection), string(op.Identity), int64(op.PetID))
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: pet %d in %s list of %q", pets.ErrNotFound, op.PetID, op.Collection, op.Identity)
		}
		return nil
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO ownership_index (collection, identity, pet_id) VALUES ($1, $2, $3)
		ON CONFLICT (collection, identity, pet_id) DO NOTHING
	`, string(op.Collection), string(op.Identity), int64(op.PetID))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: pet %d in %s list of %q", pets.ErrDuplicateEntry, op.PetID, op.Collection, op.Identity)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (pets.Record, error) {
	var (
		p         pets.Record
		id        int64
		createdNs int64
		updatedNs sql.NullInt64
		to        sql.NullString
		ownerID   string
	)
	if err := s.Scan(
		&id,
		&p.Name,
		&p.Breed,
		&p.Sex,
		&p.DateOfBirth,
		&p.ImageURL,
		&createdNs,
		&updatedNs,
		&to,
		&ownerID,
		&p.Owner.Name,
		&p.Owner.Address,
		&p.Owner.PhoneNumber,
	); err != nil {
		return pets.Record{}, err
	}

	p.ID = pets.PetID(id)
	p.Owner.ID = pets.Identity(ownerID)
	p.CreatedAt = time.Unix(0, createdNs).UTC()
	if updatedNs.Valid {
		t := time.Unix(0, updatedNs.Int64).UTC()
		p.UpdatedAt = &t
	}
	if to.Valid {
		who := pets.Identity(to.String)
		p.TransferTo = &who
	}
	return p, nil
}

// timestamps en nanosegundos para no perder precisión (timestamptz es de microsegundos)
func toNullNanos(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func toNullIdentity(who *pets.Identity) sql.NullString {
	if who == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: string(*who), Valid: true}
}
