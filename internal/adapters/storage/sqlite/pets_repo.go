package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pet-registry/internal/domain/pets"
)

const counterName = "pet_id"

// PetsRepo implementa pets.Repository sobre SQLite. Mismo modelo que el de
// Postgres: tres tablas, un Change por transacción.
type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

// DB expone la conexión para tests.
func (r *PetsRepo) DB() *sql.DB { return r.db }

func (r *PetsRepo) Load(ctx context.Context) (pets.Snapshot, error) {
	snap := pets.Snapshot{
		Owned:   map[pets.Identity][]pets.PetID{},
		Pending: map[pets.Identity][]pets.PetID{},
	}

	var counter int64
	err := r.db.QueryRowContext(ctx, `SELECT value FROM registry_counter WHERE name = ?`, counterName).Scan(&counter)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return pets.Snapshot{}, fmt.Errorf("load counter: %w", err)
	default:
		snap.Counter = uint64(counter)
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
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			_ = rows.Close()
			return pets.Snapshot{}, err
		}
		snap.Records = append(snap.Records, rec)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return pets.Snapshot{}, err
	}
	// Con MaxOpenConns=1 hay que liberar la conexión antes de la próxima query.
	_ = rows.Close()

	idx, err := r.db.QueryContext(ctx, `SELECT collection, identity, pet_id FROM ownership_index ORDER BY seq ASC`)
	if err != nil {
		return pets.Snapshot{}, fmt.Errorf("load index: %w", err)
	}
	defer func() { _ = idx.Close() }()

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

	if p := ch.Put; p != nil {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO pet_records (
				id, name, breed, sex, date_of_birth, image_url,
				created_at_ns, updated_at_ns, transfer_to,
				owner_id, owner_name, owner_address, owner_phone_number
			) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name,
				breed = excluded.breed,
				sex = excluded.sex,
				date_of_birth = excluded.date_of_birth,
				image_url = excluded.image_url,
				updated_at_ns = excluded.updated_at_ns,
				transfer_to = excluded.transfer_to,
				owner_id = excluded.owner_id,
				owner_name = excluded.owner_name,
				owner_address = excluded.owner_address,
				owner_phone_number = excluded.owner_phone_number
		`,
			int64(p.ID), p.Name, p.Breed, p.Sex, p.DateOfBirth, p.ImageURL,
			p.CreatedAt.UnixNano(), nullNanos(p.UpdatedAt), nullIdentity(p.TransferTo),
			string(p.Owner.ID), p.Owner.Name, p.Owner.Address, p.Owner.PhoneNumber,
		); err != nil {
			return fmt.Errorf("upsert record %d: %w", p.ID, err)
		}
	}

	if ch.Delete != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pet_records WHERE id = ?`, int64(*ch.Delete)); err != nil {
			return fmt.Errorf("delete record %d: %w", *ch.Delete, err)
		}
	}

	for _, op := range ch.Index {
		if err := applyIndexOp(ctx, tx, op); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO registry_counter (name, value) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET value = max(registry_counter.value, excluded.value)
	`, counterName, int64(ch.Counter)); err != nil {
		return fmt.Errorf("update counter: %w", err)
	}

	return tx.Commit()
}

func applyIndexOp(ctx context.Context, tx *sql.Tx, op pets.IndexOp) error {
	var (
		res sql.Result
		err error
	)
	if op.Remove {
		res, err = tx.ExecContext(ctx,
			`DELETE FROM ownership_index WHERE collection = ? AND identity = ? AND pet_id = ?`,
			string(op.Collection), string(op.Identity), int64(op.PetID))
	} else {
		res, err = tx.ExecContext(ctx,
			`INSERT INTO ownership_index (collection, identity, pet_id) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`,
			string(op.Collection), string(op.Identity), int64(op.PetID))
	}
	if err != nil {
		return err
	}

	if n, _ := res.RowsAffected(); n == 0 {
		kind := pets.ErrDuplicateEntry
		if op.Remove {
			kind = pets.ErrNotFound
		}
		return fmt.Errorf("%w: pet %d in %s list of %q", kind, op.PetID, op.Collection, op.Identity)
	}
	return nil
}

func scanRecord(rows *sql.Rows) (pets.Record, error) {
	var (
		p         pets.Record
		id        int64
		createdNs int64
		updatedNs sql.NullInt64
		to        sql.NullString
		ownerID   string
	)
	if err := rows.Scan(
		&id, &p.Name, &p.Breed, &p.Sex, &p.DateOfBirth, &p.ImageURL,
		&createdNs, &updatedNs, &to,
		&ownerID, &p.Owner.Name, &p.Owner.Address, &p.Owner.PhoneNumber,
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

func nullNanos(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func nullIdentity(who *pets.Identity) sql.NullString {
	if who == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*who), Valid: true}
}
