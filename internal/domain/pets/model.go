package pets

import "time"

// Identity es el principal opaco del caller. Lo provee el entorno (middleware)
// y el core lo trata como confiable.
type Identity string

// PetID es el id numérico asignado por el Record Store (empieza en 1).
type PetID uint64

// Owner son los datos del dueño actual de la mascota.
type Owner struct {
	ID          Identity
	Name        string
	Address     string
	PhoneNumber string
}

// Record representa el registro de una mascota.
// TransferTo != nil sii hay una transferencia pendiente hacia esa identidad.
type Record struct {
	ID PetID

	Name        string
	Breed       string
	Sex         string
	DateOfBirth string // texto libre, sin validar
	ImageURL    string

	CreatedAt time.Time
	UpdatedAt *time.Time

	TransferTo *Identity

	Owner Owner
}

// PetInput son los campos de la mascota al crearla.
type PetInput struct {
	Name        string
	Breed       string
	Sex         string
	DateOfBirth string
	ImageURL    string
}

// OwnerInput son los datos del dueño (en create y en claim). El id siempre es el caller.
type OwnerInput struct {
	Name        string
	Address     string
	PhoneNumber string
}

// PetPatch: nil = no tocar.
type PetPatch struct {
	Name        *string
	Breed       *string
	Sex         *string
	DateOfBirth *string
	ImageURL    *string
}

// OwnerPatch: nil = no tocar.
type OwnerPatch struct {
	Name        *string
	Address     *string
	PhoneNumber *string
}

// TransferState es el estado de la máquina de transferencia de un registro.
type TransferState string

const (
	StateOwned           TransferState = "owned"
	StatePendingTransfer TransferState = "pending_transfer"
)

// State deriva el estado a partir de TransferTo.
func (r Record) State() TransferState {
	if r.TransferTo != nil {
		return StatePendingTransfer
	}
	return StateOwned
}

// clone copia los punteros para que el caller no pueda mutar el estado interno.
func (r Record) clone() Record {
	out := r
	if r.UpdatedAt != nil {
		t := *r.UpdatedAt
		out.UpdatedAt = &t
	}
	if r.TransferTo != nil {
		to := *r.TransferTo
		out.TransferTo = &to
	}
	return out
}

func (p PetPatch) apply(r *Record) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Breed != nil {
		r.Breed = *p.Breed
	}
	if p.Sex != nil {
		r.Sex = *p.Sex
	}
	if p.DateOfBirth != nil {
		r.DateOfBirth = *p.DateOfBirth
	}
	if p.ImageURL != nil {
		r.ImageURL = *p.ImageURL
	}
}

func (p OwnerPatch) apply(o *Owner) {
	if p.Name != nil {
		o.Name = *p.Name
	}
	if p.Address != nil {
		o.Address = *p.Address
	}
	if p.PhoneNumber != nil {
		o.PhoneNumber = *p.PhoneNumber
	}
}
