package pets

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pet-registry/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", createPetHandler(svc))

		pr.Get("/{petID}", getPetHandler(svc))
		pr.Patch("/{petID}", updatePetHandler(svc))
		pr.Delete("/{petID}", deletePetHandler(svc))

		pr.Patch("/{petID}/owner", updateOwnerHandler(svc))

		// Transferencia: el dueño inicia o revoca; el destinatario reclama.
		pr.Post("/{petID}/transfer", initiateTransferHandler(svc))
		pr.Delete("/{petID}/transfer", revokeTransferHandler(svc))
		pr.Post("/{petID}/claim", claimPetHandler(svc))
	})

	r.Get("/identities/{identity}/pets", listByIdentityHandler(svc, CollectionOwned))
	r.Get("/identities/{identity}/pending", listByIdentityHandler(svc, CollectionPending))

	r.Get("/me/pets", listMineHandler(svc, CollectionOwned))
	r.Get("/me/pending", listMineHandler(svc, CollectionPending))
}

type petPayload struct {
	Name        string `json:"name"`
	Breed       string `json:"breed"`
	Sex         string `json:"sex"`
	DateOfBirth string `json:"date_of_birth"`
	ImageURL    string `json:"image_url"`
}

type ownerPayload struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	PhoneNumber string `json:"phone_number"`
}

type createPetRequest struct {
	Pet   petPayload   `json:"pet_payload"`
	Owner ownerPayload `json:"owner_payload"`
}

type updatePetRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	Name        *string `json:"name"`
	Breed       *string `json:"breed"`
	Sex         *string `json:"sex"`
	DateOfBirth *string `json:"date_of_birth"`
	ImageURL    *string `json:"image_url"`
}

type updateOwnerRequest struct {
	Name        *string `json:"name"`
	Address     *string `json:"address"`
	PhoneNumber *string `json:"phone_number"`
}

type transferRequest struct {
	To string `json:"to"`
}

type ownerResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	PhoneNumber string `json:"phone_number"`
}

type petResponse struct {
	ID          uint64        `json:"id"`
	Name        string        `json:"name"`
	Breed       string        `json:"breed"`
	Sex         string        `json:"sex"`
	DateOfBirth string        `json:"date_of_birth"`
	ImageURL    string        `json:"image_url"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   *time.Time    `json:"updated_at"`
	TransferTo  *string       `json:"transfer_to"`
	Owner       ownerResponse `json:"owner_details"`
}

type petListResponse struct {
	Identity string   `json:"identity"`
	PetIDs   []uint64 `json:"pet_ids"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// createPetHandler godoc
// @Summary      Registrar mascota
// @Tags         pets
// @Accept       json
// @Produce      json
// @Param        body  body      createPetRequest  true  "Datos de mascota y dueño"
// @Success      201   {object}  petResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /pets [post]
func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerFrom(w, r)
		if !ok {
			return
		}

		var req createPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid json")
			return
		}

		rec, err := svc.Create(r.Context(), caller, PetInput(req.Pet), OwnerInput(req.Owner))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPetResponse(rec))
	}
}

// getPetHandler godoc
// @Summary      Ver registro de mascota
// @Tags         pets
// @Produce      json
// @Param        petID  path      int  true  "Pet ID"
// @Success      200    {object}  petResponse
// @Failure      404    {object}  errorResponse
// @Router       /pets/{petID} [get]
func getPetHandler(svc *Service) http.HandlerFunc {
	// Lectura pública: cualquier caller autenticado puede ver cualquier registro.
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := callerFrom(w, r); !ok {
			return
		}
		id, ok := petIDParam(w, r)
		if !ok {
			return
		}

		rec, err := svc.Get(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(rec))
	}
}

// updatePetHandler godoc
// @Summary      Editar datos de la mascota (solo dueño)
// @Tags         pets
// @Accept       json
// @Produce      json
// @Param        petID  path      int               true  "Pet ID"
// @Param        body   body      updatePetRequest  true  "Campos a modificar"
// @Success      200    {object}  petResponse
// @Failure      403    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Router       /pets/{petID} [patch]
func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerFrom(w, r)
		if !ok {
			return
		}
		id, ok := petIDParam(w, r)
		if !ok {
			return
		}

		var req updatePetRequest
		if !decodeStrict(w, r, &req) {
			return
		}

		rec, err := svc.UpdatePet(r.Context(), id, caller, PetPatch(req))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(rec))
	}
}

// updateOwnerHandler godoc
// @Summary      Editar datos del dueño (solo dueño)
// @Tags         pets
// @Accept       json
// @Produce      json
// @Param        petID  path      int                 true  "Pet ID"
// @Param        body   body      updateOwnerRequest  true  "Campos a modificar"
// @Success      200    {object}  petResponse
// @Failure      403    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Router       /pets/{petID}/owner [patch]
func updateOwnerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerFrom(w, r)
		if !ok {
			return
		}
		id, ok := petIDParam(w, r)
		if !ok {
			return
		}

		var req updateOwnerRequest
		if !decodeStrict(w, r, &req) {
			return
		}

		rec, err := svc.UpdateOwner(r.Context(), id, caller, OwnerPatch(req))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(rec))
	}
}

// deletePetHandler godoc
// @Summary      Borrar registro (solo dueño, sin transferencia pendiente)
// @Tags         pets
// @Produce      json
// @Param        petID  path      int  true  "Pet ID"
// @Success      200    {object}  petResponse
// @Failure      403    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Failure      409    {object}  errorResponse
// @Router       /pets/{petID} [delete]
func deletePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerFrom(w, r)
		if !ok {
			return
		}
		id, ok := petIDParam(w, r)
		if !ok {
			return
		}

		rec, err := svc.Delete(r.Context(), id, caller)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(rec))
	}
}

// initiateTransferHandler godoc
// @Summary      Iniciar transferencia hacia otra identidad
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Param        petID  path      int              true  "Pet ID"
// @Param        body   body      transferRequest  true  "Destinatario"
// @Success      200    {object}  petResponse
// @Failure      403    {object}  errorResponse
// @Failure      409    {object}  errorResponse
// @Router       /pets/{petID}/transfer [post]
func initiateTransferHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerFrom(w, r)
		if !ok {
			return
		}
		id, ok := petIDParam(w, r)
		if !ok {
			return
		}

		var req transferRequest
		if !decodeStrict(w, r, &req) {
			return
		}

		rec, err := svc.InitiateTransfer(r.Context(), id, caller, Identity(strings.TrimSpace(req.To)))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(rec))
	}
}

// revokeTransferHandler godoc
// @Summary      Revocar transferencia pendiente
// @Tags         transfers
// @Produce      json
// @Param        petID  path      int  true  "Pet ID"
// @Success      200    {object}  petResponse
// @Failure      403    {object}  errorResponse
// @Failure      409    {object}  errorResponse
// @Router       /pets/{petID}/transfer [delete]
func revokeTransferHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerFrom(w, r)
		if !ok {
			return
		}
		id, ok := petIDParam(w, r)
		if !ok {
			return
		}

		rec, err := svc.RevokeTransfer(r.Context(), id, caller)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(rec))
	}
}

// claimPetHandler godoc
// @Summary      Reclamar mascota transferida al caller
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Param        petID  path      int           true  "Pet ID"
// @Param        body   body      ownerPayload  true  "Datos del nuevo dueño"
// @Success      200    {object}  petResponse
// @Failure      403    {object}  errorResponse
// @Failure      409    {object}  errorResponse
// @Router       /pets/{petID}/claim [post]
func claimPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerFrom(w, r)
		if !ok {
			return
		}
		id, ok := petIDParam(w, r)
		if !ok {
			return
		}

		var req ownerPayload
		if !decodeStrict(w, r, &req) {
			return
		}

		rec, err := svc.Claim(r.Context(), id, caller, OwnerInput(req))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(rec))
	}
}

// listByIdentityHandler godoc
// @Summary      Listar mascotas (owned o pending) de una identidad
// @Tags         identities
// @Produce      json
// @Param        identity  path      string  true  "Identidad"
// @Success      200       {object}  petListResponse
// @Router       /identities/{identity}/pets [get]
// @Router       /identities/{identity}/pending [get]
func listByIdentityHandler(svc *Service, c Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := callerFrom(w, r); !ok {
			return
		}
		who := Identity(chi.URLParam(r, "identity"))
		writeJSON(w, http.StatusOK, toListResponse(who, list(r, svc, c, who)))
	}
}

// listMineHandler godoc
// @Summary      Listar mis mascotas (owned o pending)
// @Tags         identities
// @Produce      json
// @Success      200  {object}  petListResponse
// @Failure      401  {object}  errorResponse
// @Router       /me/pets [get]
// @Router       /me/pending [get]
func listMineHandler(svc *Service, c Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerFrom(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, toListResponse(caller, list(r, svc, c, caller)))
	}
}

func list(r *http.Request, svc *Service, c Collection, who Identity) []PetID {
	if c == CollectionPending {
		return svc.ListPending(r.Context(), who)
	}
	return svc.ListOwned(r.Context(), who)
}

func callerFrom(w http.ResponseWriter, r *http.Request) (Identity, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.Principal) == "" {
		writeMessage(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return Identity(claims.Principal), true
}

func petIDParam(w http.ResponseWriter, r *http.Request) (PetID, bool) {
	raw := chi.URLParam(r, "petID")
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		writeMessage(w, http.StatusBadRequest, "petID must be a positive integer")
		return 0, false
	}
	return PetID(n), true
}

func decodeStrict(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func toPetResponse(p Record) petResponse {
	out := petResponse{
		ID:          uint64(p.ID),
		Name:        p.Name,
		Breed:       p.Breed,
		Sex:         p.Sex,
		DateOfBirth: p.DateOfBirth,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Owner: ownerResponse{
			ID:          string(p.Owner.ID),
			Name:        p.Owner.Name,
			Address:     p.Owner.Address,
			PhoneNumber: p.Owner.PhoneNumber,
		},
	}
	if p.TransferTo != nil {
		to := string(*p.TransferTo)
		out.TransferTo = &to
	}
	return out
}

func toListResponse(who Identity, ids []PetID) petListResponse {
	out := petListResponse{Identity: string(who), PetIDs: make([]uint64, 0, len(ids))}
	for _, id := range ids {
		out.PetIDs = append(out.PetIDs, uint64(id))
	}
	return out
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		writeMessage(w, http.StatusNotFound, "pet not found")
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrNotRecipient):
		writeMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrAlreadyPending),
		errors.Is(err, ErrNotPending),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrDuplicateEntry):
		writeMessage(w, http.StatusConflict, err.Error())
	default:
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
