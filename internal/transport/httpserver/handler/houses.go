package handler

import (
	"errors"
	"net/http"
	"time"

	housedomain "casa360/internal/domain/house"
	"casa360/internal/transport/httpserver/middleware"
)

type createHouseRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type addMemberRequest struct {
	UserID int64 `json:"user_id"`
}

type houseResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

type memberResponse struct {
	UserID   int64     `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

func (h *Handlers) CreateHouse(w http.ResponseWriter, r *http.Request) {
	var req createHouseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	result, err := h.Houses.CreateHouse(r.Context(), user.ID, req.Name, req.Address)
	if err != nil {
		if errors.Is(err, housedomain.ErrValidation) {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		h.log.InternalError("houses.create: create house failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, toHouseResponse(result))
}

func (h *Handlers) ListHouses(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	houses, err := h.Houses.ListHouses(r.Context(), user.ID)
	if err != nil {
		h.log.InternalError("houses.list: list houses failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	response := make([]houseResponse, 0, len(houses))
	for i := range houses {
		response = append(response, toHouseResponse(&houses[i]))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) GetHouse(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	houseID, err := idParam(r, "house_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := h.Houses.GetHouse(r.Context(), user.ID, houseID)
	if err != nil {
		h.writeHouseError(w, "houses.get", err, user.ID, houseID)
		return
	}

	writeJSON(w, http.StatusOK, toHouseResponse(result))
}

func (h *Handlers) DeleteHouse(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	houseID, err := idParam(r, "house_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.Houses.DeleteHouse(r.Context(), user.ID, houseID); err != nil {
		h.writeHouseError(w, "houses.delete", err, user.ID, houseID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListHouseMembers(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	houseID, err := idParam(r, "house_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	members, err := h.Houses.ListMembers(r.Context(), user.ID, houseID)
	if err != nil {
		h.writeHouseError(w, "houses.list_members", err, user.ID, houseID)
		return
	}

	response := make([]memberResponse, 0, len(members))
	for _, member := range members {
		response = append(response, memberResponse{
			UserID:   member.UserID,
			Role:     member.Role,
			JoinedAt: member.JoinedAt,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) AddHouseMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id is required")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	houseID, err := idParam(r, "house_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	member, err := h.Houses.AddMember(r.Context(), user.ID, houseID, req.UserID)
	if err != nil {
		if errors.Is(err, housedomain.ErrAlreadyMember) {
			h.log.BusinessError("houses.add_member: already a member", err, "house_id", houseID, "member_id", req.UserID)
			writeError(w, http.StatusConflict, "already_member", "already a member")
			return
		}
		h.writeHouseError(w, "houses.add_member", err, user.ID, houseID)
		return
	}

	writeJSON(w, http.StatusCreated, memberResponse{
		UserID:   member.UserID,
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	})
}

func (h *Handlers) RemoveHouseMember(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	houseID, err := idParam(r, "house_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	memberID, err := idParam(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.Houses.RemoveMember(r.Context(), user.ID, houseID, memberID); err != nil {
		switch {
		case errors.Is(err, housedomain.ErrCannotRemoveOwner):
			h.log.BusinessError("houses.remove_member: cannot remove owner", err, "house_id", houseID, "member_id", memberID)
			writeError(w, http.StatusConflict, "cannot_remove_owner", "cannot remove owner")
		case errors.Is(err, housedomain.ErrMemberNotFound):
			h.log.BusinessError("houses.remove_member: member not found", err, "house_id", houseID, "member_id", memberID)
			writeError(w, http.StatusNotFound, "member_not_found", "member not found")
		default:
			h.writeHouseError(w, "houses.remove_member", err, user.ID, houseID)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeHouseError maps the recurring house domain errors every house
// operation can return.
func (h *Handlers) writeHouseError(w http.ResponseWriter, op string, err error, userID, houseID int64) {
	switch {
	case errors.Is(err, housedomain.ErrHouseNotFound):
		h.log.BusinessError(op+": house not found", err, "user_id", userID, "house_id", houseID)
		writeError(w, http.StatusNotFound, "house_not_found", "house not found")
	case errors.Is(err, housedomain.ErrMemberNotFound), errors.Is(err, housedomain.ErrNotMember):
		h.log.BusinessError(op+": not a member", err, "user_id", userID, "house_id", houseID)
		writeError(w, http.StatusForbidden, "not_member", "not a member of this house")
	case errors.Is(err, housedomain.ErrNotOwner):
		h.log.BusinessError(op+": not owner", err, "user_id", userID, "house_id", houseID)
		writeError(w, http.StatusForbidden, "not_owner", "only the owner can do this")
	default:
		h.log.InternalError(op+": failed", err, "user_id", userID, "house_id", houseID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func toHouseResponse(houseModel *housedomain.House) houseResponse {
	return houseResponse{
		ID:        houseModel.ID,
		Name:      houseModel.Name,
		Address:   houseModel.Address,
		OwnerID:   houseModel.OwnerID,
		CreatedAt: houseModel.CreatedAt,
	}
}
