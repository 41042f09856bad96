package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	housedomain "casa360/internal/domain/house"
	"casa360/pkg/logger"
)

// HouseAccess is what authenticated handlers learn about the caller's
// standing in the house they are addressing.
type HouseAccess struct {
	HouseID int64
	Role    string
}

type MembershipChecker interface {
	Membership(ctx context.Context, userID, houseID int64) (*housedomain.Member, error)
}

// HouseGuard resolves {house_id} and rejects callers who are not members.
// Everything mounted behind it can trust the house id in the context.
type HouseGuard struct {
	houses MembershipChecker
	log    logger.Logger
}

func NewHouseGuard(houses MembershipChecker, log logger.Logger) *HouseGuard {
	return &HouseGuard{houses: houses, log: log}
}

func (g *HouseGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			unauthorized(w)
			return
		}

		houseID, err := strconv.ParseInt(chi.URLParam(r, "house_id"), 10, 64)
		if err != nil || houseID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid house id")
			return
		}

		member, err := g.houses.Membership(r.Context(), user.ID, houseID)
		if err != nil {
			switch {
			case errors.Is(err, housedomain.ErrHouseNotFound):
				writeError(w, http.StatusNotFound, "house_not_found", "house not found")
			case errors.Is(err, housedomain.ErrNotMember), errors.Is(err, housedomain.ErrMemberNotFound):
				writeError(w, http.StatusForbidden, "not_member", "not a member of this house")
			default:
				g.log.InternalError("house guard: membership check failed", err, "user_id", user.ID, "house_id", houseID)
				writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
			}
			return
		}

		ctx := WithHouse(r.Context(), HouseAccess{HouseID: houseID, Role: member.Role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func WithHouse(ctx context.Context, access HouseAccess) context.Context {
	return context.WithValue(ctx, houseKey, access)
}

func HouseFromContext(ctx context.Context) (HouseAccess, bool) {
	access, ok := ctx.Value(houseKey).(HouseAccess)
	if !ok || access.HouseID == 0 {
		return HouseAccess{}, false
	}
	return access, true
}
