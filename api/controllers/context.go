package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/fishermenfirst/fleetquota-backend/api/middleware"
	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
	pkgerrors "github.com/fishermenfirst/fleetquota-backend/pkg/errors"
)

func orgFromRequest(r *http.Request) (uuid.UUID, error) {
	orgID, err := uuid.Parse(middleware.OrgIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "org context missing")
	}
	return orgID, nil
}

func userFromRequest(r *http.Request) (uuid.UUID, error) {
	userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return userID, nil
}

// scopeLLP narrows a requested permit to the caller's own permit when the
// caller is a vessel owner. Other roles see the fleet.
func scopeLLP(r *http.Request, requested string) (string, error) {
	role := middleware.RoleFromContext(r.Context())
	if role != string(enums.RoleVesselOwner) {
		return requested, nil
	}
	own := middleware.LLPFromContext(r.Context())
	if own == "" {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "no permit bound to this account")
	}
	if requested != "" && requested != own {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "permit outside your scope")
	}
	return own, nil
}
