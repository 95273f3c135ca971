package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fishermenfirst/fleetquota-backend/api/responses"
	"github.com/fishermenfirst/fleetquota-backend/api/validators"
	"github.com/fishermenfirst/fleetquota-backend/internal/allocations"
	"github.com/fishermenfirst/fleetquota-backend/pkg/config"
	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
	pkgerrors "github.com/fishermenfirst/fleetquota-backend/pkg/errors"
	"github.com/fishermenfirst/fleetquota-backend/pkg/logger"
)

type quotaAllocationRequest struct {
	SeasonID      string          `json:"season_id" validate:"required"`
	CooperativeID string          `json:"cooperative_id" validate:"required"`
	SpeciesID     string          `json:"species_id" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"required"`
}

func (q quotaAllocationRequest) toInput() (allocations.CreateQuotaAllocationInput, error) {
	seasonID, err := uuid.Parse(strings.TrimSpace(q.SeasonID))
	if err != nil {
		return allocations.CreateQuotaAllocationInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid season_id")
	}
	coopID, err := uuid.Parse(strings.TrimSpace(q.CooperativeID))
	if err != nil {
		return allocations.CreateQuotaAllocationInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid cooperative_id")
	}
	speciesID, err := uuid.Parse(strings.TrimSpace(q.SpeciesID))
	if err != nil {
		return allocations.CreateQuotaAllocationInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid species_id")
	}
	return allocations.CreateQuotaAllocationInput{
		SeasonID:      seasonID,
		CooperativeID: coopID,
		SpeciesID:     speciesID,
		Amount:        q.Amount,
	}, nil
}

func QuotaAllocationCreate(svc allocations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload quotaAllocationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateQuotaAllocation(r.Context(), orgID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

type allocationAmountRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

func QuotaAllocationUpdateAmount(svc allocations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "allocationId"), "allocationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload allocationAmountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateQuotaAllocationAmount(r.Context(), orgID, id, payload.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func QuotaAllocationGet(svc allocations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "allocationId"), "allocationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		allocation, err := svc.GetQuotaAllocation(r.Context(), orgID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, allocation)
	}
}

func QuotaAllocationList(svc allocations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var seasonID *uuid.UUID
		if raw := strings.TrimSpace(r.URL.Query().Get("season_id")); raw != "" {
			parsed, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid season_id"))
				return
			}
			seasonID = &parsed
		}

		views, err := svc.ListQuotaAllocations(r.Context(), orgID, seasonID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}

func QuotaAllocationDelete(svc allocations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "allocationId"), "allocationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SoftDeleteQuotaAllocation(r.Context(), orgID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type vesselAllocationRequest struct {
	LLP           string          `json:"llp" validate:"required"`
	SpeciesCode   int             `json:"species_code" validate:"required"`
	Year          int             `json:"year"`
	AllocationLbs decimal.Decimal `json:"allocation_lbs" validate:"required"`
}

func VesselAllocationCreate(svc allocations.Service, quotaCfg config.QuotaConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := userFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload vesselAllocationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		year := payload.Year
		if year == 0 {
			year = quotaCfg.SeasonYear
		}

		created, err := svc.CreateVesselAllocation(r.Context(), orgID, allocations.CreateVesselAllocationInput{
			LLP:           strings.TrimSpace(payload.LLP),
			SpeciesCode:   enums.SpeciesCode(payload.SpeciesCode),
			Year:          year,
			AllocationLbs: payload.AllocationLbs,
			CreatedBy:     &userID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func VesselAllocationList(svc allocations.Service, quotaCfg config.QuotaConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		llp, err := scopeLLP(r, strings.TrimSpace(r.URL.Query().Get("llp")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		year, err := validators.ParseQueryInt(r, "year", quotaCfg.SeasonYear, 2000, 2100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListVesselAllocations(r.Context(), orgID, llp, year)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func VesselAllocationDelete(svc allocations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "allocationId"), "allocationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SoftDeleteVesselAllocation(r.Context(), orgID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
