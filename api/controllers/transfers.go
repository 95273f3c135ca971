package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fishermenfirst/fleetquota-backend/api/responses"
	"github.com/fishermenfirst/fleetquota-backend/api/validators"
	"github.com/fishermenfirst/fleetquota-backend/internal/transfers"
	"github.com/fishermenfirst/fleetquota-backend/pkg/config"
	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
	pkgerrors "github.com/fishermenfirst/fleetquota-backend/pkg/errors"
	"github.com/fishermenfirst/fleetquota-backend/pkg/logger"
)

type transferRequest struct {
	FromLLP      string          `json:"from_llp" validate:"required"`
	ToLLP        string          `json:"to_llp" validate:"required"`
	SpeciesCode  int             `json:"species_code" validate:"required"`
	Year         int             `json:"year"`
	Pounds       decimal.Decimal `json:"pounds" validate:"required"`
	TransferDate *string         `json:"transfer_date"`
	Notes        *string         `json:"notes"`
}

func (t transferRequest) toInput(quotaCfg config.QuotaConfig) (transfers.CreateTransferInput, error) {
	code, err := enums.ParseTransferableSpecies(t.SpeciesCode)
	if err != nil {
		return transfers.CreateTransferInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid species code")
	}

	year := t.Year
	if year == 0 {
		year = quotaCfg.SeasonYear
	}

	input := transfers.CreateTransferInput{
		FromLLP:     strings.TrimSpace(t.FromLLP),
		ToLLP:       strings.TrimSpace(t.ToLLP),
		SpeciesCode: code,
		Year:        year,
		Pounds:      t.Pounds,
		Notes:       t.Notes,
	}
	if t.TransferDate != nil && *t.TransferDate != "" {
		date, err := time.Parse("2006-01-02", *t.TransferDate)
		if err != nil {
			return transfers.CreateTransferInput{}, pkgerrors.New(pkgerrors.CodeValidation, "transfer_date must be a YYYY-MM-DD date")
		}
		input.TransferDate = date
	}
	return input, nil
}

// TransferValidate runs the writable-transfer checks without writing, for
// pre-submission feedback in the transfer form.
func TransferValidate(svc transfers.Service, quotaCfg config.QuotaConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload transferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(quotaCfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Validate(r.Context(), orgID, input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"valid": true})
	}
}

func TransferCreate(svc transfers.Service, quotaCfg config.QuotaConfig, logg *logger.Logger) http.HandlerFunc {
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

		var payload transferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(quotaCfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.CreatedBy = userID

		created, err := svc.Create(r.Context(), orgID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func TransferList(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
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

		year, err := validators.ParseQueryInt(r, "year", 0, 0, 2100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := transfers.ListFilter{LLP: llp, Year: year}
		if raw := strings.TrimSpace(r.URL.Query().Get("species_code")); raw != "" {
			code, parseErr := validators.ParseQueryInt(r, "species_code", 0, 1, 999)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, parseErr)
				return
			}
			filter.SpeciesCode = enums.SpeciesCode(code)
		}

		views, err := svc.List(r.Context(), orgID, filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}

func TransferDelete(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
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

		id, err := validators.ParsePathUUID(chi.URLParam(r, "transferId"), "transferId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SoftDelete(r.Context(), orgID, id, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
