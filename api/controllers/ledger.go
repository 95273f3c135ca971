package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fishermenfirst/fleetquota-backend/api/responses"
	"github.com/fishermenfirst/fleetquota-backend/api/validators"
	"github.com/fishermenfirst/fleetquota-backend/internal/ledger"
	"github.com/fishermenfirst/fleetquota-backend/pkg/config"
	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
	pkgerrors "github.com/fishermenfirst/fleetquota-backend/pkg/errors"
	"github.com/fishermenfirst/fleetquota-backend/pkg/logger"
)

// LedgerFleet returns every permit's remaining balance for the season.
func LedgerFleet(svc ledger.Service, quotaCfg config.QuotaConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		year, err := validators.ParseQueryInt(r, "year", quotaCfg.SeasonYear, 2000, 2100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		fleet, err := svc.Fleet(r.Context(), orgID, year)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, fleet)
	}
}

// LedgerForPermit returns one permit's per-species balances. Vessel owners
// can only read their own permit.
func LedgerForPermit(svc ledger.Service, quotaCfg config.QuotaConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		llp, err := scopeLLP(r, chi.URLParam(r, "llp"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		year, err := validators.ParseQueryInt(r, "year", quotaCfg.SeasonYear, 2000, 2100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ForPermit(r.Context(), orgID, llp, year)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// LedgerRemaining returns the single permit/species balance row.
func LedgerRemaining(svc ledger.Service, quotaCfg config.QuotaConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		llp, err := scopeLLP(r, chi.URLParam(r, "llp"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rawCode, err := strconv.Atoi(chi.URLParam(r, "speciesCode"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "species code must be numeric"))
			return
		}
		code, err := enums.ParseTransferableSpecies(rawCode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid species code"))
			return
		}

		year, err := validators.ParseQueryInt(r, "year", quotaCfg.SeasonYear, 2000, 2100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Remaining(r.Context(), orgID, llp, code, year)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}
