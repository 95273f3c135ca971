package controllers

import (
	"net/http"
	"strings"

	"github.com/fishermenfirst/fleetquota-backend/api/responses"
	"github.com/fishermenfirst/fleetquota-backend/api/validators"
	"github.com/fishermenfirst/fleetquota-backend/internal/reports"
	"github.com/fishermenfirst/fleetquota-backend/pkg/config"
	pkgerrors "github.com/fishermenfirst/fleetquota-backend/pkg/errors"
	"github.com/fishermenfirst/fleetquota-backend/pkg/logger"
)

// Dashboard returns the per-permit remaining quota pivot for the season.
func Dashboard(svc reports.Service, quotaCfg config.QuotaConfig, logg *logger.Logger) http.HandlerFunc {
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
		coopCode := strings.TrimSpace(r.URL.Query().Get("coop"))

		view, err := svc.Dashboard(r.Context(), orgID, year, coopCode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// BalanceImport accepts an eLandings coopaccountbalance CSV as multipart
// form data under the "file" field.
func BalanceImport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := r.ParseMultipartForm(maxImportSize); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart upload"))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "file field is required"))
			return
		}
		defer file.Close()

		result, err := svc.ImportAccountBalances(r.Context(), orgID, file, header.Filename)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// DetailImport accepts an eLandings coopaccountdetail CSV.
func DetailImport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := r.ParseMultipartForm(maxImportSize); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart upload"))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "file field is required"))
			return
		}
		defer file.Close()

		result, err := svc.ImportAccountDetail(r.Context(), orgID, file, header.Filename)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func BalanceList(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		from, err := validators.ParseQueryDate(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryDate(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balances, err := svc.ListBalances(r.Context(), orgID, reports.BalanceFilter{
			CoopCode:     strings.TrimSpace(r.URL.Query().Get("coop")),
			SpeciesGroup: strings.TrimSpace(r.URL.Query().Get("species_group")),
			From:         from,
			To:           to,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, balances)
	}
}

func DetailList(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		speciesCode, err := validators.ParseQueryInt(r, "species_code", 0, 0, 999)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		from, err := validators.ParseQueryDate(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryDate(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		details, err := svc.ListDetails(r.Context(), orgID, reports.DetailFilter{
			VesselName:  strings.TrimSpace(r.URL.Query().Get("vessel")),
			SpeciesCode: speciesCode,
			From:        from,
			To:          to,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, details)
	}
}
