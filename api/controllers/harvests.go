package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fishermenfirst/fleetquota-backend/api/responses"
	"github.com/fishermenfirst/fleetquota-backend/api/validators"
	"github.com/fishermenfirst/fleetquota-backend/internal/harvests"
	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
	pkgerrors "github.com/fishermenfirst/fleetquota-backend/pkg/errors"
	"github.com/fishermenfirst/fleetquota-backend/pkg/logger"
	"github.com/fishermenfirst/fleetquota-backend/pkg/pagination"
)

const maxImportSize = 32 << 20 // 32 MB

type harvestCreateRequest struct {
	LLP           string          `json:"llp" validate:"required"`
	SpeciesCode   int             `json:"species_code" validate:"required"`
	HarvestDate   string          `json:"harvest_date" validate:"required"`
	Pounds        decimal.Decimal `json:"pounds" validate:"required"`
	ProcessorCode *string         `json:"processor_code"`
	ReportNumber  *string         `json:"report_number"`
}

func HarvestCreate(svc harvests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload harvestCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		harvestDate, err := time.Parse("2006-01-02", payload.HarvestDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "harvest_date must be a YYYY-MM-DD date"))
			return
		}

		created, err := svc.Create(r.Context(), orgID, harvests.CreateHarvestInput{
			LLP:           strings.TrimSpace(payload.LLP),
			SpeciesCode:   enums.SpeciesCode(payload.SpeciesCode),
			HarvestDate:   harvestDate,
			Pounds:        payload.Pounds,
			ProcessorCode: payload.ProcessorCode,
			ReportNumber:  payload.ReportNumber,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func HarvestList(svc harvests.Service, logg *logger.Logger) http.HandlerFunc {
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

		speciesCode, err := validators.ParseQueryInt(r, "species_code", 0, 0, 999)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		year, err := validators.ParseQueryInt(r, "year", 0, 0, 2100)
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

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), orgID, harvests.ListFilter{
			LLP:         llp,
			SpeciesCode: enums.SpeciesCode(speciesCode),
			Year:        year,
			From:        from,
			To:          to,
		}, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// HarvestImport accepts an eFish CSV export as multipart form data under
// the "file" field.
func HarvestImport(svc harvests.Service, logg *logger.Logger) http.HandlerFunc {
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

		result, err := svc.ImportEFish(r.Context(), orgID, file, header.Filename)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func HarvestDelete(svc harvests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "harvestId"), "harvestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SoftDelete(r.Context(), orgID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
