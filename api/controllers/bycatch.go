package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fishermenfirst/fleetquota-backend/api/responses"
	"github.com/fishermenfirst/fleetquota-backend/api/validators"
	"github.com/fishermenfirst/fleetquota-backend/internal/bycatch"
	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
	pkgerrors "github.com/fishermenfirst/fleetquota-backend/pkg/errors"
	"github.com/fishermenfirst/fleetquota-backend/pkg/logger"
)

type haulRequest struct {
	HaulNumber          int      `json:"haul_number" validate:"required,min=1"`
	LocationName        *string  `json:"location_name"`
	HighSalmonEncounter bool     `json:"high_salmon_encounter"`
	SetDate             string   `json:"set_date" validate:"required"`
	SetTime             *string  `json:"set_time"`
	SetLatitude         float64  `json:"set_latitude" validate:"latitude"`
	SetLongitude        float64  `json:"set_longitude" validate:"longitude"`
	RetrievalDate       *string  `json:"retrieval_date"`
	RetrievalTime       *string  `json:"retrieval_time"`
	RetrievalLatitude   *float64 `json:"retrieval_latitude"`
	RetrievalLongitude  *float64 `json:"retrieval_longitude"`
}

type alertCreateRequest struct {
	ReportedByLLP string          `json:"reported_by_llp" validate:"required"`
	SpeciesCode   int             `json:"species_code" validate:"required"`
	Latitude      float64         `json:"latitude" validate:"latitude"`
	Longitude     float64         `json:"longitude" validate:"longitude"`
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	Details       *string         `json:"details"`
	Hauls         []haulRequest   `json:"hauls" validate:"dive"`
}

func (a alertCreateRequest) toInput() (bycatch.CreateAlertInput, error) {
	input := bycatch.CreateAlertInput{
		ReportedByLLP: strings.TrimSpace(a.ReportedByLLP),
		SpeciesCode:   a.SpeciesCode,
		Latitude:      a.Latitude,
		Longitude:     a.Longitude,
		Amount:        a.Amount,
		Details:       a.Details,
	}
	for _, haul := range a.Hauls {
		setDate, err := time.Parse("2006-01-02", haul.SetDate)
		if err != nil {
			return bycatch.CreateAlertInput{}, pkgerrors.New(pkgerrors.CodeValidation, "set_date must be a YYYY-MM-DD date")
		}
		h := bycatch.HaulInput{
			HaulNumber:          haul.HaulNumber,
			LocationName:        haul.LocationName,
			HighSalmonEncounter: haul.HighSalmonEncounter,
			SetDate:             setDate,
			SetTime:             haul.SetTime,
			SetLatitude:         haul.SetLatitude,
			SetLongitude:        haul.SetLongitude,
			RetrievalTime:       haul.RetrievalTime,
			RetrievalLatitude:   haul.RetrievalLatitude,
			RetrievalLongitude:  haul.RetrievalLongitude,
		}
		if haul.RetrievalDate != nil && *haul.RetrievalDate != "" {
			retrievalDate, err := time.Parse("2006-01-02", *haul.RetrievalDate)
			if err != nil {
				return bycatch.CreateAlertInput{}, pkgerrors.New(pkgerrors.CodeValidation, "retrieval_date must be a YYYY-MM-DD date")
			}
			h.RetrievalDate = &retrievalDate
		}
		input.Hauls = append(input.Hauls, h)
	}
	return input, nil
}

func AlertCreate(svc bycatch.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload alertCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
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

func AlertGet(svc bycatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "alertId"), "alertId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Get(r.Context(), orgID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func AlertList(svc bycatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.AlertStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, parseErr := enums.ParseAlertStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter"))
				return
			}
			status = &parsed
		}

		views, err := svc.List(r.Context(), orgID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}

func AlertPendingCount(svc bycatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		count, err := svc.PendingCount(r.Context(), orgID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"pending": count})
	}
}

type alertUpdateRequest struct {
	Latitude  *float64         `json:"latitude"`
	Longitude *float64         `json:"longitude"`
	Amount    *decimal.Decimal `json:"amount"`
	Details   *string          `json:"details"`
}

func AlertUpdate(svc bycatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "alertId"), "alertId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload alertUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), orgID, id, bycatch.UpdateAlertInput{
			Latitude:  payload.Latitude,
			Longitude: payload.Longitude,
			Amount:    payload.Amount,
			Details:   payload.Details,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func AlertShare(svc bycatch.Service, logg *logger.Logger) http.HandlerFunc {
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

		id, err := validators.ParsePathUUID(chi.URLParam(r, "alertId"), "alertId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Share(r.Context(), orgID, id, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AlertDismiss(svc bycatch.Service, logg *logger.Logger) http.HandlerFunc {
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

		id, err := validators.ParsePathUUID(chi.URLParam(r, "alertId"), "alertId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Dismiss(r.Context(), orgID, id, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "dismissed"})
	}
}
