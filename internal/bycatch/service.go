package bycatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fishermenfirst/fleetquota-backend/pkg/coords"
	"github.com/fishermenfirst/fleetquota-backend/pkg/db/models"
	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
	pkgerrors "github.com/fishermenfirst/fleetquota-backend/pkg/errors"
	"github.com/fishermenfirst/fleetquota-backend/pkg/logger"
	"github.com/fishermenfirst/fleetquota-backend/pkg/metrics"
	"github.com/fishermenfirst/fleetquota-backend/pkg/pubsub"
)

type fleetPublisher interface {
	PublishFleetAlert(ctx context.Context, event pubsub.FleetAlertEvent) (string, error)
}

// Service manages bycatch hotspot alerts. Lifecycle is pending → shared or
// pending → dismissed; shared and dismissed are terminal. Only pending
// alerts can be edited.
type Service interface {
	Create(ctx context.Context, orgID uuid.UUID, input CreateAlertInput) (*models.BycatchAlert, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (*AlertView, error)
	List(ctx context.Context, orgID uuid.UUID, status *enums.AlertStatus) ([]AlertView, error)
	PendingCount(ctx context.Context, orgID uuid.UUID) (int64, error)
	Update(ctx context.Context, orgID, id uuid.UUID, input UpdateAlertInput) (*models.BycatchAlert, error)
	Share(ctx context.Context, orgID, id, actorUserID uuid.UUID) (*ShareResult, error)
	Dismiss(ctx context.Context, orgID, id, actorUserID uuid.UUID) error
}

// HaulInput is one set/retrieval within a new alert.
type HaulInput struct {
	HaulNumber          int
	LocationName        *string
	HighSalmonEncounter bool
	SetDate             time.Time
	SetTime             *string
	SetLatitude         float64
	SetLongitude        float64
	RetrievalDate       *time.Time
	RetrievalTime       *string
	RetrievalLatitude   *float64
	RetrievalLongitude  *float64
	BottomDepth         *float64
	SeaDepth            *float64
	Amount              decimal.Decimal
}

// CreateAlertInput reports a bycatch hotspot on behalf of a vessel. The unit
// is resolved from the species reference record, never supplied by the caller.
type CreateAlertInput struct {
	ReportedByLLP string
	SpeciesCode   int
	Latitude      float64
	Longitude     float64
	Amount        decimal.Decimal
	Details       *string
	Hauls         []HaulInput
	CreatedBy     uuid.UUID
}

// UpdateAlertInput patches a pending alert. Nil fields are left unchanged.
type UpdateAlertInput struct {
	Latitude  *float64
	Longitude *float64
	Amount    *decimal.Decimal
	Details   *string
}

// AlertView decorates an alert with vessel and display fields.
type AlertView struct {
	models.BycatchAlert
	VesselName  string `json:"vessel_name"`
	SpeciesName string `json:"species_name"`
	Position    string `json:"position"`
}

// ShareResult reports the outcome of a share. AlreadyShared distinguishes
// the idempotent re-share from the first broadcast.
type ShareResult struct {
	Alert          *models.BycatchAlert `json:"alert"`
	AlreadyShared  bool                 `json:"already_shared"`
	RecipientCount int                  `json:"recipient_count"`
	BroadcastError string               `json:"broadcast_error,omitempty"`
}

type service struct {
	repo         Repository
	publisher    fleetPublisher
	quotaMetrics *metrics.QuotaMetrics
	log          *logger.Logger
}

// NewService wires the bycatch service. publisher, quotaMetrics and log may
// be nil; sharing then records the state change without a fleet broadcast.
func NewService(repo Repository, publisher fleetPublisher, quotaMetrics *metrics.QuotaMetrics, log *logger.Logger) Service {
	return &service{repo: repo, publisher: publisher, quotaMetrics: quotaMetrics, log: log}
}

func (s *service) Create(ctx context.Context, orgID uuid.UUID, input CreateAlertInput) (*models.BycatchAlert, error) {
	if input.ReportedByLLP == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "LLP is required.")
	}
	code, err := enums.ParsePSCSpecies(input.SpeciesCode)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("Species %d is not a PSC species.", input.SpeciesCode))
	}
	if err := coords.ValidatePosition(input.Latitude, input.Longitude); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Amount must be greater than zero.")
	}
	for _, haul := range input.Hauls {
		if err := coords.ValidatePosition(haul.SetLatitude, haul.SetLongitude); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err,
				fmt.Sprintf("Haul %d: %s", haul.HaulNumber, err.Error()))
		}
		if haul.RetrievalLatitude != nil && haul.RetrievalLongitude != nil {
			if err := coords.ValidatePosition(*haul.RetrievalLatitude, *haul.RetrievalLongitude); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err,
					fmt.Sprintf("Haul %d: %s", haul.HaulNumber, err.Error()))
			}
		}
	}

	if _, err := s.repo.FindMemberByLLP(ctx, orgID, input.ReportedByLLP); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("Permit %s is not a cooperative member.", input.ReportedByLLP))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to resolve permit")
	}

	unit := enums.AmountUnitPounds
	if species, err := s.repo.FindSpeciesByCode(ctx, int(code)); err == nil {
		unit = species.Unit
	}

	alert := &models.BycatchAlert{
		OrgID:         orgID,
		ReportedByLLP: input.ReportedByLLP,
		SpeciesCode:   code,
		Latitude:      input.Latitude,
		Longitude:     input.Longitude,
		Amount:        input.Amount,
		Unit:          unit,
		Details:       input.Details,
		Status:        enums.AlertStatusPending,
		CreatedBy:     input.CreatedBy,
	}
	for _, haul := range input.Hauls {
		alert.Hauls = append(alert.Hauls, models.BycatchHaul{
			HaulNumber:          haul.HaulNumber,
			LocationName:        haul.LocationName,
			HighSalmonEncounter: haul.HighSalmonEncounter,
			SetDate:             haul.SetDate,
			SetTime:             haul.SetTime,
			SetLatitude:         haul.SetLatitude,
			SetLongitude:        haul.SetLongitude,
			RetrievalDate:       haul.RetrievalDate,
			RetrievalTime:       haul.RetrievalTime,
			RetrievalLatitude:   haul.RetrievalLatitude,
			RetrievalLongitude:  haul.RetrievalLongitude,
			BottomDepth:         haul.BottomDepth,
			SeaDepth:            haul.SeaDepth,
			Amount:              haul.Amount,
		})
	}

	if err := s.repo.Create(ctx, alert); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create bycatch alert")
	}
	return alert, nil
}

func (s *service) Get(ctx context.Context, orgID, id uuid.UUID) (*AlertView, error) {
	alert, err := s.loadAlert(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	view := s.decorate(ctx, orgID, *alert)
	return &view, nil
}

func (s *service) List(ctx context.Context, orgID uuid.UUID, status *enums.AlertStatus) ([]AlertView, error) {
	alerts, err := s.repo.List(ctx, orgID, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list bycatch alerts")
	}
	views := make([]AlertView, 0, len(alerts))
	for _, alert := range alerts {
		views = append(views, s.decorate(ctx, orgID, alert))
	}
	return views, nil
}

func (s *service) PendingCount(ctx context.Context, orgID uuid.UUID) (int64, error) {
	count, err := s.repo.CountPending(ctx, orgID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to count pending alerts")
	}
	return count, nil
}

func (s *service) Update(ctx context.Context, orgID, id uuid.UUID, input UpdateAlertInput) (*models.BycatchAlert, error) {
	alert, err := s.loadAlert(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if alert.Status != enums.AlertStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("Cannot edit alert with status %q.", alert.Status))
	}

	latitude := alert.Latitude
	longitude := alert.Longitude
	if input.Latitude != nil {
		latitude = *input.Latitude
	}
	if input.Longitude != nil {
		longitude = *input.Longitude
	}
	if err := coords.ValidatePosition(latitude, longitude); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	if input.Amount != nil && !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Amount must be greater than zero.")
	}

	alert.Latitude = latitude
	alert.Longitude = longitude
	if input.Amount != nil {
		alert.Amount = *input.Amount
	}
	if input.Details != nil {
		alert.Details = input.Details
	}

	if err := s.repo.Save(ctx, alert); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to update bycatch alert")
	}
	return alert, nil
}

// Share marks the alert shared and broadcasts it to the fleet topic. Sharing
// an already-shared alert succeeds without a second broadcast. The broadcast
// is best-effort: a publish failure leaves the alert shared and is recorded
// on the delivery log.
func (s *service) Share(ctx context.Context, orgID, id, actorUserID uuid.UUID) (*ShareResult, error) {
	alert, err := s.loadAlert(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	switch alert.Status {
	case enums.AlertStatusShared:
		return &ShareResult{
			Alert:          alert,
			AlreadyShared:  true,
			RecipientCount: alert.SharedRecipientCount,
		}, nil
	case enums.AlertStatusDismissed:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "Cannot share a dismissed alert.")
	}

	recipients, err := s.repo.CountFleetRecipients(ctx, orgID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to count fleet recipients")
	}

	now := time.Now().UTC()
	alert.Status = enums.AlertStatusShared
	alert.SharedAt = &now
	alert.SharedBy = &actorUserID
	alert.SharedRecipientCount = int(recipients)

	if err := s.repo.Save(ctx, alert); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to share bycatch alert")
	}

	result := &ShareResult{Alert: alert, RecipientCount: int(recipients)}
	s.broadcast(ctx, alert, result)
	s.quotaMetrics.IncAlertShared()
	return result, nil
}

func (s *service) Dismiss(ctx context.Context, orgID, id, actorUserID uuid.UUID) error {
	alert, err := s.loadAlert(ctx, orgID, id)
	if err != nil {
		return err
	}
	if alert.Status == enums.AlertStatusShared {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "Cannot dismiss alert that is already shared.")
	}
	if alert.Status == enums.AlertStatusDismissed {
		return nil
	}

	alert.Status = enums.AlertStatusDismissed
	if err := s.repo.Save(ctx, alert); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to dismiss bycatch alert")
	}
	return nil
}

func (s *service) loadAlert(ctx context.Context, orgID, id uuid.UUID) (*models.BycatchAlert, error) {
	alert, err := s.repo.GetByID(ctx, orgID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "alert not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load bycatch alert")
	}
	return alert, nil
}

func (s *service) decorate(ctx context.Context, orgID uuid.UUID, alert models.BycatchAlert) AlertView {
	view := AlertView{
		BycatchAlert: alert,
		SpeciesName:  alert.SpeciesCode.ShortName(),
		Position:     coords.FormatPosition(alert.Latitude, alert.Longitude),
	}
	if member, err := s.repo.FindMemberByLLP(ctx, orgID, alert.ReportedByLLP); err == nil {
		view.VesselName = member.VesselName
	}
	return view
}

func (s *service) broadcast(ctx context.Context, alert *models.BycatchAlert, result *ShareResult) {
	delivery := &models.AlertDelivery{
		AlertID:        alert.ID,
		RecipientCount: alert.SharedRecipientCount,
		Status:         "sent",
	}

	if s.publisher != nil {
		event := pubsub.FleetAlertEvent{
			AlertID:        alert.ID.String(),
			OrgID:          alert.OrgID.String(),
			SpeciesCode:    int(alert.SpeciesCode),
			SpeciesName:    alert.SpeciesCode.ShortName(),
			Latitude:       alert.Latitude,
			Longitude:      alert.Longitude,
			Position:       coords.FormatPosition(alert.Latitude, alert.Longitude),
			Amount:         alert.Amount.StringFixed(2),
			Unit:           alert.Unit.String(),
			RecipientCount: alert.SharedRecipientCount,
			SharedAt:       *alert.SharedAt,
		}
		if _, err := s.publisher.PublishFleetAlert(ctx, event); err != nil {
			message := err.Error()
			delivery.Status = "failed"
			delivery.ErrorMessage = &message
			result.BroadcastError = message
			if s.log != nil {
				s.log.Error(ctx, "fleet alert broadcast failed", err)
			}
		}
	}

	if err := s.repo.CreateDelivery(ctx, delivery); err != nil && s.log != nil {
		s.log.Error(ctx, "failed to record alert delivery", err)
	}
}
