package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/reliefhub/relief-server/internal/access"
	"github.com/reliefhub/relief-server/internal/models"
	"github.com/reliefhub/relief-server/internal/store"
	"go.uber.org/zap"
)

// DonationService handles donation business logic
type DonationService struct {
	store    store.DonationStore
	activity *ActivityLogService
	logger   *zap.SugaredLogger
	Now      func() time.Time
}

// NewDonationService creates a new donation service
func NewDonationService(st store.DonationStore, activity *ActivityLogService, logger *zap.SugaredLogger) *DonationService {
	return &DonationService{store: st, activity: activity, logger: logger, Now: time.Now}
}

func trimDonation(in *models.RecordDonationInput) {
	in.DonorName = strings.TrimSpace(in.DonorName)
	in.ResourceType = strings.TrimSpace(in.ResourceType)
	in.DonorEmail = strings.TrimSpace(in.DonorEmail)
	in.DonorPhone = strings.TrimSpace(in.DonorPhone)
	in.DeliveryAddress = strings.TrimSpace(in.DeliveryAddress)
	in.Notes = strings.TrimSpace(in.Notes)
}

// Record stores a new Pending donation owned by the actor
func (s *DonationService) Record(ctx context.Context, actor models.Actor, in models.RecordDonationInput) (*models.Donation, error) {
	if !access.CanReport(actor) {
		return nil, ErrForbidden
	}
	trimDonation(&in)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	owner := actor.ID
	d := &models.Donation{
		ID:              uuid.New(),
		DonorName:       in.DonorName,
		ResourceType:    in.ResourceType,
		Quantity:        in.Quantity,
		DateDonated:     s.Now().UTC(),
		Status:          models.DonationPending,
		DonorEmail:      in.DonorEmail,
		DonorPhone:      in.DonorPhone,
		DeliveryAddress: in.DeliveryAddress,
		Notes:           in.Notes,
		DonorUserID:     &owner,
		Version:         1,
	}
	if err := s.store.CreateDonation(ctx, d); err != nil {
		return nil, storeErr("create donation", err)
	}

	s.logger.Infow("Donation recorded", "donation_id", d.ID, "donor", actor.ID, "resource", d.ResourceType, "quantity", d.Quantity)
	s.activity.Log(ctx, actor, models.EntityDonation, d.ID.String(), "recorded", d.ResourceType)
	return d, nil
}

// Get returns one donation
func (s *DonationService) Get(ctx context.Context, id uuid.UUID) (*models.Donation, error) {
	d, err := s.store.GetDonation(ctx, id)
	if err != nil {
		return nil, storeErr("get donation", err)
	}
	return d, nil
}

// List returns donations newest first, optionally narrowed by status
func (s *DonationService) List(ctx context.Context, status string, limit int) ([]models.Donation, error) {
	f := store.DonationFilter{Limit: limit}
	if status != "" {
		st, err := models.ParseDonationStatus(status)
		if err != nil {
			return nil, invalid("status", err.Error())
		}
		f.Status = st
	}
	list, err := s.store.ListDonations(ctx, f)
	return list, storeErr("list donations", err)
}

// Mine returns the actor's own donations, newest first
func (s *DonationService) Mine(ctx context.Context, actor models.Actor) ([]models.Donation, error) {
	if actor.ID == "" {
		return nil, ErrForbidden
	}
	list, err := s.store.ListDonations(ctx, store.DonationFilter{DonorUserID: actor.ID})
	return list, storeErr("list donations", err)
}

// Edit replaces the editable fields of a donation. Only an admin or the
// donor who recorded it may edit; that check runs before input validation.
// Status and owner are not touched here.
func (s *DonationService) Edit(ctx context.Context, actor models.Actor, id uuid.UUID, in models.EditDonationInput) (*models.Donation, error) {
	d, err := s.store.GetDonation(ctx, id)
	if err != nil {
		return nil, storeErr("get donation", err)
	}
	if !access.CanEditDonation(actor, d) {
		s.logger.Infow("Donation edit rejected", "donation_id", id, "actor", actor.ID)
		return nil, ErrForbidden
	}
	trimDonation(&in.RecordDonationInput)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	if in.Version != 0 {
		d.Version = in.Version
	}
	d.DonorName = in.DonorName
	d.ResourceType = in.ResourceType
	d.Quantity = in.Quantity
	d.DonorEmail = in.DonorEmail
	d.DonorPhone = in.DonorPhone
	d.DeliveryAddress = in.DeliveryAddress
	d.Notes = in.Notes
	if err := s.store.UpdateDonation(ctx, d); err != nil {
		return nil, storeErr("update donation", err)
	}

	s.logger.Infow("Donation edited", "donation_id", id, "actor", actor.ID)
	s.activity.Log(ctx, actor, models.EntityDonation, id.String(), "edited", "")
	return d, nil
}

// SetStatus moves a donation to any status; admin only, no transition guard.
func (s *DonationService) SetStatus(ctx context.Context, actor models.Actor, id uuid.UUID, status string) (*models.Donation, error) {
	if !access.CanManageDonations(actor) {
		return nil, ErrForbidden
	}
	next, err := models.ParseDonationStatus(status)
	if err != nil {
		return nil, invalid("status", "must be Pending, Approved, Rejected or Fulfilled")
	}
	d, err := s.store.GetDonation(ctx, id)
	if err != nil {
		return nil, storeErr("get donation", err)
	}
	prev := d.Status
	d.Status = next
	if err := s.store.UpdateDonation(ctx, d); err != nil {
		return nil, storeErr("update donation", err)
	}

	s.logger.Infow("Donation status changed", "donation_id", id, "from", prev, "to", next, "admin", actor.ID)
	s.activity.Log(ctx, actor, models.EntityDonation, id.String(), "status_changed", string(prev)+" -> "+string(next))
	return d, nil
}

// Delete removes a donation. Deleting an absent id succeeds.
func (s *DonationService) Delete(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if !access.CanManageDonations(actor) {
		return ErrForbidden
	}
	if err := s.store.DeleteDonation(ctx, id); err != nil {
		return storeErr("delete donation", err)
	}
	s.logger.Infow("Donation deleted", "donation_id", id, "admin", actor.ID)
	s.activity.Log(ctx, actor, models.EntityDonation, id.String(), "deleted", "")
	return nil
}
