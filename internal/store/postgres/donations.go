package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/reliefhub/relief-server/internal/models"
	"github.com/reliefhub/relief-server/internal/store"
)

const donationColumns = `id, donor_name, resource_type, quantity, date_donated, status,
	donor_email, donor_phone, delivery_address, notes, donor_user_id, version`

func scanDonation(row pgx.Row) (*models.Donation, error) {
	var d models.Donation
	var status string
	var email, phone, address, notes *string
	if err := row.Scan(&d.ID, &d.DonorName, &d.ResourceType, &d.Quantity, &d.DateDonated, &status,
		&email, &phone, &address, &notes, &d.DonorUserID, &d.Version); err != nil {
		return nil, err
	}
	d.Status = models.DonationStatus(status)
	d.DonorEmail = deref(email)
	d.DonorPhone = deref(phone)
	d.DeliveryAddress = deref(address)
	d.Notes = deref(notes)
	return &d, nil
}

// CreateDonation inserts a new donation
func (s *Store) CreateDonation(ctx context.Context, d *models.Donation) error {
	if d.Version <= 0 {
		d.Version = 1
	}
	_, err := s.db.Exec(ctx, `INSERT INTO donations (`+donationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		d.ID, d.DonorName, d.ResourceType, d.Quantity, d.DateDonated, string(d.Status),
		nullable(d.DonorEmail), nullable(d.DonorPhone), nullable(d.DeliveryAddress), nullable(d.Notes),
		d.DonorUserID, d.Version)
	if err != nil {
		return fmt.Errorf("insert donation: %w", err)
	}
	return nil
}

// GetDonation looks up a donation by id
func (s *Store) GetDonation(ctx context.Context, id uuid.UUID) (*models.Donation, error) {
	d, err := scanDonation(s.db.QueryRow(ctx, `SELECT `+donationColumns+` FROM donations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get donation: %w", err)
	}
	return d, nil
}

// UpdateDonation writes the mutable donation fields under a version check
func (s *Store) UpdateDonation(ctx context.Context, d *models.Donation) error {
	tag, err := s.db.Exec(ctx, `UPDATE donations
		SET donor_name = $1, resource_type = $2, quantity = $3, status = $4, donor_email = $5,
			donor_phone = $6, delivery_address = $7, notes = $8, version = version + 1
		WHERE id = $9 AND version = $10`,
		d.DonorName, d.ResourceType, d.Quantity, string(d.Status),
		nullable(d.DonorEmail), nullable(d.DonorPhone), nullable(d.DeliveryAddress), nullable(d.Notes),
		d.ID, d.Version)
	if err != nil {
		return fmt.Errorf("update donation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.missingOrConflict(ctx, "donations", d.ID)
	}
	d.Version++
	return nil
}

// DeleteDonation removes a donation; absent ids are ignored
func (s *Store) DeleteDonation(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM donations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete donation: %w", err)
	}
	return nil
}

func donationWhere(f store.DonationFilter) *where {
	w := &where{}
	if f.Status != "" {
		w.add("status = $%d", string(f.Status))
	}
	if f.DonorUserID != "" {
		w.add("donor_user_id = $%d", f.DonorUserID)
	}
	return w
}

// ListDonations returns donations newest first
func (s *Store) ListDonations(ctx context.Context, f store.DonationFilter) ([]models.Donation, error) {
	w := donationWhere(f)
	rows, err := s.db.Query(ctx, `SELECT `+donationColumns+` FROM donations`+w.String()+
		` ORDER BY date_donated DESC, id`+limitClause(f.Limit), w.args...)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	defer rows.Close()

	out := make([]models.Donation, 0)
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// CountDonations counts donations matching f
func (s *Store) CountDonations(ctx context.Context, f store.DonationFilter) (int64, error) {
	w := donationWhere(f)
	var n int64
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM donations`+w.String(), w.args...).Scan(&n)
	return n, err
}
