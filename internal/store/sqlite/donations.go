package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/reliefhub/relief-server/internal/models"
	"github.com/reliefhub/relief-server/internal/store"
)

const donationColumns = `id, donor_name, resource_type, quantity, date_donated, status,
	donor_email, donor_phone, delivery_address, notes, donor_user_id, version`

func scanDonation(row rowScanner) (*models.Donation, error) {
	var d models.Donation
	var donated string
	var email, phone, address, notes, donor sql.NullString
	if err := row.Scan(&d.ID, &d.DonorName, &d.ResourceType, &d.Quantity, &donated, &d.Status,
		&email, &phone, &address, &notes, &donor, &d.Version); err != nil {
		return nil, err
	}
	t, err := parseTime(donated)
	if err != nil {
		return nil, err
	}
	d.DateDonated = t
	d.DonorEmail = email.String
	d.DonorPhone = phone.String
	d.DeliveryAddress = address.String
	d.Notes = notes.String
	d.DonorUserID = optionalString(donor)
	return &d, nil
}

// CreateDonation inserts a new donation
func (s *Store) CreateDonation(ctx context.Context, d *models.Donation) error {
	if d.Version <= 0 {
		d.Version = 1
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO donations (`+donationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.DonorName, d.ResourceType, d.Quantity, formatTime(d.DateDonated), string(d.Status),
		nullable(d.DonorEmail), nullable(d.DonorPhone), nullable(d.DeliveryAddress), nullable(d.Notes),
		nullablePtr(d.DonorUserID), d.Version)
	if err != nil {
		return fmt.Errorf("insert donation: %w", err)
	}
	return nil
}

// GetDonation looks up a donation by id
func (s *Store) GetDonation(ctx context.Context, id uuid.UUID) (*models.Donation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+donationColumns+` FROM donations WHERE id=?`, id)
	d, err := scanDonation(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get donation: %w", err)
	}
	return d, nil
}

// UpdateDonation writes the mutable donation fields under a version check.
// Owner and donation date are never written.
func (s *Store) UpdateDonation(ctx context.Context, d *models.Donation) error {
	res, err := s.db.ExecContext(ctx, `UPDATE donations
		SET donor_name=?, resource_type=?, quantity=?, status=?, donor_email=?, donor_phone=?,
			delivery_address=?, notes=?, version=version+1
		WHERE id=? AND version=?`,
		d.DonorName, d.ResourceType, d.Quantity, string(d.Status),
		nullable(d.DonorEmail), nullable(d.DonorPhone), nullable(d.DeliveryAddress), nullable(d.Notes),
		d.ID, d.Version)
	if err != nil {
		return fmt.Errorf("update donation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return s.missingOrConflict(ctx, "donations", d.ID.String())
	}
	d.Version++
	return nil
}

// DeleteDonation removes a donation; absent ids are ignored
func (s *Store) DeleteDonation(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM donations WHERE id=?`, id); err != nil {
		return fmt.Errorf("delete donation: %w", err)
	}
	return nil
}

func donationWhere(f store.DonationFilter) *where {
	w := &where{}
	if f.Status != "" {
		w.add("status=?", string(f.Status))
	}
	if f.DonorUserID != "" {
		w.add("donor_user_id=?", f.DonorUserID)
	}
	return w
}

// ListDonations returns donations newest first
func (s *Store) ListDonations(ctx context.Context, f store.DonationFilter) ([]models.Donation, error) {
	w := donationWhere(f)
	rows, err := s.db.QueryContext(ctx, `SELECT `+donationColumns+` FROM donations`+w.String()+
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
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM donations`+w.String(), w.args...).Scan(&n)
	return n, err
}
