package repository

import (
	"context"
	"fmt"
	"time"

	"clubbot/internal/models"
)

var profileColumns = map[models.ProfileField]string{
	models.FieldName:         "name",
	models.FieldSurname:      "surname",
	models.FieldPatronymic:   "patronymic",
	models.FieldPhone:        "phone",
	models.FieldEmail:        "email",
	models.FieldOrganization: "organization",
}

// GetProfile returns the user's contact profile or ErrNotFound.
func (r *SQLStore) GetProfile(ctx context.Context, userID int64) (*models.RegEventProfile, error) {
	var p models.RegEventProfile
	err := r.get(ctx, &p,
		`SELECT user_id, name, surname, patronymic, phone, email, organization
		 FROM reg_event_profiles WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SetProfileField stores one profile field, creating the profile row on first use.
func (r *SQLStore) SetProfileField(ctx context.Context, userID int64, field models.ProfileField, value string) error {
	col, ok := profileColumns[field]
	if !ok {
		return fmt.Errorf("unknown profile field %q", field)
	}
	query := fmt.Sprintf(
		`INSERT INTO reg_event_profiles (user_id, %[1]s) VALUES (?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET %[1]s = excluded.%[1]s`, col)
	if _, err := r.exec(ctx, query, userID, value); err != nil {
		return fmt.Errorf("set profile %s for %d: %w", col, userID, err)
	}
	return nil
}

// CreateQRCode appends an issuance record to the QR audit trail.
func (r *SQLStore) CreateQRCode(ctx context.Context, code models.QRCode) error {
	if code.IssuedAt.IsZero() {
		code.IssuedAt = time.Now().UTC()
	}
	_, err := r.exec(ctx,
		`INSERT INTO qr_codes (id, user_id, event_name, issued_at, used) VALUES (?, ?, ?, ?, ?)`,
		code.ID, code.UserID, code.EventName, code.IssuedAt, code.Used)
	if err != nil {
		return fmt.Errorf("create qr code (%d, %q): %w", code.UserID, code.EventName, err)
	}
	return nil
}

// MarkQRCodeUsed flags every issued code of the registration as redeemed.
// Codes issued before the audit trail existed are simply absent.
func (r *SQLStore) MarkQRCodeUsed(ctx context.Context, userID int64, event string) error {
	if _, err := r.exec(ctx, `UPDATE qr_codes SET used = ? WHERE user_id = ? AND event_name = ?`,
		true, userID, event); err != nil {
		return fmt.Errorf("mark qr used (%d, %q): %w", userID, event, err)
	}
	return nil
}
