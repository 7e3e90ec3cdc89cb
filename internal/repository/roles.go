package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clubbot/internal/models"
)

// IsFaceControl reports whether the user holds the face-control role.
func (r *SQLStore) IsFaceControl(ctx context.Context, userID int64) (bool, error) {
	var fc models.FaceControl
	err := r.get(ctx, &fc, `SELECT user_id, granted_by, granted_at FROM face_control WHERE user_id = ?`, userID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GrantFaceControl assigns the face-control role. Granting twice keeps the first grant.
func (r *SQLStore) GrantFaceControl(ctx context.Context, fc models.FaceControl) error {
	if fc.GrantedAt.IsZero() {
		fc.GrantedAt = time.Now().UTC()
	}
	_, err := r.exec(ctx,
		`INSERT INTO face_control (user_id, granted_by, granted_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO NOTHING`,
		fc.UserID, fc.GrantedBy, fc.GrantedAt)
	if err != nil {
		return fmt.Errorf("grant face control %d: %w", fc.UserID, err)
	}
	return nil
}

// RevokeFaceControl removes the role. It returns ErrNotFound when the user did not hold it.
func (r *SQLStore) RevokeFaceControl(ctx context.Context, userID int64) error {
	return r.execOne(ctx, `DELETE FROM face_control WHERE user_id = ?`, userID)
}
