package database

import (
	"database/sql"
	"fmt"
)

var _ PartnerRepository = (*partnerRepository)(nil)

type partnerRepository struct {
	db *DB
}

func NewPartnerRepository(db *DB) PartnerRepository {
	return &partnerRepository{db: db}
}

func (r *partnerRepository) CreateInvitation(fromUserID, toUserID, message string) (string, error) {
	var id string
	err := r.db.QueryRow(`
		INSERT INTO partner_invitations (from_user_id, to_user_id, message)
		VALUES ($1, $2, $3)
		RETURNING id
	`, fromUserID, toUserID, message).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("failed to create invitation: %w", err)
	}

	return id, nil
}

func (r *partnerRepository) GetInvitation(id string) (*PartnerInvitation, error) {
	var inv PartnerInvitation
	err := r.db.QueryRow(`
		SELECT id, from_user_id, to_user_id, message, status, created_at, updated_at
		FROM partner_invitations
		WHERE id = $1
	`, id).Scan(&inv.ID, &inv.FromUserID, &inv.ToUserID, &inv.Message, &inv.Status,
		&inv.CreatedAt, &inv.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	return &inv, nil
}

func (r *partnerRepository) ListInvitationsForUser(userID string) ([]PartnerInvitation, error) {
	rows, err := r.db.Query(`
		SELECT id, from_user_id, to_user_id, message, status, created_at, updated_at
		FROM partner_invitations
		WHERE from_user_id = $1 OR to_user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	var invitations []PartnerInvitation
	for rows.Next() {
		var inv PartnerInvitation
		err := rows.Scan(&inv.ID, &inv.FromUserID, &inv.ToUserID, &inv.Message,
			&inv.Status, &inv.CreatedAt, &inv.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invitation row: %w", err)
		}
		invitations = append(invitations, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invitation rows: %w", err)
	}

	return invitations, nil
}

// UpdateInvitationStatus transitions a pending invitation to accepted or
// declined. Invitations that already left the pending state stay as they
// are.
func (r *partnerRepository) UpdateInvitationStatus(id, status string) error {
	if status != InvitationAccepted && status != InvitationDeclined {
		return fmt.Errorf("invalid invitation status: %s", status)
	}

	result, err := r.db.Exec(`
		UPDATE partner_invitations
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`, id, status, InvitationPending)

	if err != nil {
		return fmt.Errorf("failed to update invitation status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check invitation update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("invitation %s is not pending", id)
	}

	return nil
}

// ListPartners returns users on the other side of accepted invitations.
func (r *partnerRepository) ListPartners(userID string) ([]User, error) {
	rows, err := r.db.Query(`
		SELECT u.id, u.member_urn, u.name, u.email, u.access_token, u.dma_active,
		       u.sync_enabled, u.last_synced_at, u.created_at, u.updated_at
		FROM partner_invitations i
		JOIN users u ON u.id = CASE WHEN i.from_user_id = $1 THEN i.to_user_id ELSE i.from_user_id END
		WHERE (i.from_user_id = $1 OR i.to_user_id = $1)
		  AND i.status = $2
		ORDER BY u.name
	`, userID, InvitationAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to list partners: %w", err)
	}
	defer rows.Close()

	var partners []User
	for rows.Next() {
		var user User
		err := rows.Scan(
			&user.ID, &user.MemberURN, &user.Name, &user.Email, &user.AccessToken,
			&user.DMAActive, &user.SyncEnabled, &user.LastSyncedAt,
			&user.CreatedAt, &user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan partner row: %w", err)
		}
		partners = append(partners, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating partner rows: %w", err)
	}

	return partners, nil
}
