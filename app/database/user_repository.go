package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ UserRepository = (*userRepository)(nil)

type userRepository struct {
	db *DB
}

func NewUserRepository(db *DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetUser(id string) (*User, error) {
	return r.scanUser(r.db.QueryRow(`
		SELECT id, member_urn, name, email, access_token, dma_active, sync_enabled,
		       last_synced_at, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id))
}

func (r *userRepository) GetUserByMemberURN(memberURN string) (*User, error) {
	return r.scanUser(r.db.QueryRow(`
		SELECT id, member_urn, name, email, access_token, dma_active, sync_enabled,
		       last_synced_at, created_at, updated_at
		FROM users
		WHERE member_urn = $1
	`, memberURN))
}

// UpsertUser inserts a user on first connect and refreshes profile fields
// and token on reconnect. Returns the database id.
func (r *userRepository) UpsertUser(memberURN, name, email, accessToken string, dmaActive bool) (string, error) {
	var id string
	err := r.db.QueryRow(`
		INSERT INTO users (member_urn, name, email, access_token, dma_active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (member_urn) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			access_token = EXCLUDED.access_token,
			dma_active = EXCLUDED.dma_active,
			updated_at = NOW()
		RETURNING id
	`, memberURN, name, email, accessToken, dmaActive).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("failed to upsert user: %w", err)
	}

	return id, nil
}

func (r *userRepository) UpdateDMAStatus(id string, active bool) error {
	_, err := r.db.Exec(`
		UPDATE users
		SET dma_active = $2, updated_at = NOW()
		WHERE id = $1
	`, id, active)

	if err != nil {
		return fmt.Errorf("failed to update DMA status: %w", err)
	}

	return nil
}

func (r *userRepository) SetSyncEnabled(id string, enabled bool) error {
	_, err := r.db.Exec(`
		UPDATE users
		SET sync_enabled = $2, updated_at = NOW()
		WHERE id = $1
	`, id, enabled)

	if err != nil {
		return fmt.Errorf("failed to set sync enabled: %w", err)
	}

	return nil
}

func (r *userRepository) TouchLastSynced(id string) error {
	_, err := r.db.Exec(`
		UPDATE users
		SET last_synced_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, id)

	if err != nil {
		return fmt.Errorf("failed to touch last synced: %w", err)
	}

	return nil
}

// GetUsersDueForSync returns sync-enabled users whose last successful sync
// is older than the staleness threshold, oldest first.
func (r *userRepository) GetUsersDueForSync(threshold time.Duration, limit int) ([]User, error) {
	rows, err := r.db.Query(`
		SELECT id, member_urn, name, email, access_token, dma_active, sync_enabled,
		       last_synced_at, created_at, updated_at
		FROM users
		WHERE sync_enabled = true
		  AND dma_active = true
		  AND (last_synced_at IS NULL OR last_synced_at <= NOW() - $1::interval)
		ORDER BY COALESCE(last_synced_at, '1970-01-01'::timestamptz)
		LIMIT $2
	`, fmt.Sprintf("%d seconds", int(threshold.Seconds())), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get users due for sync: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		err := rows.Scan(
			&user.ID, &user.MemberURN, &user.Name, &user.Email, &user.AccessToken,
			&user.DMAActive, &user.SyncEnabled, &user.LastSyncedAt,
			&user.CreatedAt, &user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}

func (r *userRepository) GetUserCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get user count: %w", err)
	}
	return count, nil
}

func (r *userRepository) scanUser(row *sql.Row) (*User, error) {
	var user User
	err := row.Scan(
		&user.ID, &user.MemberURN, &user.Name, &user.Email, &user.AccessToken,
		&user.DMAActive, &user.SyncEnabled, &user.LastSyncedAt,
		&user.CreatedAt, &user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}
