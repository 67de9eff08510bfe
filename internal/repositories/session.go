package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/kinohq/kino/internal/identity"
	"github.com/kinohq/kino/internal/shared"
)

// SessionRepository implements [identity.Keeper] over SQLite.
//
// Only the most recent session matters; Save replaces whatever was stored
// before so Load always returns at most one session.
type SessionRepository struct {
	db *sql.DB
}

var _ identity.Keeper = (*SessionRepository)(nil)

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save stores the session, replacing any previously persisted one.
func (r *SessionRepository) Save(session *identity.Session) error {
	if session == nil {
		return fmt.Errorf("cannot persist nil session")
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM sessions"); err != nil {
		return fmt.Errorf("failed to clear previous session: %w", err)
	}

	now := time.Now()
	var expiresAt sql.NullTime
	if !session.Token.Expiry.IsZero() {
		expiresAt = sql.NullTime{Time: session.Token.Expiry, Valid: true}
	}

	query := `
		INSERT INTO sessions (id, user_id, email, access_token, refresh_token, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.Exec(query,
		shared.GenerateID(),
		session.User.ID,
		session.User.Email,
		session.Token.AccessToken,
		session.Token.RefreshToken,
		expiresAt,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return tx.Commit()
}

// Load retrieves the persisted session, or (nil, nil) when none is stored.
func (r *SessionRepository) Load() (*identity.Session, error) {
	query := `
		SELECT user_id, email, access_token, refresh_token, expires_at
		FROM sessions
		ORDER BY updated_at DESC
		LIMIT 1
	`

	var (
		userID       string
		email        string
		accessToken  string
		refreshToken string
		expiresAt    sql.NullTime
	)

	err := r.db.QueryRow(query).Scan(&userID, &email, &accessToken, &refreshToken, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	session := &identity.Session{
		User: identity.User{ID: userID, Email: email},
	}
	session.Token.AccessToken = accessToken
	session.Token.RefreshToken = refreshToken
	if expiresAt.Valid {
		session.Token.Expiry = expiresAt.Time
	}

	return session, nil
}

// Clear removes any persisted session. Clearing an empty store is a no-op.
func (r *SessionRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM sessions"); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
