package session

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"github.com/solemarket/solechat/internal/model"
	"github.com/solemarket/solechat/internal/session/migrations"
)

// CredStore is the on-disk credential store for a profile: the bearer token
// and the signed-in user record, the terminal analog of the browser's
// localStorage. The transport reads the token fresh from here on every
// request, so a token replaced by a re-login takes effect immediately.
type CredStore struct {
	db *sql.DB
}

// OpenCreds opens (or creates) the credential database at path.
func OpenCreds(path string) (*CredStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open creds db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping creds db: %w", err)
	}
	return &CredStore{db: db}, nil
}

// MigrateResult describes what happened during migration.
type MigrateResult struct {
	Version uint
	Dirty   bool
	Changed bool
}

// Migrate runs all pending schema migrations on the credential store.
func (s *CredStore) Migrate() (*MigrateResult, error) {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return nil, fmt.Errorf("migration instance: %w", err)
	}

	err = m.Up()
	changed := true
	if errors.Is(err, migrate.ErrNoChange) {
		changed = false
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("migration up: %w", err)
	}

	version, dirty, _ := m.Version()
	return &MigrateResult{Version: version, Dirty: dirty, Changed: changed}, nil
}

// Save replaces the stored credentials with the given token and user.
func (s *CredStore) Save(token string, u model.User) error {
	_, err := s.db.Exec(`
		INSERT INTO credentials (id, token, user_id, username, full_name, profile_image, saved_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			user_id = excluded.user_id,
			username = excluded.username,
			full_name = excluded.full_name,
			profile_image = excluded.profile_image,
			saved_at = excluded.saved_at`,
		token, u.ID, u.Username, u.FullName, u.ProfileImage, time.Now().UnixMilli())
	return err
}

// Token returns the stored bearer token, or "" when signed out.
func (s *CredStore) Token() (string, error) {
	var token string
	err := s.db.QueryRow(`SELECT token FROM credentials WHERE id = 1`).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// CurrentUser returns the signed-in user record, or nil when signed out.
func (s *CredStore) CurrentUser() (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(`SELECT user_id, username, full_name, profile_image FROM credentials WHERE id = 1`).
		Scan(&u.ID, &u.Username, &u.FullName, &u.ProfileImage)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Clear removes stored credentials. Idempotent.
func (s *CredStore) Clear() error {
	_, err := s.db.Exec(`DELETE FROM credentials WHERE id = 1`)
	return err
}

// Close closes the underlying database.
func (s *CredStore) Close() error {
	return s.db.Close()
}
