package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/digitradex/trade-console/internal/models"
	"go.uber.org/zap"
)

// Sink persists one session credential. The auth controller writes the same
// credential to two sinks (the browser cookie and the local store) and keeps
// them consistent: both agree or both are cleared.
type Sink interface {
	// Read returns the stored credential, or nil when none is stored
	Read() (*models.Credential, error)
	Write(cred *models.Credential) error
	Clear() error
}

// defaultProfile keys the single credential row of this console instance
const defaultProfile = "default"

// LocalSink is the sqlite-backed credential sink
type LocalSink struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLocalSink creates a sqlite-backed sink
func NewLocalSink(db *sql.DB, logger *zap.Logger) *LocalSink {
	return &LocalSink{db: db, logger: logger}
}

// Read returns the stored credential, nil when none exists. A token row with
// malformed user JSON is an error: the caller treats it as no session.
func (s *LocalSink) Read() (*models.Credential, error) {
	query := `SELECT token, user_json FROM credentials WHERE profile = ?`

	var token string
	var userJSON sql.NullString
	err := s.db.QueryRow(query, defaultProfile).Scan(&token, &userJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credential: %w", err)
	}

	cred := &models.Credential{Token: token}
	if userJSON.Valid && userJSON.String != "" {
		var user models.User
		if err := json.Unmarshal([]byte(userJSON.String), &user); err != nil {
			return nil, fmt.Errorf("stored user data is malformed: %w", err)
		}
		cred.User = &user
	}
	return cred, nil
}

// Write stores the credential, replacing any previous one
func (s *LocalSink) Write(cred *models.Credential) error {
	var userJSON []byte
	if cred.User != nil {
		var err error
		userJSON, err = json.Marshal(cred.User)
		if err != nil {
			return fmt.Errorf("failed to encode user: %w", err)
		}
	}

	query := `
		INSERT INTO credentials (profile, token, user_json, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(profile) DO UPDATE SET
			token = excluded.token,
			user_json = excluded.user_json,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.Exec(query, defaultProfile, cred.Token, string(userJSON)); err != nil {
		s.logger.Error("Failed to persist credential", zap.Error(err))
		return fmt.Errorf("failed to persist credential: %w", err)
	}
	return nil
}

// Clear removes the stored credential. Clearing an empty sink is a no-op.
func (s *LocalSink) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM credentials WHERE profile = ?`, defaultProfile); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}

// MemorySink is an in-memory sink, used in tests and as the request-scoped
// cookie mirror's backing store.
type MemorySink struct {
	mu   sync.Mutex
	cred *models.Credential
	// ReadErr forces Read to fail, simulating corrupt storage
	ReadErr error
}

// NewMemorySink creates an empty in-memory sink
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Read() (*models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	if s.cred == nil {
		return nil, nil
	}
	copied := *s.cred
	return &copied, nil
}

func (s *MemorySink) Write(cred *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *cred
	s.cred = &copied
	return nil
}

func (s *MemorySink) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = nil
	return nil
}

// Consistent reports whether two sinks agree on the stored token: both hold
// the same token or both are empty. Used to verify the dual-persistence
// invariant.
func Consistent(a, b Sink) (bool, error) {
	credA, err := a.Read()
	if err != nil {
		return false, err
	}
	credB, err := b.Read()
	if err != nil {
		return false, err
	}

	tokenA := ""
	if credA != nil {
		tokenA = credA.Token
	}
	tokenB := ""
	if credB != nil {
		tokenB = credB.Token
	}
	return tokenA == tokenB, nil
}
