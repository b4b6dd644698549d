// Package memo implements the per-row memo editor of the PO list: at most
// one row is in edit mode at a time, and saves are throttled against
// accidental double submission.
package memo

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/digitradex/trade-console/internal/apiclient"
	"github.com/digitradex/trade-console/pkg/utils"
)

// saveThrottle is the minimum gap between accepted save attempts. A client
// side guard against double clicks, not a lock against concurrent clients.
const saveThrottle = 300 * time.Millisecond

// ErrSaveSkipped is returned when a save is dropped by the in-flight guard
// or the throttle.
var ErrSaveSkipped = errors.New("save skipped")

// TokenProvider supplies the current session token
type TokenProvider func() string

// Session is the at-most-one active edit session
type Session struct {
	TargetRowID int64
	DraftText   string
	IsSaving    bool
}

// Editor manages memo edit sessions over the remote memo endpoint
type Editor struct {
	mu       sync.Mutex
	active   *Session
	lastSave time.Time

	api    *apiclient.Client
	token  TokenProvider
	logger *zap.Logger
	now    func() time.Time
}

// NewEditor creates a memo editor
func NewEditor(api *apiclient.Client, token TokenProvider, logger *zap.Logger) *Editor {
	return &Editor{
		api:    api,
		token:  token,
		logger: logger,
		now:    time.Now,
	}
}

// Begin opens an edit session for a row, seeding the draft with the current
// memo. Switching to another row discards the previous unsaved draft. A
// no-op while a save is in flight.
func (e *Editor) Begin(rowID int64, currentMemo string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil && e.active.IsSaving {
		return
	}
	e.active = &Session{TargetRowID: rowID, DraftText: currentMemo}
}

// SetDraft replaces the draft text of the active session
func (e *Editor) SetDraft(rowID int64, text string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil || e.active.TargetRowID != rowID {
		return
	}
	e.active.DraftText = utils.SanitizeString(text)
}

// Cancel discards the draft and exits edit mode without saving
func (e *Editor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil && e.active.IsSaving {
		return
	}
	e.active = nil
}

// Active returns a copy of the current session, or nil when no row is being
// edited.
func (e *Editor) Active() *Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return nil
	}
	copied := *e.active
	return &copied
}

// Save persists the active draft. Drops the attempt when a save is already
// in flight or the last accepted attempt was under 300 ms ago. A blank or
// whitespace-only draft is stored as a single space so the memo cell keeps
// its visible affordance. Returns the persisted memo text on success.
func (e *Editor) Save(ctx context.Context) (string, error) {
	e.mu.Lock()
	if e.active == nil {
		e.mu.Unlock()
		return "", errors.New("no memo is being edited")
	}
	if e.active.IsSaving {
		e.mu.Unlock()
		return "", ErrSaveSkipped
	}

	now := e.now()
	if now.Sub(e.lastSave) < saveThrottle {
		e.logger.Debug("Memo save throttled",
			zap.Int64("row_id", e.active.TargetRowID))
		e.mu.Unlock()
		return "", ErrSaveSkipped
	}
	e.lastSave = now

	rowID := e.active.TargetRowID
	text := e.active.DraftText
	if strings.TrimSpace(text) == "" {
		text = " "
	}
	e.active.IsSaving = true
	e.mu.Unlock()

	err := e.api.SaveMemo(ctx, e.token(), rowID, text)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != nil && e.active.TargetRowID == rowID {
		e.active.IsSaving = false
		if err == nil {
			// saved: leave edit mode
			e.active = nil
		}
	}

	if err != nil {
		e.logger.Warn("Memo save failed",
			zap.Int64("row_id", rowID),
			zap.Error(err))
		return "", err
	}
	return text, nil
}

// CommitKey reports whether a key event is the commit accelerator
// (Ctrl+Enter). A bare Enter or a bare Ctrl keystroke must not submit.
func CommitKey(key string, ctrl bool) bool {
	return ctrl && key == "Enter"
}

// CancelKey reports whether a key event cancels the edit
func CancelKey(key string) bool {
	return key == "Escape"
}
