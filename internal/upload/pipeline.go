// Package upload orchestrates the PO upload pipeline: file submission, OCR
// job polling, extraction into the editable draft, and final registration.
// One pipeline holds one in-flight draft; view-mode transitions go through
// the workflow machine.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/digitradex/trade-console/internal/apiclient"
	"github.com/digitradex/trade-console/internal/models"
	"github.com/digitradex/trade-console/internal/workflow"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var allowedMIMETypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
}

// ErrNotEditable is returned when a draft edit arrives outside summary mode
var ErrNotEditable = errors.New("draft is not editable in the current view mode")

// ErrNoToken is returned when an operation requires a session token and none
// is present.
var ErrNoToken = errors.New("認証トークンがありません。再ログインしてください。")

// TokenProvider supplies the current session token
type TokenProvider func() string

// Config holds pipeline configuration
type Config struct {
	PollInterval time.Duration
	MaxProducts  int
}

// Status is a snapshot of the pipeline for rendering
type Status struct {
	ID         string
	ViewMode   workflow.State
	JobID      string
	Draft      models.PurchaseOrderDraft
	Error      string
	Success    string
	Registered bool
}

// Pipeline is one operator's upload workflow instance
type Pipeline struct {
	mu      sync.Mutex
	machine *workflow.Machine
	draft   *Draft

	id         string
	jobID      string
	errMsg     string
	successMsg string
	registered bool

	api          *apiclient.Client
	token        TokenProvider
	audit        *AuditLog
	pollInterval time.Duration
	logger       *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates an idle pipeline
func New(api *apiclient.Client, token TokenProvider, cfg Config, logger *zap.Logger) *Pipeline {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pipeline{
		machine:      workflow.NewUploadMachine(),
		draft:        NewDraft(cfg.MaxProducts),
		id:           uuid.NewString(),
		api:          api,
		token:        token,
		pollInterval: interval,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// SetAuditLog attaches a local registration trail. Without one, Register
// still works and Registrations returns nothing.
func (p *Pipeline) SetAuditLog(audit *AuditLog) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.audit = audit
}

// Registrations returns the most recent locally recorded registrations.
func (p *Pipeline) Registrations(ctx context.Context, limit int) ([]RegistrationRecord, error) {
	p.mu.Lock()
	audit := p.audit
	p.mu.Unlock()
	if audit == nil {
		return []RegistrationRecord{}, nil
	}
	return audit.Recent(ctx, limit)
}

// Close cancels any in-flight polling. The pipeline is unusable afterwards.
func (p *Pipeline) Close() {
	p.cancel()
}

// Status returns a render snapshot
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		ID:         p.id,
		ViewMode:   p.machine.State(),
		JobID:      p.jobID,
		Draft:      p.draft.Data(),
		Error:      p.errMsg,
		Success:    p.successMsg,
		Registered: p.registered,
	}
}

// SubmitFile validates and uploads a document, then begins status polling.
// A rejected file leaves the pipeline in upload mode with a visible error
// and no network side effect.
func (p *Pipeline) SubmitFile(filename, declaredType string, data []byte) error {
	if !allowedMIMETypes[declaredType] || !allowedMIMETypes[mimetype.Detect(data).String()] {
		p.mu.Lock()
		p.errMsg = "PDF、PNG、JPEGファイルのみアップロード可能です"
		p.mu.Unlock()
		return fmt.Errorf("unsupported file type %q", declaredType)
	}

	token := p.token()
	if token == "" {
		p.mu.Lock()
		p.errMsg = ErrNoToken.Error()
		p.mu.Unlock()
		return ErrNoToken
	}

	p.mu.Lock()
	if err := p.machine.Fire(workflow.TriggerSubmit); err != nil {
		p.mu.Unlock()
		return err
	}
	p.errMsg = ""
	p.successMsg = ""
	p.mu.Unlock()

	jobID, err := p.api.UploadOCR(p.ctx, token, filename, bytes.NewReader(data))
	if err != nil {
		p.fail("アップロードに失敗しました: " + apiclient.UserMessage(err))
		return err
	}

	p.mu.Lock()
	p.jobID = jobID
	p.mu.Unlock()

	go p.pollLoop(jobID, token)
	return nil
}

// pollLoop queries job status at a fixed interval until the job completes or
// fails. There is no retry ceiling and no backoff: under a sustained OCR
// outage that never reports "failed" this polls indefinitely, bounded only
// by Close.
func (p *Pipeline) pollLoop(jobID, token string) {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	// Check once right away, then on every tick
	for {
		done := p.checkOnce(jobID, token)
		if done {
			return
		}

		select {
		case <-p.ctx.Done():
			p.logger.Debug("OCR polling cancelled", zap.String("job_id", jobID))
			return
		case <-ticker.C:
		}
	}
}

// checkOnce queries the job status once; returns true when polling is over
func (p *Pipeline) checkOnce(jobID, token string) bool {
	status, err := p.api.OCRStatus(p.ctx, token, jobID)
	if err != nil {
		if p.ctx.Err() != nil {
			return true
		}
		p.fail("OCRステータス確認中にエラー")
		return true
	}

	switch status {
	case apiclient.OCRStatusCompleted:
		p.fetchExtracted(jobID, token)
		return true
	case apiclient.OCRStatusFailed:
		p.logger.Warn("OCR job failed", zap.String("job_id", jobID))
		p.fail("OCR処理に失敗しました")
		return true
	default:
		// still running, keep polling
		return false
	}
}

// fetchExtracted pulls the structured extraction and moves to summary
func (p *Pipeline) fetchExtracted(jobID, token string) {
	data, err := p.api.OCRExtract(p.ctx, token, jobID)
	if err != nil {
		if p.ctx.Err() != nil {
			return
		}
		p.fail("OCRデータ取得エラー: " + apiclient.UserMessage(err))
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.draft.ApplyExtraction(data); err != nil {
		p.failLocked("OCRデータ取得エラー: " + apiclient.UserMessage(err))
		return
	}
	if err := p.machine.Fire(workflow.TriggerExtracted); err != nil {
		p.logger.Error("Unexpected view-mode transition", zap.Error(err))
		return
	}
	p.successMsg = "OCR結果を取得しました"
	p.logger.Info("OCR extraction applied",
		zap.String("job_id", jobID),
		zap.Int("products", len(data.Products)))
}

// fail reverts to upload mode with a visible error, never leaving the view
// stuck in processing.
func (p *Pipeline) fail(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failLocked(msg)
}

func (p *Pipeline) failLocked(msg string) {
	p.errMsg = msg
	if p.machine.CanFire(workflow.TriggerFail) {
		_ = p.machine.Fire(workflow.TriggerFail)
	}
}

// EditField updates a header field of the draft; summary mode only
func (p *Pipeline) EditField(field, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.machine.State() != workflow.StateSummary {
		return ErrNotEditable
	}
	p.draft.EditField(field, value)
	return nil
}

// EditProduct updates one product field; summary mode only
func (p *Pipeline) EditProduct(index int, field, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.machine.State() != workflow.StateSummary {
		return ErrNotEditable
	}
	return p.draft.EditProduct(index, field, value)
}

// AddProduct appends a product line; summary mode only
func (p *Pipeline) AddProduct() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.machine.State() != workflow.StateSummary {
		return ErrNotEditable
	}
	p.draft.AddProduct()
	return nil
}

// RemoveProduct removes a product line; summary mode only
func (p *Pipeline) RemoveProduct(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.machine.State() != workflow.StateSummary {
		return ErrNotEditable
	}
	p.draft.RemoveProduct(index)
	return nil
}

// Register submits the draft. The view mode stays summary either way: on
// success the caller shows the completion prompt, on failure the draft
// remains editable with the error shown so nothing is lost.
func (p *Pipeline) Register(ctx context.Context) error {
	token := p.token()
	if token == "" {
		p.mu.Lock()
		p.errMsg = ErrNoToken.Error()
		p.mu.Unlock()
		return ErrNoToken
	}

	p.mu.Lock()
	if p.machine.State() != workflow.StateSummary {
		p.mu.Unlock()
		return fmt.Errorf("register is only available from summary mode")
	}
	draft := p.draft.Data()
	payload := apiclient.NewRegisterPayload(&draft)
	p.mu.Unlock()

	if err := p.api.RegisterPO(ctx, token, payload); err != nil {
		p.mu.Lock()
		p.errMsg = "登録失敗: " + apiclient.UserMessage(err)
		p.mu.Unlock()
		return err
	}

	p.mu.Lock()
	p.registered = true
	p.errMsg = ""
	audit := p.audit
	p.mu.Unlock()

	// Audit failure must not undo a successful registration.
	if audit != nil {
		if err := audit.Record(ctx, draft); err != nil {
			p.logger.Warn("Failed to record registration",
				zap.String("po_number", draft.PONumber), zap.Error(err))
		}
	}
	return nil
}

// Reset restarts the draft for a new document, clearing the manual-total
// override, messages and the registered flag.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.machine.CanFire(workflow.TriggerReset) {
		_ = p.machine.Fire(workflow.TriggerReset)
	}
	p.draft.Reset()
	p.jobID = ""
	p.errMsg = ""
	p.successMsg = ""
	p.registered = false
}
