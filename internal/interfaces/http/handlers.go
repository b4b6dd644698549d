package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/digitradex/trade-console/internal/apiclient"
	"github.com/digitradex/trade-console/internal/auth"
	"github.com/digitradex/trade-console/internal/config"
	"github.com/digitradex/trade-console/internal/memo"
	"github.com/digitradex/trade-console/internal/models"
	"github.com/digitradex/trade-console/internal/polist"
	"github.com/digitradex/trade-console/internal/session"
	"github.com/digitradex/trade-console/internal/shipping"
	"github.com/digitradex/trade-console/internal/upload"
)

const listPerPage = 10
const pageButtons = 5

// Handlers contains all HTTP request handlers
type Handlers struct {
	authCtrl  *auth.Controller
	store     *session.Store
	pipeline  *upload.Pipeline
	previewer *upload.Previewer
	poList    *polist.Service
	memoEd    *memo.Editor
	shipSvc   *shipping.Service
	authCfg   config.AuthConfig
	logger    *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	authCtrl *auth.Controller,
	store *session.Store,
	pipeline *upload.Pipeline,
	previewer *upload.Previewer,
	poList *polist.Service,
	memoEd *memo.Editor,
	shipSvc *shipping.Service,
	authCfg config.AuthConfig,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		authCtrl:  authCtrl,
		store:     store,
		pipeline:  pipeline,
		previewer: previewer,
		poList:    poList,
		memoEd:    memoEd,
		shipSvc:   shipSvc,
		authCfg:   authCfg,
		logger:    logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data,omitempty"`
	Error    string      `json:"error,omitempty"`
	Redirect string      `json:"redirect,omitempty"`
}

func (h *Handlers) cookieSink(c *gin.Context) *CookieSink {
	return NewCookieSink(c, h.authCfg.CookieName, int(h.authCfg.CookieMaxAge.Seconds()))
}

// respondError maps the API error taxonomy to an HTTP status and the
// operator-facing message.
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case apiclient.IsUnauthorized(err):
		status = http.StatusUnauthorized
	case apiclient.IsRateLimited(err):
		status = http.StatusTooManyRequests
	case apiclient.IsUnreachable(err):
		status = http.StatusBadGateway
	}
	c.JSON(status, Response{Success: false, Error: apiclient.UserMessage(err)})
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// SessionSnapshot is the session state a view renders from. The token never
// leaves the server.
type SessionSnapshot struct {
	IsAuthenticated  bool         `json:"is_authenticated"`
	IsLoading        bool         `json:"is_loading"`
	IsPrivilegedMode bool         `json:"is_privileged_mode"`
	User             *models.User `json:"user,omitempty"`
}

func toSessionSnapshot(snap session.Snapshot) SessionSnapshot {
	return SessionSnapshot{
		IsAuthenticated:  snap.IsAuthenticated,
		IsLoading:        snap.IsLoading,
		IsPrivilegedMode: snap.IsPrivilegedMode,
		User:             snap.User,
	}
}

// SessionState handles GET /api/session
func (h *Handlers) SessionState(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    toSessionSnapshot(h.store.Snapshot()),
	})
}

// LoginRequest carries the login form fields
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginPage handles GET /po/login. A stored token is verified against the
// remote API on arrival; an invalid one is cleared silently.
func (h *Handlers) LoginPage(c *gin.Context) {
	verified, err := h.authCtrl.VerifyStored(c.Request.Context(), h.cookieSink(c))
	if err != nil {
		h.logger.Error("Stored-token verification failed", zap.Error(err))
	}
	if verified {
		c.JSON(http.StatusOK, Response{Success: true, Redirect: h.authCfg.LandingPath})
		return
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    toSessionSnapshot(h.store.Snapshot()),
	})
}

// Login handles POST /po/login
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	nav := &redirectRecorder{}
	err := h.authCtrl.Login(c.Request.Context(), req.Email, req.Password, h.cookieSink(c), nav)
	if err != nil {
		if apiclient.IsUnauthorized(err) || apiclient.IsRateLimited(err) || apiclient.IsUnreachable(err) {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Redirect: nav.path})
}

// DevLogin handles POST /api/dev-login; disabled outside development
func (h *Handlers) DevLogin(c *gin.Context) {
	nav := &redirectRecorder{}
	if err := h.authCtrl.DevLogin(h.cookieSink(c), nav); err != nil {
		c.JSON(http.StatusForbidden, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Redirect: nav.path})
}

// Logout handles POST /api/logout. Idempotent.
func (h *Handlers) Logout(c *gin.Context) {
	nav := &redirectRecorder{}
	if err := h.authCtrl.Logout(h.cookieSink(c), nav); err != nil {
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Redirect: nav.path})
}

// UploadPage handles GET /po/upload
func (h *Handlers) UploadPage(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: h.pipeline.Status()})
}

// UploadFile handles POST /api/upload: multipart document submission. A
// rejected file comes back 400 with the pipeline error visible in status.
func (h *Handlers) UploadFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "ファイルが選択されていません"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "ファイルを読み込めませんでした"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "ファイルを読み込めませんでした"})
		return
	}

	declaredType := fileHeader.Header.Get("Content-Type")
	if err := h.pipeline.SubmitFile(fileHeader.Filename, declaredType, data); err != nil {
		status := h.pipeline.Status()
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: status.Error, Data: status})
		return
	}

	// Preview rendering is best effort; a rasterizer fault must not block
	// the upload.
	result := UploadResult{Status: h.pipeline.Status()}
	if _, err := h.previewer.Render(result.ID, declaredType, data); err != nil {
		h.logger.Warn("Preview rendering failed", zap.Error(err))
	} else if pages, ok := h.previewer.Pages(result.ID); ok {
		result.PreviewPages = pages
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// UploadResult is the upload response: the pipeline status plus what the
// preview rasterizer learned about the document.
type UploadResult struct {
	upload.Status
	PreviewPages int `json:"preview_pages,omitempty"`
}

// UploadStatus handles GET /api/upload/status, polled by the view while the
// pipeline is in processing mode.
func (h *Handlers) UploadStatus(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: h.pipeline.Status()})
}

// RegistrationHistory handles GET /api/upload/registrations, the local trail
// of previously registered purchase orders.
func (h *Handlers) RegistrationHistory(c *gin.Context) {
	records, err := h.pipeline.Registrations(c.Request.Context(), 20)
	if err != nil {
		h.logger.Error("Failed to load registration history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "登録履歴の取得に失敗しました"})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}

// UploadPreview handles GET /api/upload/preview, serving the rendered first
// page of the submitted document.
func (h *Handlers) UploadPreview(c *gin.Context) {
	path, ok := h.previewer.Path(h.pipeline.Status().ID)
	if !ok {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "プレビューがありません"})
		return
	}
	c.File(path)
}

// DraftFieldRequest edits one header field of the draft
type DraftFieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// EditDraftField handles PATCH /api/upload/draft
func (h *Handlers) EditDraftField(c *gin.Context) {
	var req DraftFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}
	if err := h.pipeline.EditField(req.Field, req.Value); err != nil {
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: h.pipeline.Status()})
}

func productIndex(c *gin.Context) (int, bool) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil || idx < 0 {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid product index"})
		return 0, false
	}
	return idx, true
}

// EditProduct handles PATCH /api/upload/products/:index
func (h *Handlers) EditProduct(c *gin.Context) {
	idx, ok := productIndex(c)
	if !ok {
		return
	}
	var req DraftFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}
	if err := h.pipeline.EditProduct(idx, req.Field, req.Value); err != nil {
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: h.pipeline.Status()})
}

// AddProduct handles POST /api/upload/products
func (h *Handlers) AddProduct(c *gin.Context) {
	if err := h.pipeline.AddProduct(); err != nil {
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: h.pipeline.Status()})
}

// RemoveProduct handles DELETE /api/upload/products/:index
func (h *Handlers) RemoveProduct(c *gin.Context) {
	idx, ok := productIndex(c)
	if !ok {
		return
	}
	if err := h.pipeline.RemoveProduct(idx); err != nil {
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: h.pipeline.Status()})
}

// RegisterDraft handles POST /api/upload/register
func (h *Handlers) RegisterDraft(c *gin.Context) {
	if err := h.pipeline.Register(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: h.pipeline.Status()})
}

// ResetDraft handles POST /api/upload/reset
func (h *Handlers) ResetDraft(c *gin.Context) {
	h.pipeline.Reset()
	c.JSON(http.StatusOK, Response{Success: true, Data: h.pipeline.Status()})
}

// ListRow is one rendered row of the PO list
type ListRow struct {
	models.POListRow
	StatusClass string `json:"status_class"`
}

// ListResponse is one page of the PO list
type ListResponse struct {
	Rows       []ListRow `json:"rows"`
	Page       int       `json:"page"`
	TotalPages int       `json:"total_pages"`
	PageWindow []int     `json:"page_window"`
	TotalRows  int       `json:"total_rows"`
}

func listFilters(c *gin.Context) polist.Filters {
	return polist.Filters{
		Status:       c.Query("status"),
		CustomerName: c.Query("customer_name"),
		PONumber:     c.Query("po_number"),
		Manager:      c.Query("manager"),
		Organization: c.Query("organization"),
	}
}

func (h *Handlers) filteredRows(c *gin.Context) ([]models.POListRow, error) {
	rows, err := h.poList.FetchRows(c.Request.Context())
	if err != nil {
		return nil, err
	}
	return listFilters(c).Apply(rows), nil
}

// ListPage handles GET /po/list
func (h *Handlers) ListPage(c *gin.Context) {
	h.ListPOs(c)
}

// ListPOs handles GET /api/pos: the expanded, filtered, paginated list
func (h *Handlers) ListPOs(c *gin.Context) {
	rows, err := h.filteredRows(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	total := polist.TotalPages(len(rows), listPerPage)
	if page > total && total > 0 {
		page = total
	}

	pageRows := polist.Page(rows, page, listPerPage)
	rendered := make([]ListRow, 0, len(pageRows))
	for _, row := range pageRows {
		rendered = append(rendered, ListRow{
			POListRow:   row,
			StatusClass: polist.StatusClass(row.Status),
		})
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: ListResponse{
			Rows:       rendered,
			Page:       page,
			TotalPages: total,
			PageWindow: polist.PageWindow(page, total, pageButtons),
			TotalRows:  len(rows),
		},
	})
}

// ExportPOs handles GET /api/pos/export: the current filtered list as xlsx
func (h *Handlers) ExportPOs(c *gin.Context) {
	rows, err := h.filteredRows(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="po_list.xlsx"`)
	if err := polist.ExportXLSX(rows, c.Writer); err != nil {
		h.logger.Error("Excel export failed", zap.Error(err))
	}
}

func poID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid PO id"})
		return 0, false
	}
	return id, true
}

// StatusRequest carries a shipment-arrangement status change
type StatusRequest struct {
	Status string `json:"status"`
}

// UpdatePOStatus handles PATCH /api/pos/:id/status
func (h *Handlers) UpdatePOStatus(c *gin.Context) {
	id, ok := poID(c)
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}
	updated, err := h.poList.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}

	// Send back the PO's refreshed rows so the view repaints without a
	// full list reload.
	rows := make([]ListRow, 0, 2)
	for _, row := range updated {
		if row.ID == id {
			rows = append(rows, ListRow{POListRow: row, StatusClass: polist.StatusClass(row.Status)})
		}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: rows})
}

// DeleteRequest carries the selected PO ids for bulk delete
type DeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// DeletePOs handles DELETE /api/pos
func (h *Handlers) DeletePOs(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "削除する行を選択してください"})
		return
	}
	if err := h.poList.Delete(c.Request.Context(), req.IDs); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// MemoRequest carries memo text
type MemoRequest struct {
	Text string `json:"text"`
}

// BeginMemoEdit handles POST /api/pos/:id/memo/edit, seeding the draft with
// the row's current memo. Switching rows discards the previous draft.
func (h *Handlers) BeginMemoEdit(c *gin.Context) {
	id, ok := poID(c)
	if !ok {
		return
	}
	var req MemoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}
	h.memoEd.Begin(id, req.Text)
	c.JSON(http.StatusOK, Response{Success: true})
}

// SaveMemo handles PUT /api/pos/:id/memo. A save dropped by the throttle or
// the in-flight guard reports success without a second network call.
func (h *Handlers) SaveMemo(c *gin.Context) {
	id, ok := poID(c)
	if !ok {
		return
	}
	var req MemoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	h.memoEd.SetDraft(id, req.Text)
	saved, err := h.memoEd.Save(c.Request.Context())
	if errors.Is(err, memo.ErrSaveSkipped) {
		c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"skipped": true}})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"memo": saved}})
}

// CancelMemoEdit handles DELETE /api/pos/memo/edit
func (h *Handlers) CancelMemoEdit(c *gin.Context) {
	h.memoEd.Cancel()
	c.JSON(http.StatusOK, Response{Success: true})
}

// ShippingPage handles GET /shipit: the search form's catalogs
func (h *Handlers) ShippingPage(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    gin.H{"departures": shipping.DeparturePorts()},
	})
}

// ShippingDestinations handles GET /api/shipping/destinations
func (h *Handlers) ShippingDestinations(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    gin.H{"destinations": shipping.DestinationsFor(c.Query("departure"))},
	})
}

// ShippingSearchRequest is the schedule search form
type ShippingSearchRequest struct {
	Departure   string `json:"departure"`
	Destination string `json:"destination"`
	ETD         string `json:"etd"`
	ETA         string `json:"eta"`
}

// ScheduleCard is one recommendation with its link and highlight metadata
type ScheduleCard struct {
	models.ScheduleResult
	TagClass      string `json:"tag_class"`
	LoginURL      string `json:"login_url,omitempty"`
	ToyoshingoURL string `json:"toyoshingo_url,omitempty"`
}

func toScheduleCards(results []models.ScheduleResult) []ScheduleCard {
	cards := make([]ScheduleCard, 0, len(results))
	for _, r := range results {
		card := ScheduleCard{ScheduleResult: r, TagClass: shipping.TagClass(r.Status)}
		if url, ok := shipping.CarrierLoginURL(r.Company); ok {
			card.LoginURL = url
		}
		if url, ok := shipping.ToyoshingoURL(r.Company); ok {
			card.ToyoshingoURL = url
		}
		cards = append(cards, card)
	}
	return cards
}

// ShippingSearch handles POST /api/shipping/search
func (h *Handlers) ShippingSearch(c *gin.Context) {
	var req ShippingSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	results, msg, err := h.shipSvc.Search(c.Request.Context(), shipping.Query{
		Departure:   req.Departure,
		Destination: req.Destination,
		ETD:         req.ETD,
		ETA:         req.ETA,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	if msg != "" {
		c.JSON(http.StatusUnprocessableEntity, Response{Success: false, Error: msg})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toScheduleCards(results)})
}

// TagRequest flips a result's operator tag
type TagRequest struct {
	Tag string `json:"tag"`
}

// TagShippingResult handles POST /api/shipping/results/:index/tag
func (h *Handlers) TagShippingResult(c *gin.Context) {
	idx, ok := productIndex(c)
	if !ok {
		return
	}
	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}
	results, err := h.shipSvc.ToggleTag(idx, req.Tag)
	if err != nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toScheduleCards(results)})
}

// FeedbackRequest carries a yes/no judgement on a recommendation
type FeedbackRequest struct {
	Feedback string `json:"feedback"`
}

// ShippingFeedback handles POST /api/shipping/results/:index/feedback
func (h *Handlers) ShippingFeedback(c *gin.Context) {
	idx, ok := productIndex(c)
	if !ok {
		return
	}
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.Feedback != "yes" && req.Feedback != "no") {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}
	if err := h.shipSvc.SendFeedback(c.Request.Context(), idx, req.Feedback); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}
