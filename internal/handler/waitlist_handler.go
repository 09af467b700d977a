package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/collabifyy/internal/middleware"
	"github.com/hitoshi/collabifyy/internal/model"
	"github.com/hitoshi/collabifyy/internal/waitlist"
)

// maxWaitlistBodyBytes はウェイトリスト登録リクエストボディの上限。
const maxWaitlistBodyBytes = 64 << 10

// WaitlistServiceInterface はウェイトリストハンドラーが必要とするサービスインターフェース。
type WaitlistServiceInterface interface {
	Submit(ctx context.Context, callerID string, sub waitlist.Submission) (*model.WaitlistEntry, error)
	GetByUserID(ctx context.Context, callerID string) (*model.WaitlistEntry, error)
}

// WaitlistHandler はウェイトリストのHTTPハンドラー。
type WaitlistHandler struct {
	service WaitlistServiceInterface
}

// NewWaitlistHandler はWaitlistHandlerを生成する。
func NewWaitlistHandler(service WaitlistServiceInterface) *WaitlistHandler {
	return &WaitlistHandler{service: service}
}

// Submit はウェイトリスト登録を処理する。
// POST /api/waitlist
// userIdはボディではなくセッションから決定する。
func (h *WaitlistHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req waitlist.Submission
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWaitlistBodyBytes)).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	entry, err := h.service.Submit(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toWaitlistEntryResponse(entry))
}

// GetMine は現在のユーザーのウェイトリスト登録を返す。
// GET /api/waitlist/user
func (h *WaitlistHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	entry, err := h.service.GetByUserID(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toWaitlistEntryResponse(entry))
}
