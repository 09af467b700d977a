package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/collabifyy/internal/middleware"
	"github.com/hitoshi/collabifyy/internal/model"
)

// userResponse はユーザー情報のAPIレスポンス。
// IdPが提供しなかった項目はnullになる。
type userResponse struct {
	ID              string    `json:"id"`
	Email           *string   `json:"email"`
	FirstName       *string   `json:"firstName"`
	LastName        *string   `json:"lastName"`
	ProfileImageURL *string   `json:"profileImageUrl"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:              u.ID,
		Email:           nullableString(u.Email),
		FirstName:       nullableString(u.FirstName),
		LastName:        nullableString(u.LastName),
		ProfileImageURL: nullableString(u.ProfileImageURL),
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// waitlistEntryResponse はウェイトリスト登録のAPIレスポンス。
type waitlistEntryResponse struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	UserType        string    `json:"userType"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	CompanyOrHandle string    `json:"companyOrHandle"`
	Message         string    `json:"message"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toWaitlistEntryResponse(e *model.WaitlistEntry) waitlistEntryResponse {
	return waitlistEntryResponse{
		ID:              e.ID,
		UserID:          e.UserID,
		UserType:        string(e.UserType),
		Name:            e.Name,
		Email:           e.Email,
		CompanyOrHandle: e.CompanyOrHandle,
		Message:         e.Message,
		CreatedAt:       e.CreatedAt,
	}
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidRequest, model.ErrCodeValidationFailed:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeWaitlistEmailTaken, model.ErrCodeWaitlistAlreadyJoined:
		return http.StatusConflict
	case model.ErrCodeWaitlistEntryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
