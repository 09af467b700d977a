// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"strings"
)

// FieldError は入力検証に失敗した1フィールド分の情報を表す。
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string       // エラーコード
	Message  string       // エラーメッセージ
	Category string       // カテゴリ: auth, validation, waitlist, system
	Action   string       // ユーザー向け対処方法
	Fields   []FieldError // 検証エラーの場合のみ設定される
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest        = "INVALID_REQUEST"
	ErrCodeValidationFailed      = "VALIDATION_FAILED"
	ErrCodeUnauthorized          = "UNAUTHORIZED"
	ErrCodeWaitlistEmailTaken    = "WAITLIST_EMAIL_TAKEN"
	ErrCodeWaitlistAlreadyJoined = "WAITLIST_ALREADY_JOINED"
	ErrCodeWaitlistEntryNotFound = "WAITLIST_ENTRY_NOT_FOUND"
	ErrCodeInternal              = "INTERNAL_ERROR"
)

// NewInvalidRequestError はリクエストボディを解析できない場合のエラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "Request body could not be parsed.",
		Category: "validation",
		Action:   "Send a valid JSON object.",
	}
}

// NewValidationError は入力検証エラーを生成する。
// メッセージには違反したすべてのフィールド名を含める。
func NewValidationError(fields []FieldError) *APIError {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Field
	}
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("Invalid input: %s", strings.Join(names, ", ")),
		Category: "validation",
		Action:   "Correct the highlighted fields and submit again.",
		Fields:   fields,
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Unauthorized",
		Category: "auth",
		Action:   "Sign in with Google to continue.",
	}
}

// NewWaitlistEmailTakenError は同じメールアドレスが既に登録済みの場合のエラーを生成する。
func NewWaitlistEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeWaitlistEmailTaken,
		Message:  "This email is already on the waitlist.",
		Category: "waitlist",
		Action:   "Use a different email address or wait for your invitation.",
	}
}

// NewWaitlistAlreadyJoinedError はユーザーが既に登録済みの場合のエラーを生成する。
func NewWaitlistAlreadyJoinedError() *APIError {
	return &APIError{
		Code:     ErrCodeWaitlistAlreadyJoined,
		Message:  "You have already joined the waitlist.",
		Category: "waitlist",
		Action:   "No further action is needed.",
	}
}

// NewWaitlistEntryNotFoundError はユーザーの登録が存在しない場合のエラーを生成する。
func NewWaitlistEntryNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeWaitlistEntryNotFound,
		Message:  "User not found on waitlist",
		Category: "waitlist",
		Action:   "Submit the waitlist form to join.",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Internal server error",
		Category: "system",
		Action:   "Please try again later.",
	}
}
