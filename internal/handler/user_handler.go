package handler

import (
	"net/http"
)

// userStatsResponse はユーザー統計のAPIレスポンス。
type userStatsResponse struct {
	Followers int `json:"followers"`
	Collabs   int `json:"collabs"`
}

// UserHandler はユーザー公開情報のHTTPハンドラー。
type UserHandler struct{}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Stats はユーザーの統計情報を返す。
// GET /api/user/{id}/stats
// 集計の仕組みができるまでは固定値を返す。
func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userStatsResponse{Followers: 0, Collabs: 0})
}
