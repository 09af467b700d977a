// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hitoshi/collabifyy/internal/auth"
	"github.com/hitoshi/collabifyy/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	BeginLogin(userType model.UserType) (loginURL, state string, err error)
	CompleteLogin(ctx context.Context, code, state string) (*auth.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	FrontendURL    string // ログイン成功・失敗・ログアウト後のリダイレクト先の基点
	CookieDomain   string
	CookieSecure   bool
	CookieSameSite http.SameSite
	SessionTTL     time.Duration      // セッションCookieの有効期間
	Cookies        *auth.CookieSigner // セッションCookieの署名
}

// AuthHandler はOAuth認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// Login はGoogle OAuthフローを開始する。
// GET /api/login?type=creator|brand
// typeが未指定または不正な場合はcreatorとして扱う。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	userType, ok := model.ParseUserType(r.URL.Query().Get("type"))
	if !ok {
		userType = model.UserTypeCreator
	}

	loginURL, state, err := h.service.BeginLogin(userType)
	if err != nil {
		slog.Error("failed to begin login", slog.String("error", err.Error()))
		h.redirectAuthFailure(w, r)
		return
	}

	// stateをCookieに保存（CSRF対策）
	// IdPからのトップレベル遷移で送信させるためSameSite=Laxとする
	http.SetCookie(w, &http.Cookie{
		Name:     auth.StateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int(auth.StateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, loginURL, http.StatusFound)
}

// Callback はOAuthコールバックを処理する。
// GET /api/callback?code=xxx&state=yyy
// 失敗時はユーザーもセッションも作成せず、フロントエンドの認証ページにリダイレクトする。
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// stateクッキーは結果にかかわらず削除する
	stateCookie, cookieErr := r.Cookie(auth.StateCookieName)
	h.clearCookie(w, auth.StateCookieName, "", http.SameSiteLaxMode)

	// 1. IdPからのエラー（同意拒否など）
	if providerErr := query.Get("error"); providerErr != "" {
		slog.Warn("oauth provider returned error", slog.String("error", providerErr))
		h.redirectAuthFailure(w, r)
		return
	}

	// 2. stateの検証（CSRF対策）
	state := query.Get("state")
	if cookieErr != nil || state == "" || stateCookie.Value != state {
		slog.Warn("oauth state mismatch")
		h.redirectAuthFailure(w, r)
		return
	}

	// 3. 認可コードの取得
	code := query.Get("code")
	if code == "" {
		slog.Warn("oauth callback without code")
		h.redirectAuthFailure(w, r)
		return
	}

	// 4. 認証処理
	result, err := h.service.CompleteLogin(r.Context(), code, state)
	if err != nil {
		slog.Error("oauth callback failed", slog.String("error", err.Error()))
		h.redirectAuthFailure(w, r)
		return
	}

	// 5. セッションCookieを設定（HTTP Only、署名付き）
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    h.config.Cookies.Sign(result.Session.ID),
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   int(h.config.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: h.config.CookieSameSite,
	})

	// 6. 指定された種別のウェイトリストフォームへリダイレクト
	target := h.config.FrontendURL + "/waitlist?type=" + url.QueryEscape(string(result.UserType))
	http.Redirect(w, r, target, http.StatusFound)
}

// Logout はセッションを破棄する。
// GET /api/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sid, ok := h.sessionIDFromCookie(r); ok {
		if err := h.service.Logout(r.Context(), sid); err != nil {
			// ログアウト失敗してもCookieはクリアする
			slog.Error("failed to logout", slog.String("error", err.Error()))
		}
	}

	h.clearCookie(w, auth.SessionCookieName, h.config.CookieDomain, h.config.CookieSameSite)
	http.Redirect(w, r, h.config.FrontendURL+"/", http.StatusFound)
}

// Me は現在のログインユーザー情報を返す。
// GET /api/me
// 未認証の場合は401とボディnullを返す。
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.sessionIDFromCookie(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, nil)
		return
	}

	user, err := h.service.GetCurrentUser(r.Context(), sid)
	if err != nil {
		if !errors.Is(err, auth.ErrSessionNotFound) {
			slog.Error("failed to get current user", slog.String("error", err.Error()))
		}
		writeJSON(w, http.StatusUnauthorized, nil)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// sessionIDFromCookie は署名を検証したセッションIDを返す。
func (h *AuthHandler) sessionIDFromCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(auth.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return h.config.Cookies.Verify(cookie.Value)
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name, domain string, sameSite http.SameSite) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: sameSite,
	})
}

func (h *AuthHandler) redirectAuthFailure(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.config.FrontendURL+"/auth", http.StatusFound)
}
