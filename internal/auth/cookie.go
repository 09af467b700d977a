package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// SessionCookieName はセッションCookieの名前。
const SessionCookieName = "collabifyy.sid"

// StateCookieName はOAuth stateを保持するCookieの名前。
const StateCookieName = "collabifyy.oauth_state"

// CookieSigner はセッションIDにHMAC-SHA256署名を付与・検証する。
// Cookieの値は "<sid>.<base64url(HMAC(secret, sid))>" の形式。
type CookieSigner struct {
	key []byte
}

// NewCookieSigner はCookieSignerを生成する。
func NewCookieSigner(secret string) *CookieSigner {
	return &CookieSigner{key: []byte(secret)}
}

// Sign はセッションIDに署名を付与したCookie値を返す。
func (s *CookieSigner) Sign(sid string) string {
	return sid + "." + base64.RawURLEncoding.EncodeToString(s.mac(sid))
}

// Verify はCookie値の署名を検証し、セッションIDを返す。
// 形式不正または署名不一致の場合はokがfalseになる。
func (s *CookieSigner) Verify(value string) (sid string, ok bool) {
	i := strings.LastIndexByte(value, '.')
	if i <= 0 || i == len(value)-1 {
		return "", false
	}
	sid = value[:i]
	sig, err := base64.RawURLEncoding.DecodeString(value[i+1:])
	if err != nil {
		return "", false
	}
	if !hmac.Equal(s.mac(sid), sig) {
		return "", false
	}
	return sid, true
}

func (s *CookieSigner) mac(sid string) []byte {
	m := hmac.New(sha256.New, s.key)
	m.Write([]byte(sid))
	return m.Sum(nil)
}
