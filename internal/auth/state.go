package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/collabifyy/internal/model"
)

// StateTTL はOAuth stateの有効期間。stateクッキーのMax-Ageと一致させる。
const StateTTL = 10 * time.Minute

// stateClaims はOAuth stateトークンのクレーム。
// ログイン開始時に指定されたユーザー種別をコールバックまで運ぶ。
type stateClaims struct {
	Type model.UserType `json:"type"`
	jwt.RegisteredClaims
}

// StateSigner はOAuth stateをHS256署名付きJWTとして発行・検証する。
type StateSigner struct {
	secret []byte
	now    func() time.Time
}

// NewStateSigner はStateSignerを生成する。
func NewStateSigner(secret string) *StateSigner {
	return &StateSigner{secret: []byte(secret), now: time.Now}
}

// Issue はユーザー種別を埋め込んだstateトークンを発行する。
func (s *StateSigner) Issue(userType model.UserType) (string, error) {
	nonce, err := randomHex(16)
	if err != nil {
		return "", fmt.Errorf("failed to generate state nonce: %w", err)
	}

	now := s.now()
	claims := stateClaims{
		Type: userType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        nonce,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(StateTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify はstateトークンの署名と有効期限を検証し、埋め込まれたユーザー種別を返す。
func (s *StateSigner) Verify(state string) (model.UserType, error) {
	claims := &stateClaims{}
	token, err := jwt.ParseWithClaims(state, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("invalid state token: %w", err)
	}
	if !token.Valid {
		return "", errors.New("invalid state token")
	}

	userType, ok := model.ParseUserType(string(claims.Type))
	if !ok {
		return "", fmt.Errorf("invalid user type in state: %q", claims.Type)
	}
	return userType, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
