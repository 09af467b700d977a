// Package auth はOAuth認証フロー、セッション管理を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/collabifyy/internal/metrics"
	"github.com/hitoshi/collabifyy/internal/model"
	"github.com/hitoshi/collabifyy/internal/repository"
)

// ErrSessionNotFound はセッションが存在しないか期限切れであることを表す。
var ErrSessionNotFound = errors.New("session not found or expired")

// LoginRecorder はログイン結果の記録先。metrics.Collectorが満たす。
type LoginRecorder interface {
	RecordLogin(outcome string)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionTTL time.Duration // セッション有効期間（発行時点から固定）
	Metrics    LoginRecorder // nilの場合は記録しない
}

// LoginResult はログイン完了時の結果。
type LoginResult struct {
	Session  *model.Session
	User     *model.User
	UserType model.UserType // ログイン開始時に指定された種別
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	oauth       OAuthProvider
	states      *StateSigner
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
	now         func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	oauth OAuthProvider,
	states *StateSigner,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		oauth:       oauth,
		states:      states,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		config:      config,
		now:         time.Now,
	}
}

// BeginLogin はstateを発行し、IdPの認証URLとともに返す。
func (s *Service) BeginLogin(userType model.UserType) (loginURL, state string, err error) {
	state, err = s.states.Issue(userType)
	if err != nil {
		return "", "", fmt.Errorf("failed to issue oauth state: %w", err)
	}
	return s.oauth.GetLoginURL(state), state, nil
}

// CompleteLogin はOAuthコールバックを処理し、セッションを発行する。
// ユーザーはIdPのsubject IDをキーに1回だけupsertされる。
// 失敗した場合、ユーザーの書き込みもセッションの作成も行われない。
func (s *Service) CompleteLogin(ctx context.Context, code, state string) (*LoginResult, error) {
	result, err := s.completeLogin(ctx, code, state)
	s.recordLogin(err)
	return result, err
}

func (s *Service) completeLogin(ctx context.Context, code, state string) (*LoginResult, error) {
	// 1. stateの検証
	userType, err := s.states.Verify(state)
	if err != nil {
		return nil, err
	}

	// 2. 認可コードをトークンに交換し、ユーザー属性を取得
	identity, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	// 3. ユーザーを作成または更新
	user, err := s.userRepo.Upsert(ctx, &model.User{
		ID:              identity.ID,
		Email:           identity.Email,
		FirstName:       identity.FirstName,
		LastName:        identity.LastName,
		ProfileImageURL: identity.ProfileImageURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	// 4. セッションを発行
	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("user_type", string(userType)),
	)

	return &LoginResult{Session: session, User: user, UserType: userType}, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out")
	return nil
}

// GetCurrentUser はセッションから現在のユーザーを取得する。
// セッションまたはユーザーが存在しない場合はErrSessionNotFoundを返す。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil || session.Expired(s.now()) {
		return nil, ErrSessionNotFound
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, ErrSessionNotFound
	}

	return user, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := randomHex(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := s.now().UTC()
	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: now.Add(s.config.SessionTTL),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

func (s *Service) recordLogin(err error) {
	if s.config.Metrics == nil {
		return
	}
	outcome := metrics.LoginSuccess
	if err != nil {
		outcome = metrics.LoginFailure
	}
	s.config.Metrics.RecordLogin(outcome)
}
