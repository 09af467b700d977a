// Package waitlist はウェイトリスト登録のドメインロジックを提供する。
package waitlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/hitoshi/collabifyy/internal/metrics"
	"github.com/hitoshi/collabifyy/internal/model"
	"github.com/hitoshi/collabifyy/internal/repository"
	"github.com/hitoshi/collabifyy/internal/security"
)

// SubmissionRecorder は登録結果の記録先。metrics.Collectorが満たす。
type SubmissionRecorder interface {
	RecordWaitlistSubmission(outcome string)
}

// Service はウェイトリスト登録のサービス層。
// 入力の無害化と検証、重複チェック、永続化を行う。
type Service struct {
	repo      repository.WaitlistRepository
	sanitizer security.TextSanitizer
	validate  *validator.Validate
	recorder  SubmissionRecorder
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// recorderがnilの場合は記録しない。
func NewService(
	repo repository.WaitlistRepository,
	sanitizer security.TextSanitizer,
	recorder SubmissionRecorder,
) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		validate:  newValidator(),
		recorder:  recorder,
		now:       time.Now,
	}
}

// Submit は認証済みユーザーのウェイトリスト登録を作成する。
// 検証エラー、メールアドレス重複、ユーザー重複の場合は*model.APIErrorを返し、何も書き込まない。
func (s *Service) Submit(ctx context.Context, callerID string, sub Submission) (*model.WaitlistEntry, error) {
	entry, err := s.submit(ctx, callerID, sub)
	s.record(err)
	return entry, err
}

func (s *Service) submit(ctx context.Context, callerID string, sub Submission) (*model.WaitlistEntry, error) {
	if callerID == "" {
		return nil, model.NewUnauthorizedError()
	}

	// 1. 無害化と正規化
	sub = s.normalize(sub)

	// 2. 入力検証（違反したフィールドをすべて報告する）
	fields, err := validateSubmission(s.validate, &sub)
	if err != nil {
		return nil, fmt.Errorf("failed to validate submission: %w", err)
	}
	if len(fields) > 0 {
		return nil, model.NewValidationError(fields)
	}

	// 3. メールアドレスの重複チェック
	existing, err := s.repo.FindByEmail(ctx, sub.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check waitlist email: %w", err)
	}
	if existing != nil {
		return nil, model.NewWaitlistEmailTakenError()
	}

	// 4. ユーザーの重複チェック
	existing, err = s.repo.FindByUserID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check waitlist user: %w", err)
	}
	if existing != nil {
		return nil, model.NewWaitlistAlreadyJoinedError()
	}

	// 5. 登録を作成
	// 事前チェック後の同時登録はDBの一意制約で検出される
	userType, _ := model.ParseUserType(sub.UserType)
	entry := &model.WaitlistEntry{
		ID:              uuid.New().String(),
		UserID:          callerID,
		UserType:        userType,
		Name:            sub.Name,
		Email:           sub.Email,
		CompanyOrHandle: sub.CompanyOrHandle,
		Message:         sub.Message,
		CreatedAt:       s.now().UTC(),
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		switch {
		case errors.Is(err, repository.ErrWaitlistEmailTaken):
			return nil, model.NewWaitlistEmailTakenError()
		case errors.Is(err, repository.ErrWaitlistUserExists):
			return nil, model.NewWaitlistAlreadyJoinedError()
		default:
			return nil, fmt.Errorf("failed to create waitlist entry: %w", err)
		}
	}

	slog.Info("waitlist entry created",
		slog.String("entry_id", entry.ID),
		slog.String("user_id", callerID),
		slog.String("user_type", string(entry.UserType)),
	)

	return entry, nil
}

// GetByUserID はユーザーのウェイトリスト登録を取得する。
// 登録がない場合はWAITLIST_ENTRY_NOT_FOUNDの*model.APIErrorを返す。
func (s *Service) GetByUserID(ctx context.Context, callerID string) (*model.WaitlistEntry, error) {
	if callerID == "" {
		return nil, model.NewUnauthorizedError()
	}

	entry, err := s.repo.FindByUserID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get waitlist entry: %w", err)
	}
	if entry == nil {
		return nil, model.NewWaitlistEntryNotFoundError()
	}
	return entry, nil
}

// normalize は自由入力欄からマークアップを除去し、メールアドレスを小文字化する。
func (s *Service) normalize(sub Submission) Submission {
	return Submission{
		UserType:        strings.TrimSpace(sub.UserType),
		Name:            s.sanitizer.Sanitize(sub.Name),
		Email:           strings.ToLower(strings.TrimSpace(sub.Email)),
		CompanyOrHandle: s.sanitizer.Sanitize(sub.CompanyOrHandle),
		Message:         s.sanitizer.Sanitize(sub.Message),
	}
}

func (s *Service) record(err error) {
	if s.recorder == nil {
		return
	}

	outcome := metrics.WaitlistCreated
	var apiErr *model.APIError
	switch {
	case err == nil:
	case errors.As(err, &apiErr):
		switch apiErr.Code {
		case model.ErrCodeValidationFailed:
			outcome = metrics.WaitlistInvalid
		case model.ErrCodeWaitlistEmailTaken, model.ErrCodeWaitlistAlreadyJoined:
			outcome = metrics.WaitlistConflict
		default:
			outcome = metrics.WaitlistError
		}
	default:
		outcome = metrics.WaitlistError
	}
	s.recorder.RecordWaitlistSubmission(outcome)
}
