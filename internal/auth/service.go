// Package auth はメールアドレス認証とセッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kyohei/playnote/internal/crypto"
	"github.com/kyohei/playnote/internal/model"
	"github.com/kyohei/playnote/internal/repository"
)

// MetricsRecorder は認証結果のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordAuthSuccess()
	RecordAuthFailure()
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	sessionRepo repository.SessionRepository
	metrics     MetricsRecorder
	config      ServiceConfig
}

// NewService はServiceを生成する。metricsはnilを許容する。
func NewService(
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	sessionRepo repository.SessionRepository,
	metrics MetricsRecorder,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		sessionRepo: sessionRepo,
		metrics:     metrics,
		config:      config,
	}
}

// RegisterResult は登録処理の結果を表す。
// ProfileWarnはプロフィール書き込みに失敗した場合のみ設定され、
// アカウント作成とセッション発行はその場合も成立している。
type RegisterResult struct {
	User        *model.User
	Session     *model.Session
	ProfileWarn *model.APIError
}

// Register は新規ユーザーを作成しセッションを発行する。
// プロフィール行の作成はベストエフォートで行い、失敗してもアカウントは
// 残しセッションも発行する（失敗はRegisterResult.ProfileWarnで通知する）。
func (s *Service) Register(ctx context.Context, email, password, displayName string) (*RegisterResult, error) {
	if email == "" || password == "" {
		return nil, model.NewAuthEmptyFieldError()
	}

	salt, err := crypto.NewSalt()
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: crypto.HashPassword([]byte(password), salt),
		PasswordSalt: salt,
		CreatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	result := &RegisterResult{User: user}

	// プロフィールはベストエフォート。表示名未指定時はNULLのまま作成し、
	// 表示側でDefaultDisplayNameにフォールバックする。
	profile := &model.Profile{
		ID:          user.ID,
		DisplayName: displayName,
		HasName:     displayName != "",
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		slog.Warn("profile creation failed after user registration",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		result.ProfileWarn = model.NewProfileWriteError()
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	result.Session = session

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("email", email),
	)
	return result, nil
}

// Login はメールアドレスとパスワードを検証しセッションを発行する。
// ユーザーの存在有無と検証失敗は区別せず、同一のAUTH_FAILEDを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*model.Session, *model.User, error) {
	if email == "" || password == "" {
		return nil, nil, model.NewAuthEmptyFieldError()
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !crypto.VerifyPassword([]byte(password), user.PasswordSalt, user.PasswordHash) {
		if s.metrics != nil {
			s.metrics.RecordAuthFailure()
		}
		slog.Info("login failed", slog.String("email", email))
		return nil, nil, model.NewAuthFailedError()
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordAuthSuccess()
	}
	slog.Info("user logged in", slog.String("user_id", user.ID))
	return session, user, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// GetCurrentUser はセッションから現在のユーザーを取得する。
// セッションが無効または期限切れの場合はUNAUTHORIZEDを返す。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, model.NewUnauthorizedError()
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, model.NewUnauthorizedError()
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	return user, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
