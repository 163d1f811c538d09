package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kyohei/playnote/internal/crypto"
	"github.com/kyohei/playnote/internal/model"
	"github.com/kyohei/playnote/internal/repository"
)

// --- モック定義 ---

type mockUserRepo struct {
	createFn      func(ctx context.Context, user *model.User) error
	findByIDFn    func(ctx context.Context, id string) (*model.User, error)
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

type mockProfileRepo struct {
	createFn   func(ctx context.Context, profile *model.Profile) error
	findByIDFn func(ctx context.Context, id string) (*model.Profile, error)
	listAllFn  func(ctx context.Context) ([]*model.Profile, error)
}

func (m *mockProfileRepo) Create(ctx context.Context, profile *model.Profile) error {
	if m.createFn != nil {
		return m.createFn(ctx, profile)
	}
	return nil
}

func (m *mockProfileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockProfileRepo) ListAll(ctx context.Context) ([]*model.Profile, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return nil, nil
}

type mockSessionRepo struct {
	createFn         func(ctx context.Context, session *model.Session) error
	findByIDFn       func(ctx context.Context, id string) (*model.Session, error)
	deleteByIDFn     func(ctx context.Context, id string) error
	deleteByUserIDFn func(ctx context.Context, userID string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

// --- compile-time interface checks ---
var _ repository.UserRepository = (*mockUserRepo)(nil)
var _ repository.ProfileRepository = (*mockProfileRepo)(nil)
var _ repository.SessionRepository = (*mockSessionRepo)(nil)

// --- テスト ---

func TestRegister_CreatesUserProfileAndSession(t *testing.T) {
	ctx := context.Background()

	var createdUser *model.User
	var createdProfile *model.Profile
	var createdSession *model.Session

	userRepo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			createdUser = user
			return nil
		},
	}
	profileRepo := &mockProfileRepo{
		createFn: func(ctx context.Context, profile *model.Profile) error {
			createdProfile = profile
			return nil
		},
	}
	sessionRepo := &mockSessionRepo{
		createFn: func(ctx context.Context, session *model.Session) error {
			createdSession = session
			return nil
		},
	}

	svc := NewService(userRepo, profileRepo, sessionRepo, nil, ServiceConfig{SessionMaxAge: 86400})

	result, err := svc.Register(ctx, "test@example.com", "secret-pass", "タロウ")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// ユーザーが作成されること
	if createdUser == nil {
		t.Fatal("expected user to be created")
	}
	if createdUser.Email != "test@example.com" {
		t.Errorf("user email = %q, want %q", createdUser.Email, "test@example.com")
	}
	if len(createdUser.PasswordHash) == 0 || len(createdUser.PasswordSalt) == 0 {
		t.Error("expected hash and salt to be set")
	}
	if !crypto.VerifyPassword([]byte("secret-pass"), createdUser.PasswordSalt, createdUser.PasswordHash) {
		t.Error("stored hash should verify against the original password")
	}

	// プロフィールが作成されること
	if createdProfile == nil {
		t.Fatal("expected profile to be created")
	}
	if createdProfile.ID != createdUser.ID {
		t.Errorf("profile ID = %q, want %q", createdProfile.ID, createdUser.ID)
	}
	if !createdProfile.HasName || createdProfile.DisplayName != "タロウ" {
		t.Errorf("profile display name = %q (hasName=%v), want %q", createdProfile.DisplayName, createdProfile.HasName, "タロウ")
	}

	// セッションが発行されること
	if createdSession == nil {
		t.Fatal("expected session to be created")
	}
	if createdSession.UserID != createdUser.ID {
		t.Errorf("session userID = %q, want %q", createdSession.UserID, createdUser.ID)
	}
	if createdSession.ExpiresAt.Before(time.Now()) {
		t.Error("session should not be expired")
	}
	if result.ProfileWarn != nil {
		t.Errorf("unexpected profile warning: %v", result.ProfileWarn)
	}
}

func TestRegister_EmptyDisplayName_CreatesUnnamedProfile(t *testing.T) {
	ctx := context.Background()

	var createdProfile *model.Profile

	profileRepo := &mockProfileRepo{
		createFn: func(ctx context.Context, profile *model.Profile) error {
			createdProfile = profile
			return nil
		},
	}

	svc := NewService(&mockUserRepo{}, profileRepo, &mockSessionRepo{}, nil, ServiceConfig{SessionMaxAge: 86400})

	if _, err := svc.Register(ctx, "anon@example.com", "pass", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if createdProfile == nil {
		t.Fatal("expected profile to be created")
	}
	// 表示名未指定ではNULL（HasName=false）のまま。フォールバックは表示側の責務。
	if createdProfile.HasName {
		t.Errorf("expected unnamed profile, got %q", createdProfile.DisplayName)
	}
}

func TestRegister_ProfileWriteFails_KeepsAccountAndIssuesSession(t *testing.T) {
	ctx := context.Background()

	var createdSession *model.Session

	profileRepo := &mockProfileRepo{
		createFn: func(ctx context.Context, profile *model.Profile) error {
			return errors.New("db error")
		},
	}
	sessionRepo := &mockSessionRepo{
		createFn: func(ctx context.Context, session *model.Session) error {
			createdSession = session
			return nil
		},
	}

	svc := NewService(&mockUserRepo{}, profileRepo, sessionRepo, nil, ServiceConfig{SessionMaxAge: 86400})

	result, err := svc.Register(ctx, "test@example.com", "pass", "タロウ")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// プロフィール失敗は警告として通知され、セッションは発行されること
	if result.ProfileWarn == nil {
		t.Fatal("expected profile warning")
	}
	if result.ProfileWarn.Code != model.ErrCodeProfileWrite {
		t.Errorf("warning code = %q, want %q", result.ProfileWarn.Code, model.ErrCodeProfileWrite)
	}
	if createdSession == nil {
		t.Fatal("expected session despite profile failure")
	}
}

func TestRegister_DuplicateEmail_ReturnsEmailTaken(t *testing.T) {
	ctx := context.Background()

	userRepo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			return model.NewEmailTakenError()
		},
	}

	svc := NewService(userRepo, &mockProfileRepo{}, &mockSessionRepo{}, nil, ServiceConfig{SessionMaxAge: 86400})

	_, err := svc.Register(ctx, "taken@example.com", "pass", "")
	if err == nil {
		t.Fatal("expected error for duplicate email")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeEmailTaken {
		t.Errorf("error = %v, want code %q", err, model.ErrCodeEmailTaken)
	}
}

func TestRegister_EmptyFields_ReturnsValidationError(t *testing.T) {
	ctx := context.Background()
	svc := NewService(nil, nil, nil, nil, ServiceConfig{SessionMaxAge: 86400})

	for _, tc := range []struct{ email, password string }{
		{"", "pass"},
		{"a@example.com", ""},
		{"", ""},
	} {
		_, err := svc.Register(ctx, tc.email, tc.password, "")
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeEmptyField {
			t.Errorf("Register(%q, %q) error = %v, want code %q", tc.email, tc.password, err, model.ErrCodeEmptyField)
		}
	}
}

func TestLogin_ValidCredentials_IssuesSession(t *testing.T) {
	ctx := context.Background()

	salt, err := crypto.NewSalt()
	if err != nil {
		t.Fatalf("NewSalt() error = %v", err)
	}
	stored := &model.User{
		ID:           "user-id-123",
		Email:        "user@example.com",
		PasswordHash: crypto.HashPassword([]byte("correct-pass"), salt),
		PasswordSalt: salt,
	}

	var createdSession *model.Session

	userRepo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return stored, nil
		},
	}
	sessionRepo := &mockSessionRepo{
		createFn: func(ctx context.Context, session *model.Session) error {
			createdSession = session
			return nil
		},
	}

	svc := NewService(userRepo, nil, sessionRepo, nil, ServiceConfig{SessionMaxAge: 86400})

	session, user, err := svc.Login(ctx, "user@example.com", "correct-pass")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if user.ID != stored.ID {
		t.Errorf("user ID = %q, want %q", user.ID, stored.ID)
	}
	if session == nil || session.UserID != stored.ID {
		t.Fatalf("session = %+v, want UserID %q", session, stored.ID)
	}
	if createdSession == nil {
		t.Fatal("expected session to be persisted")
	}
}

func TestLogin_WrongPassword_ReturnsAuthFailed(t *testing.T) {
	ctx := context.Background()

	salt, _ := crypto.NewSalt()
	userRepo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:           "user-id-123",
				Email:        email,
				PasswordHash: crypto.HashPassword([]byte("correct-pass"), salt),
				PasswordSalt: salt,
			}, nil
		},
	}

	svc := NewService(userRepo, nil, &mockSessionRepo{}, nil, ServiceConfig{SessionMaxAge: 86400})

	_, _, err := svc.Login(ctx, "user@example.com", "wrong-pass")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeAuthFailed {
		t.Errorf("error = %v, want code %q", err, model.ErrCodeAuthFailed)
	}
}

func TestLogin_UnknownEmail_ReturnsSameAuthFailed(t *testing.T) {
	ctx := context.Background()

	userRepo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return nil, nil
		},
	}

	svc := NewService(userRepo, nil, &mockSessionRepo{}, nil, ServiceConfig{SessionMaxAge: 86400})

	// 未登録メールとパスワード不一致は同一エラーで、存在有無を漏らさない
	_, _, err := svc.Login(ctx, "nobody@example.com", "whatever")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeAuthFailed {
		t.Errorf("error = %v, want code %q", err, model.ErrCodeAuthFailed)
	}
}

func TestLogout_DeletesSession(t *testing.T) {
	ctx := context.Background()

	var deletedSessionID string

	sessionRepo := &mockSessionRepo{
		deleteByIDFn: func(ctx context.Context, id string) error {
			deletedSessionID = id
			return nil
		},
	}

	svc := NewService(nil, nil, sessionRepo, nil, ServiceConfig{SessionMaxAge: 86400})

	if err := svc.Logout(ctx, "session-to-delete"); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	if deletedSessionID != "session-to-delete" {
		t.Errorf("deleted session ID = %q, want %q", deletedSessionID, "session-to-delete")
	}
}

func TestLogout_EmptySessionID_ReturnsError(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, ServiceConfig{SessionMaxAge: 86400})

	if err := svc.Logout(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty session ID")
	}
}

func TestGetCurrentUser_ValidSession_ReturnsUser(t *testing.T) {
	ctx := context.Background()

	userID := "user-id-123"

	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{
				ID:        "session-valid",
				UserID:    userID,
				ExpiresAt: time.Now().Add(1 * time.Hour),
			}, nil
		},
	}
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: userID, Email: "user@example.com"}, nil
		},
	}

	svc := NewService(userRepo, nil, sessionRepo, nil, ServiceConfig{SessionMaxAge: 86400})

	user, err := svc.GetCurrentUser(ctx, "session-valid")
	if err != nil {
		t.Fatalf("GetCurrentUser() error = %v", err)
	}
	if user == nil || user.ID != userID {
		t.Errorf("user = %+v, want ID %q", user, userID)
	}
}

func TestGetCurrentUser_ExpiredSession_ReturnsUnauthorized(t *testing.T) {
	ctx := context.Background()

	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			// 期限切れセッション -> リポジトリはnilを返す
			return nil, nil
		},
	}

	svc := NewService(nil, nil, sessionRepo, nil, ServiceConfig{SessionMaxAge: 86400})

	_, err := svc.GetCurrentUser(ctx, "expired-session")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUnauthorized {
		t.Errorf("error = %v, want code %q", err, model.ErrCodeUnauthorized)
	}
}

func TestGetCurrentUser_EmptySessionID_ReturnsUnauthorized(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, ServiceConfig{SessionMaxAge: 86400})

	_, err := svc.GetCurrentUser(context.Background(), "")
	if err == nil {
		t.Fatal("expected error for empty session ID")
	}
}
