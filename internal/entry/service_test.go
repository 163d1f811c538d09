package entry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kyohei/playnote/internal/model"
	"github.com/kyohei/playnote/internal/repository"
)

// --- モック定義 ---

type mockEntryRepo struct {
	listFn     func(ctx context.Context, limit int) ([]*model.Entry, error)
	findByIDFn func(ctx context.Context, id int64) (*model.Entry, error)
	createFn   func(ctx context.Context, authorID string, in model.EntryInput) (*model.Entry, error)
	updateFn   func(ctx context.Context, id int64, authorID string, in model.EntryInput) (*model.Entry, error)
	deleteFn   func(ctx context.Context, id int64, authorID string) error
}

func (m *mockEntryRepo) List(ctx context.Context, limit int) ([]*model.Entry, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockEntryRepo) FindByID(ctx context.Context, id int64) (*model.Entry, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockEntryRepo) Create(ctx context.Context, authorID string, in model.EntryInput) (*model.Entry, error) {
	if m.createFn != nil {
		return m.createFn(ctx, authorID, in)
	}
	return nil, nil
}

func (m *mockEntryRepo) Update(ctx context.Context, id int64, authorID string, in model.EntryInput) (*model.Entry, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, authorID, in)
	}
	return nil, nil
}

func (m *mockEntryRepo) Delete(ctx context.Context, id int64, authorID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id, authorID)
	}
	return nil
}

type mockProfileRepo struct {
	listAllFn func(ctx context.Context) ([]*model.Profile, error)
}

func (m *mockProfileRepo) Create(_ context.Context, _ *model.Profile) error { return nil }

func (m *mockProfileRepo) FindByID(_ context.Context, _ string) (*model.Profile, error) {
	return nil, nil
}

func (m *mockProfileRepo) ListAll(ctx context.Context) ([]*model.Profile, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return nil, nil
}

type mockMetrics struct {
	mutations []string
	denials   int
}

func (m *mockMetrics) RecordEntryMutation(operation string) {
	m.mutations = append(m.mutations, operation)
}

func (m *mockMetrics) RecordAuthzDenied() {
	m.denials++
}

// --- compile-time interface checks ---
var _ repository.EntryRepository = (*mockEntryRepo)(nil)
var _ repository.ProfileRepository = (*mockProfileRepo)(nil)
var _ MetricsRecorder = (*mockMetrics)(nil)

// --- テスト ---

func TestList_JoinsAuthorNamesWithFallback(t *testing.T) {
	ctx := context.Background()

	entryRepo := &mockEntryRepo{
		listFn: func(ctx context.Context, limit int) ([]*model.Entry, error) {
			if limit != 50 {
				t.Errorf("limit = %d, want 50", limit)
			}
			return []*model.Entry{
				{ID: 3, AuthorID: "user-named", CreatedAt: time.Now(), SessionDate: "2026-08-30", Title: "vs 青山FC", Body: "前半の守備"},
				{ID: 2, AuthorID: "user-null-name", CreatedAt: time.Now().Add(-time.Hour), SessionDate: "2026-08-23", Title: "練習試合", Body: "メモ"},
				{ID: 1, AuthorID: "user-no-profile", CreatedAt: time.Now().Add(-2 * time.Hour), SessionDate: "2026-08-16", Title: "紅白戦", Body: "雑感"},
			}, nil
		},
	}
	profileRepo := &mockProfileRepo{
		listAllFn: func(ctx context.Context) ([]*model.Profile, error) {
			return []*model.Profile{
				{ID: "user-named", DisplayName: "タロウ", HasName: true},
				{ID: "user-null-name", HasName: false},
				// user-no-profileのプロフィール行は存在しない
			}, nil
		},
	}

	svc := NewService(entryRepo, profileRepo, nil, 50)

	entries, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	if entries[0].AuthorName != "タロウ" {
		t.Errorf("entries[0].AuthorName = %q, want %q", entries[0].AuthorName, "タロウ")
	}
	// 表示名NULLとプロフィール行なしはどちらもDefaultDisplayNameになる
	if entries[1].AuthorName != model.DefaultDisplayName {
		t.Errorf("entries[1].AuthorName = %q, want %q", entries[1].AuthorName, model.DefaultDisplayName)
	}
	if entries[2].AuthorName != model.DefaultDisplayName {
		t.Errorf("entries[2].AuthorName = %q, want %q", entries[2].AuthorName, model.DefaultDisplayName)
	}
	// 一覧順はリポジトリの返却順（作成日時の降順）を保持する
	if entries[0].ID != 3 || entries[2].ID != 1 {
		t.Errorf("entry order = [%d, %d, %d], want [3, 2, 1]", entries[0].ID, entries[1].ID, entries[2].ID)
	}
}

func TestList_EmptyStore_ReturnsEmptySlice(t *testing.T) {
	svc := NewService(&mockEntryRepo{}, &mockProfileRepo{}, nil, 50)

	entries, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("len(entries) = %d, want 0", len(entries))
	}
}

func TestDisplayNames_AppliesDefaultForNullNames(t *testing.T) {
	profileRepo := &mockProfileRepo{
		listAllFn: func(ctx context.Context) ([]*model.Profile, error) {
			return []*model.Profile{
				{ID: "a", DisplayName: "ハナコ", HasName: true},
				{ID: "b", HasName: false},
			}, nil
		},
	}
	svc := NewService(&mockEntryRepo{}, profileRepo, nil, 50)

	names, err := svc.DisplayNames(context.Background())
	if err != nil {
		t.Fatalf("DisplayNames() error = %v", err)
	}
	if names["a"] != "ハナコ" {
		t.Errorf("names[a] = %q, want %q", names["a"], "ハナコ")
	}
	if names["b"] != model.DefaultDisplayName {
		t.Errorf("names[b] = %q, want %q", names["b"], model.DefaultDisplayName)
	}
}

func TestCreate_ValidInput_DelegatesToRepo(t *testing.T) {
	ctx := context.Background()

	var gotAuthorID string
	var gotInput model.EntryInput

	entryRepo := &mockEntryRepo{
		createFn: func(ctx context.Context, authorID string, in model.EntryInput) (*model.Entry, error) {
			gotAuthorID = authorID
			gotInput = in
			return &model.Entry{
				ID:          7,
				AuthorID:    authorID,
				CreatedAt:   time.Now(),
				SessionDate: in.SessionDate,
				Title:       in.Title,
				Body:        in.Body,
			}, nil
		},
	}
	metrics := &mockMetrics{}

	svc := NewService(entryRepo, &mockProfileRepo{}, metrics, 50)

	in := model.EntryInput{SessionDate: "2026-08-30", Title: "vs 青山FC", Body: "前半の守備のメモ"}
	created, err := svc.Create(ctx, "author-1", in)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created.ID != 7 {
		t.Errorf("created.ID = %d, want 7", created.ID)
	}
	if gotAuthorID != "author-1" {
		t.Errorf("authorID = %q, want %q", gotAuthorID, "author-1")
	}
	if gotInput != in {
		t.Errorf("input = %+v, want %+v", gotInput, in)
	}
	if len(metrics.mutations) != 1 || metrics.mutations[0] != "create" {
		t.Errorf("mutations = %v, want [create]", metrics.mutations)
	}
}

func TestCreate_EmptyField_ReturnsValidationErrorWithoutRepoCall(t *testing.T) {
	ctx := context.Background()

	entryRepo := &mockEntryRepo{
		createFn: func(ctx context.Context, authorID string, in model.EntryInput) (*model.Entry, error) {
			t.Fatal("repo should not be called for invalid input")
			return nil, nil
		},
	}
	svc := NewService(entryRepo, &mockProfileRepo{}, nil, 50)

	for _, in := range []model.EntryInput{
		{SessionDate: "", Title: "t", Body: "b"},
		{SessionDate: "2026-08-30", Title: "", Body: "b"},
		{SessionDate: "2026-08-30", Title: "t", Body: ""},
	} {
		_, err := svc.Create(ctx, "author-1", in)
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeEmptyField {
			t.Errorf("Create(%+v) error = %v, want code %q", in, err, model.ErrCodeEmptyField)
		}
	}
}

func TestUpdate_ValidInput_DelegatesToRepo(t *testing.T) {
	ctx := context.Background()

	entryRepo := &mockEntryRepo{
		updateFn: func(ctx context.Context, id int64, authorID string, in model.EntryInput) (*model.Entry, error) {
			return &model.Entry{
				ID:          id,
				AuthorID:    authorID,
				SessionDate: in.SessionDate,
				Title:       in.Title,
				Body:        in.Body,
			}, nil
		},
	}
	metrics := &mockMetrics{}

	svc := NewService(entryRepo, &mockProfileRepo{}, metrics, 50)

	updated, err := svc.Update(ctx, 7, "author-1", model.EntryInput{SessionDate: "2026-08-31", Title: "修正", Body: "後半のメモ"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Title != "修正" {
		t.Errorf("updated.Title = %q, want %q", updated.Title, "修正")
	}
	if len(metrics.mutations) != 1 || metrics.mutations[0] != "update" {
		t.Errorf("mutations = %v, want [update]", metrics.mutations)
	}
}

func TestUpdate_EmptyField_SkipsRepo(t *testing.T) {
	entryRepo := &mockEntryRepo{
		updateFn: func(ctx context.Context, id int64, authorID string, in model.EntryInput) (*model.Entry, error) {
			t.Fatal("repo should not be called for invalid input")
			return nil, nil
		},
	}
	svc := NewService(entryRepo, &mockProfileRepo{}, nil, 50)

	_, err := svc.Update(context.Background(), 7, "author-1", model.EntryInput{})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeEmptyField {
		t.Errorf("error = %v, want code %q", err, model.ErrCodeEmptyField)
	}
}

func TestUpdate_NotAuthor_PropagatesErrorAndRecordsDenial(t *testing.T) {
	entryRepo := &mockEntryRepo{
		updateFn: func(ctx context.Context, id int64, authorID string, in model.EntryInput) (*model.Entry, error) {
			return nil, model.NewNotEntryAuthorError(id)
		},
	}
	metrics := &mockMetrics{}
	svc := NewService(entryRepo, &mockProfileRepo{}, metrics, 50)

	_, err := svc.Update(context.Background(), 7, "other-user", model.EntryInput{SessionDate: "2026-08-31", Title: "t", Body: "b"})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeNotEntryAuthor {
		t.Errorf("error = %v, want code %q", err, model.ErrCodeNotEntryAuthor)
	}
	if metrics.denials != 1 {
		t.Errorf("denials = %d, want 1", metrics.denials)
	}
	if len(metrics.mutations) != 0 {
		t.Errorf("mutations = %v, want empty", metrics.mutations)
	}
}

func TestDelete_Success_RecordsMutation(t *testing.T) {
	var gotID int64
	var gotAuthorID string

	entryRepo := &mockEntryRepo{
		deleteFn: func(ctx context.Context, id int64, authorID string) error {
			gotID = id
			gotAuthorID = authorID
			return nil
		},
	}
	metrics := &mockMetrics{}
	svc := NewService(entryRepo, &mockProfileRepo{}, metrics, 50)

	if err := svc.Delete(context.Background(), 9, "author-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if gotID != 9 || gotAuthorID != "author-1" {
		t.Errorf("delete called with (%d, %q), want (9, author-1)", gotID, gotAuthorID)
	}
	if len(metrics.mutations) != 1 || metrics.mutations[0] != "delete" {
		t.Errorf("mutations = %v, want [delete]", metrics.mutations)
	}
}

func TestDelete_NotFound_PropagatesWithoutDenial(t *testing.T) {
	entryRepo := &mockEntryRepo{
		deleteFn: func(ctx context.Context, id int64, authorID string) error {
			return model.NewEntryNotFoundError(id)
		},
	}
	metrics := &mockMetrics{}
	svc := NewService(entryRepo, &mockProfileRepo{}, metrics, 50)

	err := svc.Delete(context.Background(), 404, "author-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeEntryNotFound {
		t.Errorf("error = %v, want code %q", err, model.ErrCodeEntryNotFound)
	}
	// 存在しないIDの削除は所有権違反ではない
	if metrics.denials != 0 {
		t.Errorf("denials = %d, want 0", metrics.denials)
	}
}
