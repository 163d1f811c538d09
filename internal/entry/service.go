// Package entry は分析エントリの管理機能を提供する。
package entry

import (
	"context"
	"errors"

	"github.com/kyohei/playnote/internal/model"
	"github.com/kyohei/playnote/internal/repository"
)

// MetricsRecorder はエントリ操作のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordEntryMutation(operation string)
	RecordAuthzDenied()
}

// Service は分析エントリの一覧・作成・更新・削除のサービス。
type Service struct {
	entryRepo   repository.EntryRepository
	profileRepo repository.ProfileRepository
	metrics     MetricsRecorder
	pageSize    int
}

// NewService はServiceの新しいインスタンスを生成する。metricsはnilを許容する。
func NewService(
	entryRepo repository.EntryRepository,
	profileRepo repository.ProfileRepository,
	metrics MetricsRecorder,
	pageSize int,
) *Service {
	return &Service{
		entryRepo:   entryRepo,
		profileRepo: profileRepo,
		metrics:     metrics,
		pageSize:    pageSize,
	}
}

// List は最新のエントリを作成日時の降順で投稿者名付きで返す。
// 投稿者名はプロフィールから解決し、プロフィール行が無い、または
// 表示名がNULLの場合はDefaultDisplayNameを使う。
func (s *Service) List(ctx context.Context) ([]model.EntryWithAuthor, error) {
	entries, err := s.entryRepo.List(ctx, s.pageSize)
	if err != nil {
		return nil, err
	}

	names, err := s.displayNames(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]model.EntryWithAuthor, len(entries))
	for i, e := range entries {
		name, ok := names[e.AuthorID]
		if !ok {
			name = model.DefaultDisplayName
		}
		result[i] = model.EntryWithAuthor{
			Entry:      *e,
			AuthorName: name,
		}
	}
	return result, nil
}

// DisplayNames は全ユーザーの表示名マップを返す。
// 表示名未設定（NULL）のプロフィールにはDefaultDisplayNameを設定する。
func (s *Service) DisplayNames(ctx context.Context) (map[string]string, error) {
	return s.displayNames(ctx)
}

func (s *Service) displayNames(ctx context.Context) (map[string]string, error) {
	profiles, err := s.profileRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(profiles))
	for _, p := range profiles {
		if p.HasName {
			names[p.ID] = p.DisplayName
		} else {
			names[p.ID] = model.DefaultDisplayName
		}
	}
	return names, nil
}

// Create は新しいエントリを作成する。3フィールドすべての入力が必須。
func (s *Service) Create(ctx context.Context, authorID string, in model.EntryInput) (*model.Entry, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	created, err := s.entryRepo.Create(ctx, authorID, in)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordEntryMutation("create")
	}
	return created, nil
}

// Update は既存エントリの3フィールドを一括更新する。
// 投稿者本人以外の更新はENTRY_NOT_AUTHORで拒否される。
func (s *Service) Update(ctx context.Context, id int64, authorID string, in model.EntryInput) (*model.Entry, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.entryRepo.Update(ctx, id, authorID, in)
	if err != nil {
		s.recordDenial(err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordEntryMutation("update")
	}
	return updated, nil
}

// Delete はエントリを削除する。投稿者本人以外の削除はENTRY_NOT_AUTHORで拒否される。
func (s *Service) Delete(ctx context.Context, id int64, authorID string) error {
	if err := s.entryRepo.Delete(ctx, id, authorID); err != nil {
		s.recordDenial(err)
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordEntryMutation("delete")
	}
	return nil
}

// recordDenial は所有権違反のみをメトリクスに記録する。
func (s *Service) recordDenial(err error) {
	if s.metrics == nil {
		return
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeNotEntryAuthor {
		s.metrics.RecordAuthzDenied()
	}
}
