// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/kyohei/playnote/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。メールアドレスが重複している場合は
	// model.NewEmailTakenError()を返す。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// ProfileRepository は表示名プロフィールの永続化インターフェース。
type ProfileRepository interface {
	// Create はプロフィール行を作成する。既に存在する場合は表示名を上書きする。
	Create(ctx context.Context, profile *model.Profile) error

	// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Profile, error)

	// ListAll は全プロフィールを返す。表示名は公開情報として全員が参照できる。
	ListAll(ctx context.Context) ([]*model.Profile, error)
}

// EntryRepository は分析エントリの永続化インターフェース。
// 更新・削除は `id AND author_id` でスコープされ、所有権の最終判定は
// このレイヤーが行う。ハンドラーやクライアントの表示制御は補助にすぎない。
type EntryRepository interface {
	// List は作成日時の降順でエントリを最大limit件返す。
	// 一覧は単一SELECTのスナップショットであり、部分適用された行は現れない。
	List(ctx context.Context, limit int) ([]*model.Entry, error)

	// FindByID は指定IDのエントリを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Entry, error)

	// Create はエントリを作成し、ストアが割り当てたIDと作成日時を設定して返す。
	Create(ctx context.Context, authorID string, in model.EntryInput) (*model.Entry, error)

	// Update はsession_date / title / bodyの3フィールドを一括更新する。
	// 行が存在しない場合はENTRY_NOT_FOUND、投稿者以外の場合はENTRY_NOT_AUTHORを返し、
	// いずれの場合も行は変更されない。
	Update(ctx context.Context, id int64, authorID string, in model.EntryInput) (*model.Entry, error)

	// Delete はエントリを削除する。エラー条件はUpdateと同じ。
	Delete(ctx context.Context, id int64, authorID string) error
}
