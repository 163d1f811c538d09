package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kyohei/playnote/internal/model"
)

// PostgresProfileRepo はPostgreSQLを使用したプロフィールリポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

// Create はプロフィール行を作成する。既に存在する場合は表示名を上書きする。
// 登録時のベストエフォート書き込みが再試行されても安全なように冪等にしている。
func (r *PostgresProfileRepo) Create(ctx context.Context, profile *model.Profile) error {
	var name sql.NullString
	if profile.HasName {
		name = sql.NullString{String: profile.DisplayName, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (id, display_name)
		 VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET display_name = EXCLUDED.display_name`,
		profile.ID, name,
	)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	profile := &model.Profile{}
	var name sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, display_name FROM profiles WHERE id = $1`,
		id,
	).Scan(&profile.ID, &name)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}

	profile.DisplayName = name.String
	profile.HasName = name.Valid
	return profile, nil
}

// ListAll は全プロフィールを返す。
func (r *PostgresProfileRepo) ListAll(ctx context.Context) ([]*model.Profile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, display_name FROM profiles`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*model.Profile
	for rows.Next() {
		profile := &model.Profile{}
		var name sql.NullString
		if err := rows.Scan(&profile.ID, &name); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profile.DisplayName = name.String
		profile.HasName = name.Valid
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}

	return profiles, nil
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)
