package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kyohei/playnote/internal/model"
)

// sessionDateFormat はsession_dateカラムの入出力形式。
const sessionDateFormat = "2006-01-02"

// PostgresEntryRepo はPostgreSQLを使用した分析エントリリポジトリ。
// 更新・削除のWHERE句に `id AND author_id` を含めることで、
// 所有権チェックをストア層で強制する。
type PostgresEntryRepo struct {
	db *sql.DB
}

// NewPostgresEntryRepo はPostgresEntryRepoを生成する。
func NewPostgresEntryRepo(db *sql.DB) *PostgresEntryRepo {
	return &PostgresEntryRepo{db: db}
}

// List は作成日時の降順でエントリを最大limit件返す。
func (r *PostgresEntryRepo) List(ctx context.Context, limit int) ([]*model.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, author_id, created_at, session_date, title, body
		 FROM analysis_entries
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}

	return entries, nil
}

// FindByID は指定IDのエントリを取得する。見つからない場合はnilを返す。
func (r *PostgresEntryRepo) FindByID(ctx context.Context, id int64) (*model.Entry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, author_id, created_at, session_date, title, body
		 FROM analysis_entries WHERE id = $1`,
		id,
	)

	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Create はエントリを作成する。idとcreated_atはストアが割り当てる。
func (r *PostgresEntryRepo) Create(ctx context.Context, authorID string, in model.EntryInput) (*model.Entry, error) {
	entry := &model.Entry{
		AuthorID:    authorID,
		SessionDate: in.SessionDate,
		Title:       in.Title,
		Body:        in.Body,
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO analysis_entries (author_id, session_date, title, body)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		authorID, in.SessionDate, in.Title, in.Body,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert entry: %w", err)
	}

	return entry, nil
}

// Update はsession_date / title / bodyの3フィールドを一括更新する。
// WHERE句で所有権を判定するため、投稿者以外の行は一切変更されない。
func (r *PostgresEntryRepo) Update(ctx context.Context, id int64, authorID string, in model.EntryInput) (*model.Entry, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE analysis_entries
		 SET session_date = $3, title = $4, body = $5
		 WHERE id = $1 AND author_id = $2`,
		id, authorID, in.SessionDate, in.Title, in.Body,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, r.mutationError(ctx, id)
	}

	return r.FindByID(ctx, id)
}

// Delete はエントリを削除する。削除は即時かつ不可逆（ソフトデリートなし）。
func (r *PostgresEntryRepo) Delete(ctx context.Context, id int64, authorID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM analysis_entries WHERE id = $1 AND author_id = $2`,
		id, authorID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return r.mutationError(ctx, id)
	}

	return nil
}

// mutationError は更新・削除が0行だった原因を切り分ける。
// 行が存在しなければENTRY_NOT_FOUND、存在するなら投稿者不一致（ENTRY_NOT_AUTHOR）。
func (r *PostgresEntryRepo) mutationError(ctx context.Context, id int64) error {
	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return model.NewEntryNotFoundError(id)
	}
	return model.NewNotEntryAuthorError(id)
}

// rowScanner は*sql.Rowと*sql.Rowsの共通Scanインターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntry は1行分のエントリを読み取る。session_dateは日付文字列に正規化する。
func scanEntry(row rowScanner) (*model.Entry, error) {
	entry := &model.Entry{}
	var sessionDate time.Time
	err := row.Scan(&entry.ID, &entry.AuthorID, &entry.CreatedAt, &sessionDate, &entry.Title, &entry.Body)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan entry: %w", err)
	}
	entry.SessionDate = sessionDate.Format(sessionDateFormat)
	return entry, nil
}

// compile-time interface check
var _ EntryRepository = (*PostgresEntryRepo)(nil)
