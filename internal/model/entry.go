package model

import "time"

// Entry は分析エントリ（日付付きの短い投稿）を表す。
// author_idは作成時に一度だけ設定され、以後変更されない。
// session_date / title / body の3フィールドは常に一括で更新される。
type Entry struct {
	ID          int64
	AuthorID    string
	CreatedAt   time.Time
	SessionDate string // "2006-01-02" 形式の日付
	Title       string
	Body        string
}

// EntryWithAuthor はエントリと投稿者の表示名を結合した一覧表示用の構造体。
type EntryWithAuthor struct {
	Entry
	AuthorName string
}

// EntryInput はエントリ作成・更新の入力。3フィールドすべてが必須。
type EntryInput struct {
	SessionDate string
	Title       string
	Body        string
}

// Validate は必須フィールドの非空チェックを行う。
// 違反があればValidationErrorを返し、ストア呼び出しは行われない。
func (in EntryInput) Validate() error {
	if in.SessionDate == "" || in.Title == "" || in.Body == "" {
		return NewEmptyFieldError()
	}
	return nil
}
