package client

import (
	"context"
	"sync"

	"github.com/kyohei/playnote/internal/model"
)

// Editor はエントリ投稿フォームの状態を管理する。
// editingIDがnilなら新規作成、非nilならそのIDのエントリの更新として送信する。
type Editor struct {
	api       *API
	presenter *Presenter

	mu          sync.Mutex
	sessionDate string
	title       string
	body        string
	editingID   *int64
}

// NewEditor はEditorを生成し、Presenterへ関連付ける。
func NewEditor(api *API, presenter *Presenter) *Editor {
	e := &Editor{api: api, presenter: presenter}
	presenter.BindEditor(e)
	return e
}

// SetFields はフォームの3フィールドを設定する。
func (e *Editor) SetFields(sessionDate, title, body string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sessionDate = sessionDate
	e.title = title
	e.body = body
}

// Fields は現在のフォーム内容を返す。
func (e *Editor) Fields() (sessionDate, title, body string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionDate, e.title, e.body
}

// EditingID は編集中のエントリIDを返す。新規作成モードならnil。
func (e *Editor) EditingID() *int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editingID
}

// StartEdit は既存エントリの編集を開始する。投稿者本人のみ許可される。
func (e *Editor) StartEdit(entry Entry) error {
	if !e.presenter.CanModify(entry) {
		return model.NewNotEntryAuthorError(entry.ID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	id := entry.ID
	e.editingID = &id
	e.sessionDate = entry.SessionDate
	e.title = entry.Title
	e.body = entry.Body
	return nil
}

// CancelEdit は編集を中止し、フォームを空の新規作成状態へ戻す。
func (e *Editor) CancelEdit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.editingID = nil
	e.sessionDate = ""
	e.title = ""
	e.body = ""
}

// Submit はフォーム内容を送信する。3フィールドがすべて非空であることを
// ローカルで検証し、違反時はネットワーク呼び出しを行わずに返す。
// 成功時はフォームをクリアして編集モードを抜け、その後に一覧を取得し直す。
// 失敗時はフォーム内容を保持したままエラーを返す。
func (e *Editor) Submit(ctx context.Context) error {
	e.mu.Lock()
	in := EntryInput{SessionDate: e.sessionDate, Title: e.title, Body: e.body}
	editingID := e.editingID
	e.mu.Unlock()

	if in.SessionDate == "" || in.Title == "" || in.Body == "" {
		return model.NewEmptyFieldError()
	}

	var err error
	if editingID != nil {
		_, err = e.api.UpdateEntry(ctx, *editingID, in)
	} else {
		_, err = e.api.CreateEntry(ctx, in)
	}
	if err != nil {
		return err
	}

	e.CancelEdit()
	return e.presenter.Reload(ctx)
}
