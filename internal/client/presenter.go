package client

import (
	"context"
	"sync"

	"github.com/kyohei/playnote/internal/model"
)

// Presenter はエントリ一覧のスナップショットと表示名マップを保持し、
// 一覧描画と削除操作を提供する。
type Presenter struct {
	api        *API
	controller *Controller

	mu      sync.Mutex
	entries []Entry
	names   map[string]string
	editor  *Editor
}

// NewPresenter はPresenterを生成する。
func NewPresenter(api *API, controller *Controller) *Presenter {
	return &Presenter{
		api:        api,
		controller: controller,
		names:      map[string]string{},
	}
}

// BindEditor は削除時に編集状態をリセットするためのEditorを関連付ける。
func (p *Presenter) BindEditor(editor *Editor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.editor = editor
}

// Reload はエントリ一覧と表示名マップを取得し直す。
// 未認証の場合は取得を行わずUNAUTHORIZEDを返す。
// 取得に失敗した場合、既存のスナップショットは変更しない。
func (p *Presenter) Reload(ctx context.Context) error {
	if p.controller.State() != StateAuthenticated {
		return model.NewUnauthorizedError()
	}

	entries, err := p.api.ListEntries(ctx)
	if err != nil {
		return err
	}
	names, err := p.api.ListProfiles(ctx)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = entries
	p.names = names
	return nil
}

// Entries は現在のスナップショット（新しい順）を返す。
func (p *Presenter) Entries() []Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// AuthorName はエントリの投稿者表示名を返す。
// プロフィールが無い場合も表示名が未設定の場合も、区別せず「名無し」にする。
func (p *Presenter) AuthorName(e Entry) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if name, ok := p.names[e.AuthorID]; ok && name != "" {
		return name
	}
	if e.AuthorName != "" {
		return e.AuthorName
	}
	return model.DefaultDisplayName
}

// CanModify は閲覧者がエントリの投稿者である場合にtrueを返す。
func (p *Presenter) CanModify(e Entry) bool {
	userID, _ := p.controller.CurrentUser()
	return userID != "" && userID == e.AuthorID
}

// Delete はエントリを削除する。confirmがfalseを返した場合は何もしない。
// 削除対象が編集中の行だった場合、編集状態をリセットする。
// 成功後に一覧を取得し直す。
func (p *Presenter) Delete(ctx context.Context, id int64, confirm func() bool) error {
	if confirm != nil && !confirm() {
		return nil
	}

	if err := p.api.DeleteEntry(ctx, id); err != nil {
		return err
	}

	p.mu.Lock()
	editor := p.editor
	p.mu.Unlock()
	if editor != nil && editor.EditingID() != nil && *editor.EditingID() == id {
		editor.CancelEdit()
	}

	return p.Reload(ctx)
}
