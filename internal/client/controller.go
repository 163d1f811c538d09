package client

import (
	"context"
	"sync"
)

// State はセッションコントローラーの状態。未認証か認証済みの二値のみ。
type State int

const (
	// StateUnauthenticated は未ログイン状態。
	StateUnauthenticated State = iota
	// StateAuthenticated はログイン済み状態。
	StateAuthenticated
)

// Controller はログイン状態の遷移を管理する。
// 状態遷移をまたいで返ってきた応答は世代カウンターで破棄し、
// ログアウト後に認証済みデータが描画されることを防ぐ。
type Controller struct {
	api *API

	mu         sync.Mutex
	state      State
	userID     string
	email      string
	generation uint64
}

// NewController はControllerを生成する。初期状態は未認証。
func NewController(api *API) *Controller {
	return &Controller{api: api, state: StateUnauthenticated}
}

// State は現在の状態を返す。
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentUser は認証済みユーザーのIDとメールアドレスを返す。
// 未認証の場合は空文字列のペアを返す。
func (c *Controller) CurrentUser() (userID, email string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateAuthenticated {
		return "", ""
	}
	return c.userID, c.email
}

// snapshot は現在の世代番号を返す。応答受信時にcommitで照合する。
func (c *Controller) snapshot() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// commit はgenが現在の世代と一致する場合のみfnを適用する。
// 一致しない応答は古いリクエストのものとして破棄する。
func (c *Controller) commit(gen uint64, fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false
	}
	c.generation++
	fn()
	return true
}

// Init は保存済みセッションの有効性を確認し、状態を復元する。
// セッションが無効な場合は未認証のまま（エラーにはしない）。
func (c *Controller) Init(ctx context.Context) error {
	gen := c.snapshot()
	user, err := c.api.Me(ctx)
	if err != nil {
		c.commit(gen, func() {
			c.state = StateUnauthenticated
			c.userID = ""
			c.email = ""
		})
		return nil
	}
	c.commit(gen, func() {
		c.state = StateAuthenticated
		c.userID = user.ID
		c.email = user.Email
	})
	return nil
}

// SignIn はログインを行い、成功時に認証済み状態へ遷移する。
// 失敗時は未認証のままエラーをそのまま返す。
func (c *Controller) SignIn(ctx context.Context, email, password string) error {
	gen := c.snapshot()
	user, err := c.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	c.commit(gen, func() {
		c.state = StateAuthenticated
		c.userID = user.ID
		c.email = user.Email
	})
	return nil
}

// SignUp は新規登録を行い、成功時に認証済み状態へ遷移する。
// プロフィール書き込みの警告は登録成功としてそのまま呼び出し元へ返す。
func (c *Controller) SignUp(ctx context.Context, email, password, displayName string) (*RegisterResult, error) {
	gen := c.snapshot()
	result, err := c.api.Register(ctx, email, password, displayName)
	if err != nil {
		return nil, err
	}
	c.commit(gen, func() {
		c.state = StateAuthenticated
		c.userID = result.User.ID
		c.email = result.User.Email
	})
	return result, nil
}

// SignOut はログアウトし、未認証状態へ遷移する。
// サーバー側の失敗に関わらずローカル状態は必ず破棄する。
func (c *Controller) SignOut(ctx context.Context) error {
	gen := c.snapshot()
	err := c.api.Logout(ctx)
	c.commit(gen, func() {
		c.state = StateUnauthenticated
		c.userID = ""
		c.email = ""
	})
	return err
}
