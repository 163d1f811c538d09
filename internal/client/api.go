// Package client はAPIサーバーに対するクライアントライブラリを提供する。
// セッションCookieとCSRFトークンをローカルファイルに永続化し、
// CLIの複数回の起動をまたいでログイン状態を維持する。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/kyohei/playnote/internal/model"
)

// sessionCookieName / csrfCookieName / csrfHeaderName はサーバー側の定義と一致させる。
const (
	sessionCookieName = "session_id"
	csrfCookieName    = "csrf_token"
	csrfHeaderName    = "X-CSRF-Token"
)

// SessionState はローカルに永続化するログイン状態。
type SessionState struct {
	SessionID string    `json:"session_id"`
	CSRFToken string    `json:"csrf_token"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	SavedAt   time.Time `json:"saved_at"`
}

// SessionStore はセッション状態のファイル永続化を行う。
type SessionStore struct {
	path string
}

// NewSessionStore はデフォルトの保存先（$XDG_CONFIG_HOME/playnote/session.json）を
// 使用するSessionStoreを生成する。
func NewSessionStore() *SessionStore {
	return &SessionStore{path: filepath.Join(configDir(), "session.json")}
}

// NewSessionStoreAt は保存先を指定してSessionStoreを生成する。テスト用。
func NewSessionStoreAt(path string) *SessionStore {
	return &SessionStore{path: path}
}

func configDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "playnote")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "playnote")
}

// Save はセッション状態をファイルへ書き込む。
func (s *SessionStore) Save(state SessionState) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	state.SavedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Load はセッション状態をファイルから読み込む。
// ファイルが存在しない場合は空の状態を返す（エラーにはしない）。
func (s *SessionStore) Load() (SessionState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return SessionState{}, nil
		}
		return SessionState{}, fmt.Errorf("failed to read session file: %w", err)
	}
	var state SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return SessionState{}, fmt.Errorf("failed to parse session file: %w", err)
	}
	return state, nil
}

// Clear はセッション状態を破棄する。ファイルが存在しない場合も成功扱い。
func (s *SessionStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// User はサーバーが返すユーザー情報。
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Entry はサーバーが返すエントリ情報。
type Entry struct {
	ID          int64  `json:"id"`
	AuthorID    string `json:"author_id"`
	AuthorName  string `json:"author_name,omitempty"`
	CreatedAt   string `json:"created_at"`
	SessionDate string `json:"session_date"`
	Title       string `json:"title"`
	Body        string `json:"body"`
}

// EntryInput はエントリ作成・更新のリクエストボディ。
type EntryInput struct {
	SessionDate string `json:"session_date"`
	Title       string `json:"title"`
	Body        string `json:"body"`
}

// RegisterResult は登録APIのレスポンス。プロフィール書き込みに失敗した場合、
// アカウントは作成されたままWarningが設定される。
type RegisterResult struct {
	User    User            `json:"user"`
	Warning *model.APIError `json:"warning,omitempty"`
}

// API はplaynoteサーバーのHTTPクライアント。
type API struct {
	baseURL string
	http    *http.Client
	store   *SessionStore
}

// NewAPI はAPIクライアントを生成する。
func NewAPI(baseURL string, store *SessionStore) *API {
	return &API{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		store:   store,
	}
}

type errorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// decodeAPIError はエラーレスポンスを*model.APIErrorへ変換する。
// JSONとして解釈できないボディはステータスコードのみのエラーにする。
func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var er errorResponse
	if err := json.Unmarshal(body, &er); err != nil || er.Code == "" {
		return fmt.Errorf("unexpected response: status=%d", resp.StatusCode)
	}
	return &model.APIError{
		Code:     er.Code,
		Message:  er.Message,
		Category: er.Category,
		Action:   er.Action,
	}
}

// do はリクエストを組み立てて送信する。セッションCookieを常に添付し、
// 非安全メソッドにはCSRF Cookie+ヘッダーのペアを添付する。
func (a *API) do(ctx context.Context, method, path string, reqBody, respBody any) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	state, err := a.store.Load()
	if err != nil {
		return err
	}
	if state.SessionID != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: state.SessionID})
	}
	if method != http.MethodGet && method != http.MethodHead {
		token := state.CSRFToken
		if token == "" {
			token, err = a.fetchCSRFToken(ctx)
			if err != nil {
				return err
			}
			state.CSRFToken = token
			if state.SessionID != "" {
				if err := a.store.Save(state); err != nil {
					return err
				}
			}
		}
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: token})
		req.Header.Set(csrfHeaderName, token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}

	a.captureSessionCookie(resp, &state)

	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// captureSessionCookie はレスポンスのSet-Cookieからセッションを保存する。
// ログイン・登録の成功時のみsession_idが降ってくる。
func (a *API) captureSessionCookie(resp *http.Response, state *SessionState) {
	for _, c := range resp.Cookies() {
		switch c.Name {
		case sessionCookieName:
			if c.MaxAge >= 0 && c.Value != "" {
				state.SessionID = c.Value
				_ = a.store.Save(*state)
			}
		case csrfCookieName:
			if c.Value != "" && c.Value != state.CSRFToken {
				state.CSRFToken = c.Value
				_ = a.store.Save(*state)
			}
		}
	}
}

// fetchCSRFToken はCSRFトークン取得エンドポイントを呼び出す。
func (a *API) fetchCSRFToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/csrf-token", nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch CSRF token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected CSRF token response: status=%d", resp.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode CSRF token: %w", err)
	}
	return out.Token, nil
}

// Register は新規ユーザーを登録する。成功時はセッションが保存される。
func (a *API) Register(ctx context.Context, email, password, displayName string) (*RegisterResult, error) {
	reqBody := map[string]string{"email": email, "password": password}
	if displayName != "" {
		reqBody["display_name"] = displayName
	}
	var result RegisterResult
	if err := a.do(ctx, http.MethodPost, "/auth/register", reqBody, &result); err != nil {
		return nil, err
	}
	a.rememberUser(result.User)
	return &result, nil
}

// Login はログインし、セッションを保存する。
func (a *API) Login(ctx context.Context, email, password string) (*User, error) {
	reqBody := map[string]string{"email": email, "password": password}
	var user User
	if err := a.do(ctx, http.MethodPost, "/auth/login", reqBody, &user); err != nil {
		return nil, err
	}
	a.rememberUser(user)
	return &user, nil
}

// rememberUser はユーザー情報をセッションファイルへ追記する。
func (a *API) rememberUser(u User) {
	state, err := a.store.Load()
	if err != nil {
		return
	}
	state.UserID = u.ID
	state.Email = u.Email
	_ = a.store.Save(state)
}

// Logout はサーバー側のセッションを破棄し、ローカルの状態も消す。
// サーバーへの通知に失敗してもローカル状態は必ず破棄する。
func (a *API) Logout(ctx context.Context) error {
	err := a.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	if clearErr := a.store.Clear(); clearErr != nil {
		return clearErr
	}
	return err
}

// Me は現在のログインユーザーを返す。
func (a *API) Me(ctx context.Context) (*User, error) {
	var user User
	if err := a.do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListEntries はエントリ一覧（新しい順）を取得する。
func (a *API) ListEntries(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	if err := a.do(ctx, http.MethodGet, "/api/entries", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListProfiles はユーザーID→表示名のマップを取得する。
func (a *API) ListProfiles(ctx context.Context) (map[string]string, error) {
	var profiles map[string]string
	if err := a.do(ctx, http.MethodGet, "/api/profiles", nil, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// CreateEntry は新規エントリを作成する。
func (a *API) CreateEntry(ctx context.Context, in EntryInput) (*Entry, error) {
	var entry Entry
	if err := a.do(ctx, http.MethodPost, "/api/entries", in, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateEntry は自分のエントリを更新する。
func (a *API) UpdateEntry(ctx context.Context, id int64, in EntryInput) (*Entry, error) {
	var entry Entry
	if err := a.do(ctx, http.MethodPut, fmt.Sprintf("/api/entries/%d", id), in, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteEntry は自分のエントリを削除する。
func (a *API) DeleteEntry(ctx context.Context, id int64) error {
	return a.do(ctx, http.MethodDelete, fmt.Sprintf("/api/entries/%d", id), nil, nil)
}
