// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// 認証情報（パスワードハッシュとソルト）はサーバー内部でのみ扱い、
// APIレスポンスには含めない。
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	PasswordSalt []byte
	CreatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Profile はユーザーの表示名を表す。usersと1:1で、登録時にベストエフォートで
// 作成されるため行自体が存在しない場合がある。表示名が未設定（NULL）または
// 行が無い場合、表示にはDefaultDisplayNameを使う。
type Profile struct {
	ID          string
	DisplayName string
	HasName     bool // display_nameがNULLでないことを示す
}

// DefaultDisplayName はプロフィール未設定時の表示名。
const DefaultDisplayName = "名無し"
