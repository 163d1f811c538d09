// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, authorization, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeAuthFailed     = "AUTH_FAILED"
	ErrCodeEmailTaken     = "AUTH_EMAIL_TAKEN"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
	ErrCodeEmptyField     = "VALIDATION_EMPTY_FIELD"
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeEntryNotFound  = "ENTRY_NOT_FOUND"
	ErrCodeNotEntryAuthor = "ENTRY_NOT_AUTHOR"
	ErrCodeProfileWrite   = "PROFILE_WRITE_FAILED"
	ErrCodeUserNotFound   = "USER_NOT_FOUND"
)

// NewAuthFailedError は認証失敗エラーを生成する。
// ユーザーの存在有無を漏らさないよう、メッセージは常に同一とする。
func NewAuthFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeAuthFailed,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewEmptyFieldError は必須フィールド未入力エラーを生成する。
func NewEmptyFieldError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyField,
		Message:  "session_date / title / body を入力してください。",
		Category: "validation",
		Action:   "すべての必須フィールドを入力してください。",
	}
}

// NewAuthEmptyFieldError は認証情報未入力エラーを生成する。
func NewAuthEmptyFieldError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyField,
		Message:  "email / password を入力してください。",
		Category: "validation",
		Action:   "メールアドレスとパスワードを入力してください。",
	}
}

// NewInvalidRequestError はリクエスト形式エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewEntryNotFoundError はエントリ未検出エラーを生成する。
func NewEntryNotFoundError(entryID int64) *APIError {
	return &APIError{
		Code:     ErrCodeEntryNotFound,
		Message:  fmt.Sprintf("指定されたエントリが見つかりません: %d", entryID),
		Category: "validation",
		Action:   "エントリIDを確認してください。",
	}
}

// NewNotEntryAuthorError は投稿者以外による更新・削除の拒否エラーを生成する。
// ストア層が最終的な判定者であり、UI側のボタン非表示は補助にすぎない。
func NewNotEntryAuthorError(entryID int64) *APIError {
	return &APIError{
		Code:     ErrCodeNotEntryAuthor,
		Message:  fmt.Sprintf("このエントリを変更する権限がありません: %d", entryID),
		Category: "authorization",
		Action:   "自分が投稿したエントリのみ編集・削除できます。",
	}
}

// NewProfileWriteError はプロフィール作成失敗エラーを生成する。
// アカウント自体は作成済みであることを明示する（ロールバックしない）。
func NewProfileWriteError() *APIError {
	return &APIError{
		Code:     ErrCodeProfileWrite,
		Message:  "表示名の保存に失敗しました。アカウントは作成されています。",
		Category: "system",
		Action:   "後で表示名を設定し直してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}
