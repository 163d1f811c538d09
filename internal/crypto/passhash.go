// Package crypto はパスワードのハッシュ化と検証を提供する。
package crypto

import (
	"crypto/rand"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

// Argon2idパラメータ（サーバーサイドハッシュ用）
const (
	argonTime    uint32 = 3         // 反復回数
	argonMemory  uint32 = 64 * 1024 // 64 MB
	argonThreads uint8  = 1
	argonKeyLen  uint32 = 32

	// SaltLen はユーザーごとのソルト長（バイト）。
	SaltLen = 16
)

// NewSalt は暗号的に安全なランダムソルトを生成する。
func NewSalt() ([]byte, error) {
	b := make([]byte, SaltLen)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// HashPassword は指定されたソルトを使ってパスワードのArgon2idハッシュを返す。
func HashPassword(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// VerifyPassword はパスワードをソルトとハッシュに対して定数時間で検証する。
func VerifyPassword(password, salt, expected []byte) bool {
	got := HashPassword(password, salt)
	return subtle.ConstantTimeCompare(got, expected) == 1
}
