package domain

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Role は選択された画像がスタイル変換のどちらの入力として使われるかを表します。
type Role string

const (
	RoleContent Role = "content" // 構図を保持する元画像
	RoleStyle   Role = "style"   // 画風の参照画像
)

// Roles はフォームに送る順序で全ロールを返します。
func Roles() []Role {
	return []Role{RoleContent, RoleStyle}
}

// ParseRole は文字列からロールを解釈します。
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleContent:
		return RoleContent, nil
	case RoleStyle:
		return RoleStyle, nil
	}
	return "", fmt.Errorf("unknown role: %q", s)
}

// File はユーザーが選択した生のバイナリファイルへのハンドルです。
// Open は呼び出しごとに先頭から読み直せる Reader を返す必要があります。
type File interface {
	Name() string
	ContentType() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// StylizedImage はバックエンドが返した変換結果です。
type StylizedImage struct {
	DataURI  string // そのまま表示に使える data URI
	MimeType string
}
