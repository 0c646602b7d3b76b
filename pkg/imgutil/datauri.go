package imgutil

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// JPEGDataURIPrefix はリモートサービスが返す base64 JPEG に付与するヘッダーです。
const JPEGDataURIPrefix = "data:image/jpeg;base64,"

// DataURI はバイト列を <img src> に直接埋め込める data URI に変換します。
// mimeType が空の場合は内容から推定します。
func DataURI(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// JPEGDataURI は base64 文字列（プレフィックスなし）に JPEG 用ヘッダーを付けます。
func JPEGDataURI(b64 string) string {
	return JPEGDataURIPrefix + b64
}

// DecodeDataURI は base64 形式の data URI を MIME タイプとバイト列に分解します。
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("data URI ではありません")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("data URI にペイロードがありません")
	}
	mimeType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("base64 以外の data URI には対応していません")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("base64 デコード失敗: %w", err)
	}
	return mimeType, data, nil
}

// DetectMIME はファイル名の拡張子から、判定できなければ内容から MIME タイプを決めます。
func DetectMIME(name string, data []byte) string {
	if ext := filepath.Ext(name); ext != "" {
		if t := mime.TypeByExtension(strings.ToLower(ext)); t != "" {
			// "image/png; charset=..." のようなパラメータは data URI に不要
			if i := strings.IndexByte(t, ';'); i >= 0 {
				t = strings.TrimSpace(t[:i])
			}
			return t
		}
	}
	if len(data) == 0 {
		return ""
	}
	return http.DetectContentType(data)
}

// ExtensionFor は MIME タイプに対応する代表的な拡張子を返します。
func ExtensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
