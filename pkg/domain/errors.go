package domain

import (
	"errors"
	"fmt"
)

const (
	// ValidationMessage は画像が揃っていない場合に表示するメッセージです。
	ValidationMessage = "Please select both content and style images."
	// GenericErrorMessage はエラー本文からメッセージを取り出せなかった場合の既定値です。
	GenericErrorMessage = "An error occurred while processing the images."
)

var (
	// ErrMissingImages は content/style のどちらかが未選択のまま変換しようとした場合のエラーです。
	ErrMissingImages = errors.New(ValidationMessage)
	// ErrRequestInFlight は多重送信を拒否する設定で、処理中に再送信された場合のエラーです。
	ErrRequestInFlight = errors.New("a stylize request is already in flight")
)

// TransportError は通信またはサーバー側の失敗を表します。
// Message は利用者にそのまま表示できる文字列です。
type TransportError struct {
	StatusCode int // レスポンスを受け取れなかった場合は 0
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("stylize failed (status %d): %s", e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("stylize failed: %s: %v", e.Message, e.Err)
	}
	return "stylize failed: " + e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UserMessage はエラーから画面に表示するメッセージを取り出します。
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrMissingImages) {
		return ValidationMessage
	}
	var te *TransportError
	if errors.As(err, &te) && te.Message != "" {
		return te.Message
	}
	return GenericErrorMessage
}
