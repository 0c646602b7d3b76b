package stylize

import (
	"context"

	"github.com/shouni/style-transfer-kit/pkg/domain"
)

// Backend はスタイル変換を実行するリモートサービスです。
// 失敗時は表示用メッセージを持つ *domain.TransportError を返すことが期待されます。
type Backend interface {
	Stylize(ctx context.Context, content, style domain.File) (*domain.StylizedImage, error)
}

// Observer は状態が変わるたびにスナップショットを受け取ります。
type Observer func(domain.State)
