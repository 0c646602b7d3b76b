package stylize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/style-transfer-kit/pkg/source"
)

func TestGeneratePreview(t *testing.T) {
	ctx := context.Background()

	t.Run("ファイル全体を data URI に変換する", func(t *testing.T) {
		got, err := GeneratePreview(ctx, source.Bytes("a.png", []byte{1, 2, 3}))
		require.NoError(t, err)
		assert.Equal(t, "data:image/png;base64,AQID", got)
	})

	t.Run("拡張子がない場合は内容から推定する", func(t *testing.T) {
		got, err := GeneratePreview(ctx, source.Bytes("blob", []byte("GIF89a....")))
		require.NoError(t, err)
		assert.Contains(t, got, "data:image/gif;base64,")
	})

	t.Run("読み込みに失敗したらエラー", func(t *testing.T) {
		_, err := GeneratePreview(ctx, &brokenFile{name: "x.png"})
		assert.Error(t, err)
	})
}
