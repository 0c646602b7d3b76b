package stylize

import (
	"context"
	"io"
	"log/slog"

	"github.com/shouni/style-transfer-kit/pkg/domain"
	"github.com/shouni/style-transfer-kit/pkg/imgutil"
)

// GeneratePreview はファイル全体を読み込み、そのまま表示できる data URI を返します。
func GeneratePreview(ctx context.Context, f domain.File) (string, error) {
	rc, err := f.Open(ctx)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}

	mimeType := f.ContentType()
	if mimeType == "" {
		mimeType = imgutil.DetectMIME(f.Name(), data)
	}
	return imgutil.DataURI(mimeType, data), nil
}

// startPreview はプレビュー生成を投げっぱなしで開始します。
// 完了順の保証はなく、最後に完了した読み込みがプレビューを上書きします。
// 読み込みに失敗した場合プレビューは更新されません。
func (s *Session) startPreview(f domain.File, role domain.Role) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		preview, err := s.previewFunc(context.Background(), f)
		if err != nil {
			slog.Warn("プレビューの生成に失敗しました", "role", role, "file", f.Name(), "error", err)
			return
		}

		s.mu.Lock()
		s.previews[role] = preview
		s.mu.Unlock()
		s.notify()
	}()
}
