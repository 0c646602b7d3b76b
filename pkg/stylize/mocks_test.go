package stylize

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/shouni/style-transfer-kit/pkg/domain"
	"github.com/shouni/style-transfer-kit/pkg/source"
)

// --- Mocks ---

type mockBackend struct {
	calls       atomic.Int32
	stylizeFunc func(ctx context.Context, content, style domain.File) (*domain.StylizedImage, error)
}

func (m *mockBackend) Stylize(ctx context.Context, content, style domain.File) (*domain.StylizedImage, error) {
	m.calls.Add(1)
	if m.stylizeFunc != nil {
		return m.stylizeFunc(ctx, content, style)
	}
	return &domain.StylizedImage{DataURI: "data:image/jpeg;base64,abc123", MimeType: "image/jpeg"}, nil
}

// brokenFile は Open が必ず失敗するファイルです。
type brokenFile struct {
	name string
}

func (f *brokenFile) Name() string        { return f.name }
func (f *brokenFile) ContentType() string { return "image/png" }

func (f *brokenFile) Open(ctx context.Context) (io.ReadCloser, error) {
	return nil, errors.New("permission denied")
}

func memFile(name string) domain.File {
	return source.Bytes(name, []byte("bytes-of-"+name))
}

func failWith(err error) func(context.Context, domain.File, domain.File) (*domain.StylizedImage, error) {
	return func(context.Context, domain.File, domain.File) (*domain.StylizedImage, error) {
		return nil, err
	}
}
