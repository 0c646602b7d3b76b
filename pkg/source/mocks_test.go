package source

import (
	"bytes"
	"context"
	"io"
)

// --- Mocks ---

type mockFetcher struct {
	data    []byte
	err     error
	called  int
	lastURL string

	unsafe   map[string]bool // IsSafeURL で拒否する URL
	checkErr error
	checked  []string
}

func (m *mockFetcher) IsSafeURL(rawURL string) (bool, error) {
	m.checked = append(m.checked, rawURL)
	if m.checkErr != nil {
		return false, m.checkErr
	}
	return !m.unsafe[rawURL], nil
}

func (m *mockFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.called++
	m.lastURL = url
	return m.data, m.err
}

// mockReader は remoteio.InputReader と同じ形のモックです。
type mockReader struct {
	data    []byte
	err     error
	lastURI string
}

func (m *mockReader) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	m.lastURI = uri
	if m.err != nil {
		return nil, m.err
	}
	return io.NopCloser(bytes.NewReader(m.data)), nil
}

func (m *mockReader) List(ctx context.Context, uri string, fn func(string) error) error {
	return nil
}
