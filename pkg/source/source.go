package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"

	"github.com/shouni/style-transfer-kit/pkg/domain"
	"github.com/shouni/style-transfer-kit/pkg/imgutil"
)

// Fetcher は URL から画像データを取得するクライアントです。*httpkit.Client が満たします。
// IsSafeURL は SSRF 対策の検証で、取得前に必ず呼ばれます。
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
	IsSafeURL(rawURL string) (bool, error)
}

// Opener は gs:// などのリモートストレージからデータを読み出します。remoteio.InputReader が満たします。
type Opener interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

var (
	_ Fetcher = (*httpkit.Client)(nil)
	_ Opener  = remoteio.InputReader(nil)
)

// Loader はユーザーが指定したソース（ローカルパス、gs://、http(s)://）を domain.File に解決します。
type Loader struct {
	reader     Opener
	httpClient Fetcher
}

// Option は Loader の設定を変更します。
type Option func(*Loader)

// WithRemoteReader は gs:// ソースの読み込みに使う Reader を設定します。
func WithRemoteReader(r Opener) Option {
	return func(l *Loader) { l.reader = r }
}

// WithHTTPClient は http(s) ソースの取得に使うクライアントを設定します。
func WithHTTPClient(c Fetcher) Option {
	return func(l *Loader) { l.httpClient = c }
}

// NewLoader は Loader を初期化します。リモート用の依存関係はどちらも nil を許容します。
func NewLoader(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load はソース文字列を domain.File に変換します。
// ローカルファイルは存在確認だけ行い、内容は Open まで読みません。
func (l *Loader) Load(ctx context.Context, src string) (domain.File, error) {
	switch {
	case src == "":
		return nil, fmt.Errorf("ソースが空です")
	case strings.HasPrefix(src, "gs://"):
		if l.reader == nil {
			return nil, fmt.Errorf("gs:// ソースを読むための reader が設定されていません: %s", src)
		}
		return &remoteFile{uri: src, reader: l.reader}, nil
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		if l.httpClient == nil {
			return nil, fmt.Errorf("URL ソースを取得するための HTTP クライアントが設定されていません: %s", src)
		}
		safe, err := l.httpClient.IsSafeURL(src)
		if err != nil {
			return nil, fmt.Errorf("安全ではないURLが指定されました: %w", err)
		}
		if !safe {
			return nil, fmt.Errorf("安全ではないURLが指定されました: %s", src)
		}
		return &urlFile{url: src, client: l.httpClient}, nil
	}

	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("ファイルを開けません: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("ディレクトリは指定できません: %s", src)
	}
	return &localFile{path: src}, nil
}

// Bytes はメモリ上のデータを domain.File として扱います。
func Bytes(name string, data []byte) domain.File {
	return &memoryFile{name: name, data: data}
}

type localFile struct {
	path string
}

func (f *localFile) Name() string        { return filepath.Base(f.path) }
func (f *localFile) ContentType() string { return imgutil.DetectMIME(f.path, nil) }

func (f *localFile) Open(ctx context.Context) (io.ReadCloser, error) {
	return os.Open(f.path)
}

type remoteFile struct {
	uri    string
	reader Opener
}

func (f *remoteFile) Name() string        { return filepath.Base(f.uri) }
func (f *remoteFile) ContentType() string { return imgutil.DetectMIME(f.uri, nil) }

func (f *remoteFile) Open(ctx context.Context) (io.ReadCloser, error) {
	return f.reader.Open(ctx, f.uri)
}

type urlFile struct {
	url    string
	client Fetcher
}

func (f *urlFile) Name() string        { return filepath.Base(f.url) }
func (f *urlFile) ContentType() string { return imgutil.DetectMIME(f.url, nil) }

func (f *urlFile) Open(ctx context.Context) (io.ReadCloser, error) {
	data, err := f.client.FetchBytes(ctx, f.url)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type memoryFile struct {
	name string
	data []byte
}

func (f *memoryFile) Name() string        { return f.name }
func (f *memoryFile) ContentType() string { return imgutil.DetectMIME(f.name, f.data) }

func (f *memoryFile) Open(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}
