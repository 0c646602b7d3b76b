package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/shouni/go-http-kit/pkg/httpkit"

	"github.com/shouni/style-transfer-kit/pkg/domain"
	"github.com/shouni/style-transfer-kit/pkg/imgutil"
	"github.com/shouni/style-transfer-kit/pkg/stylize"
)

// DefaultEndpoint はスタイル変換サービスの既定のエンドポイントです。
const DefaultEndpoint = "https://neural-style-transfer-remastered-production.up.railway.app/stylize"

// maxResponseBytes はレスポンス本文として読み込む上限です。
const maxResponseBytes = 64 << 20

var (
	_ stylize.Backend = (*RemoteStylizer)(nil)
	_ httpkit.Doer    = (*httpkit.Client)(nil)
)

// stylizeResponse は成功時のレスポンスです。
type stylizeResponse struct {
	StylizedImage string `json:"stylized_image"`
}

// errorResponse は失敗時のレスポンスです。error フィールドは省略されることがあります。
type errorResponse struct {
	Error string `json:"error"`
}

// RemoteStylizer は multipart/form-data で画像を POST するリモートバックエンドです。
type RemoteStylizer struct {
	endpoint string
	client   httpkit.Doer
}

// NewRemoteStylizer は RemoteStylizer を初期化します。
// endpoint が空なら DefaultEndpoint を使います。client が nil なら http.DefaultClient を包んだ
// httpkit.Client を使うため、タイムアウトはトランスポートの既定値になります。
// リトライは行わないので、httpkit.Client を渡す場合も Do だけが呼ばれます。
func NewRemoteStylizer(endpoint string, client httpkit.Doer) (*RemoteStylizer, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("エンドポイントのパースに失敗しました: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("エンドポイントは http(s) の絶対URLである必要があります: %s", endpoint)
	}
	if client == nil {
		client = httpkit.New(0, httpkit.WithHTTPClient(http.DefaultClient))
	}

	return &RemoteStylizer{
		endpoint: endpoint,
		client:   client,
	}, nil
}

// Endpoint は送信先の URL を返します。
func (r *RemoteStylizer) Endpoint() string {
	return r.endpoint
}

// Stylize は content と style をそれぞれ同名のパートとして 1 回だけ POST します。リトライはしません。
func (r *RemoteStylizer) Stylize(ctx context.Context, content, style domain.File) (*domain.StylizedImage, error) {
	body, contentType, err := buildForm(ctx, content, style)
	if err != nil {
		return nil, &domain.TransportError{Message: domain.GenericErrorMessage, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, body)
	if err != nil {
		return nil, &domain.TransportError{Message: domain.GenericErrorMessage, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Message: domain.GenericErrorMessage, Err: err}
	}

	raw, err := readResponse(resp)
	if err != nil {
		var he *httpkit.NonRetryableHTTPError
		if errors.As(err, &he) {
			return nil, &domain.TransportError{StatusCode: he.StatusCode, Message: errorMessage(he.Body), Err: err}
		}
		return nil, &domain.TransportError{StatusCode: resp.StatusCode, Message: domain.GenericErrorMessage, Err: err}
	}

	var out stylizeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &domain.TransportError{StatusCode: resp.StatusCode, Message: domain.GenericErrorMessage, Err: err}
	}
	if out.StylizedImage == "" {
		return nil, &domain.TransportError{StatusCode: resp.StatusCode, Message: domain.GenericErrorMessage, Err: fmt.Errorf("stylized_image がレスポンスに含まれていません")}
	}

	return &domain.StylizedImage{
		DataURI:  imgutil.JPEGDataURI(out.StylizedImage),
		MimeType: "image/jpeg",
	}, nil
}

// readResponse は本文を上限付きで読み込みます。
// 2xx 以外はステータスに関わらず *httpkit.NonRetryableHTTPError として返します。
func readResponse(resp *http.Response) ([]byte, error) {
	raw, err := httpkit.HandleLimitedResponse(resp, maxResponseBytes+1)
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > maxResponseBytes {
		return nil, fmt.Errorf("レスポンスボディのサイズが制限値 (%dバイト) を超過しました", maxResponseBytes)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httpkit.NonRetryableHTTPError{StatusCode: resp.StatusCode, Body: raw}
	}
	return raw, nil
}

// errorMessage はエラーレスポンスの error フィールドを取り出します。取り出せなければ既定メッセージです。
func errorMessage(raw []byte) string {
	var e errorResponse
	if err := json.Unmarshal(raw, &e); err != nil || strings.TrimSpace(e.Error) == "" {
		return domain.GenericErrorMessage
	}
	return e.Error
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// buildForm は content と style のパートを持つ multipart 本文を組み立てます。
func buildForm(ctx context.Context, content, style domain.File) (*bytes.Buffer, string, error) {
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)

	for _, p := range []struct {
		role domain.Role
		file domain.File
	}{
		{domain.RoleContent, content},
		{domain.RoleStyle, style},
	} {
		if err := writeFilePart(ctx, w, string(p.role), p.file); err != nil {
			return nil, "", fmt.Errorf("%s パートの作成に失敗しました: %w", p.role, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func writeFilePart(ctx context.Context, w *multipart.Writer, field string, f domain.File) error {
	contentType := f.ContentType()
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(f.Name())))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}

	rc, err := f.Open(ctx)
	if err != nil {
		return err
	}
	defer rc.Close()

	_, err = io.Copy(part, rc)
	return err
}
