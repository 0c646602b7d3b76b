package adapters

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"

	"github.com/shouni/style-transfer-kit/pkg/domain"
	"github.com/shouni/style-transfer-kit/pkg/imgutil"
	"github.com/shouni/style-transfer-kit/pkg/stylize"
)

const (
	// DefaultGeminiModel は Gemini バックエンドの既定モデルです。
	DefaultGeminiModel = "gemini-2.5-flash-image"
	// DefaultStylePrompt は Gemini に送るスタイル変換の指示です。
	DefaultStylePrompt = "Redraw the first image in the artistic style of the second image. " +
		"Keep the composition and subjects of the first image. Respond with the image only."

	// 送信前に画像を JPEG へ再圧縮するかどうかと、その品質です。
	useImageCompression     = true
	imageCompressionQuality = 85
)

var (
	_ stylize.Backend = (*GeminiStylizer)(nil)
	_ PartsGenerator  = gemini.GenerativeModel(nil)
	_ PartsGenerator  = (*GenAIModel)(nil)
)

// PartsGenerator はパーツ列から生成を行うクライアントです。gemini.GenerativeModel が満たします。
type PartsGenerator interface {
	GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error)
}

// ContentGenerator は genai SDK の生成 API です。*genai.Models が満たします。
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAIModel は genai SDK を PartsGenerator として使うためのアダプターです。
// パーツは1つのユーザーターンにまとめて送ります。opts は現状参照しません。
type GenAIModel struct {
	models ContentGenerator
}

// NewGenAIModel は GenAIModel を初期化します。
func NewGenAIModel(models ContentGenerator) (*GenAIModel, error) {
	if models == nil {
		return nil, fmt.Errorf("models (ContentGenerator) is required")
	}
	return &GenAIModel{models: models}, nil
}

// GenerateWithParts は parts を1つの Content として GenerateContent を呼び出します。
func (m *GenAIModel) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, _ gemini.GenerateOptions) (*gemini.Response, error) {
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := m.models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return nil, err
	}
	return &gemini.Response{RawResponse: resp}, nil
}

// GeminiStylizer は Gemini の画像生成モデルでスタイル変換を行うバックエンドです。
type GeminiStylizer struct {
	aiClient PartsGenerator
	model    string
	prompt   string
}

// NewGeminiStylizer は GeminiStylizer を初期化します。model と prompt は空なら既定値です。
func NewGeminiStylizer(aiClient PartsGenerator, model, prompt string) (*GeminiStylizer, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient (PartsGenerator) is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if prompt == "" {
		prompt = DefaultStylePrompt
	}

	return &GeminiStylizer{
		aiClient: aiClient,
		model:    model,
		prompt:   prompt,
	}, nil
}

// Stylize はプロンプト、content 画像、style 画像の順にパーツを組み立てて生成を実行します。
func (g *GeminiStylizer) Stylize(ctx context.Context, content, style domain.File) (*domain.StylizedImage, error) {
	parts := []*genai.Part{{Text: g.prompt}}
	for _, f := range []domain.File{content, style} {
		part, err := g.toPart(ctx, f)
		if err != nil {
			return nil, &domain.TransportError{Message: domain.GenericErrorMessage, Err: err}
		}
		parts = append(parts, part)
	}

	slog.InfoContext(ctx, "Geminiにスタイル変換をリクエストします", "model", g.model, "parts", len(parts))

	resp, err := g.aiClient.GenerateWithParts(ctx, g.model, parts, gemini.GenerateOptions{})
	if err != nil {
		return nil, &domain.TransportError{Message: domain.GenericErrorMessage, Err: fmt.Errorf("Geminiスタイル変換エラー: %w", err)}
	}

	return parseResponse(resp)
}

// toPart はファイルを読み込み、圧縮して InlineData のパーツに変換します。
func (g *GeminiStylizer) toPart(ctx context.Context, f domain.File) (*genai.Part, error) {
	rc, err := f.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s の読み込みに失敗しました: %w", f.Name(), err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%s の読み込みに失敗しました: %w", f.Name(), err)
	}

	if useImageCompression {
		if compressed, err := imgutil.CompressToJPEG(data, imageCompressionQuality); err == nil {
			data = compressed
		} else {
			slog.WarnContext(ctx, "画像の圧縮に失敗したため元データを送信します", "file", f.Name(), "error", err)
		}
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("%s は画像ではありません (detected_mime_type: %s)", f.Name(), mimeType)
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}, nil
}

// parseResponse は最初の候補から最初の画像パーツを取り出します。
func parseResponse(resp *gemini.Response) (*domain.StylizedImage, error) {
	if resp == nil || resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 {
		return nil, &domain.TransportError{Message: domain.GenericErrorMessage, Err: fmt.Errorf("Geminiからの有効な応答がありませんでした")}
	}

	candidate := resp.RawResponse.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mimeType := part.InlineData.MIMEType
				if mimeType == "" {
					mimeType = http.DetectContentType(part.InlineData.Data)
				}
				return &domain.StylizedImage{
					DataURI:  imgutil.DataURI(mimeType, part.InlineData.Data),
					MimeType: mimeType,
				}, nil
			}
		}
	}

	// 安全フィルター等によるブロック
	if candidate.FinishReason != "" && candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		return nil, &domain.TransportError{Message: fmt.Sprintf("Image generation stopped (%s).", candidate.FinishReason)}
	}

	return nil, &domain.TransportError{Message: domain.GenericErrorMessage, Err: fmt.Errorf("画像データが見つかりませんでした")}
}
