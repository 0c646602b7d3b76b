package adapters

import (
	"context"
	"errors"
	"net/http"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"

	"github.com/shouni/style-transfer-kit/pkg/domain"
	"github.com/shouni/style-transfer-kit/pkg/source"
)

// --- Mocks ---

// mockAIClient は PartsGenerator のテスト用モックです。
type mockAIClient struct {
	generateFunc func(model string, parts []*genai.Part) (*gemini.Response, error)
	lastModel    string
	lastParts    []*genai.Part
}

func (m *mockAIClient) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
	m.lastModel = model
	m.lastParts = parts
	if m.generateFunc != nil {
		return m.generateFunc(model, parts)
	}
	return nil, nil
}

// mockGenerator は ContentGenerator のテスト用モックです。
type mockGenerator struct {
	generateFunc func(model string, contents []*genai.Content) (*genai.GenerateContentResponse, error)
	lastModel    string
	lastContents []*genai.Content
}

func (m *mockGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.lastModel = model
	m.lastContents = contents
	if m.generateFunc != nil {
		return m.generateFunc(model, contents)
	}
	return nil, nil
}

// failingDoer はネットワークエラーを返す Doer です。
type failingDoer struct{}

func (failingDoer) Do(req *http.Request) (*http.Response, error) {
	return nil, errors.New("dial tcp: i/o timeout")
}

func rawImageResponse(mimeType string, data []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}},
			},
			FinishReason: genai.FinishReasonStop,
		}},
	}
}

func imageResponse(mimeType string, data []byte) *gemini.Response {
	return &gemini.Response{RawResponse: rawImageResponse(mimeType, data)}
}

func files() (domain.File, domain.File) {
	return source.Bytes("content.png", []byte("content-bytes")), source.Bytes("style.jpg", []byte("style-bytes"))
}
