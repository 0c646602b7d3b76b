package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/chzyer/readline"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"google.golang.org/genai"

	"github.com/shouni/style-transfer-kit/pkg/adapters"
	"github.com/shouni/style-transfer-kit/pkg/config"
	"github.com/shouni/style-transfer-kit/pkg/domain"
	"github.com/shouni/style-transfer-kit/pkg/source"
	"github.com/shouni/style-transfer-kit/pkg/stylize"
)

const defaultFetchTimeout = 30 * time.Second

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func mainImpl() error {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗しました: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()})))

	ctx := context.Background()
	backend, err := newBackend(ctx, cfg)
	if err != nil {
		return err
	}

	loader := source.NewLoader(
		source.WithHTTPClient(httpkit.New(cfg.GetDurationOrDefault(config.KeyFetchTimeout, defaultFetchTimeout))),
	)
	opts := []stylize.Option{stylize.WithLoader(loader)}
	if cfg.GetBoolOrDefault(config.KeyRejectWhileLoading, false) {
		opts = append(opts, stylize.WithRejectWhileLoading())
	}
	session, err := stylize.NewSession(backend, opts...)
	if err != nil {
		return err
	}
	session.Subscribe(func(st domain.State) {
		slog.Debug("状態が更新されました", "files", st.Files, "loading", st.Request.IsLoading, "request_id", st.RequestID)
	})

	rl, err := readline.New("> ")
	if err != nil {
		return err
	}
	defer func() {
		_ = rl.Close()
	}()

	c := newConsole(ctx, session, rl.Stdout())
	c.printf("%s\n", helpText)
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF, readline.ErrInterrupt
			break
		}
		if quit := c.handle(line); quit {
			break
		}
	}
	session.Wait()
	return nil
}

// newBackend は設定に応じてスタイル変換バックエンドを作ります。
func newBackend(ctx context.Context, cfg *config.Config) (stylize.Backend, error) {
	switch cfg.Backend() {
	case config.BackendRemote:
		// タイムアウト 0 は http.Client の既定（無制限）
		timeout := cfg.GetDurationOrDefault(config.KeyRequestTimeout, 0)
		httpClient := httpkit.New(timeout, httpkit.WithHTTPClient(&http.Client{Timeout: timeout}))
		return adapters.NewRemoteStylizer(cfg.GetString(config.KeyEndpoint), httpClient)
	case config.BackendGemini:
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.GeminiAPIKey(),
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("Geminiクライアントの初期化に失敗しました: %w", err)
		}
		aiClient, err := adapters.NewGenAIModel(client.Models)
		if err != nil {
			return nil, err
		}
		return adapters.NewGeminiStylizer(aiClient, cfg.GetString(config.KeyGeminiModel), cfg.GetString(config.KeyGeminiPrompt))
	}
	return nil, fmt.Errorf("unknown backend: %q", cfg.Backend())
}
