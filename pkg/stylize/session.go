package stylize

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/shouni/style-transfer-kit/pkg/domain"
	"github.com/shouni/style-transfer-kit/pkg/source"
)

// Session は content/style 画像の選択、プレビュー、変換リクエストの状態を保持します。
// 状態の更新はすべて mu で保護されますが、非同期処理どうしの順序付けは行いません。
// プレビューもリクエスト結果も、最後に完了したものが勝ちます。
type Session struct {
	backend            Backend
	loader             *source.Loader
	previewFunc        func(ctx context.Context, f domain.File) (string, error)
	rejectWhileLoading bool

	mu        sync.Mutex
	files     map[domain.Role]domain.File
	previews  map[domain.Role]string
	request   domain.RequestState
	requestID string
	requests  int
	observers []Observer

	// deliverMu はスナップショットの取得から通知完了までを直列化し、古い状態が後から届かないようにします。
	deliverMu sync.Mutex

	wg sync.WaitGroup
}

// Option は Session の設定を変更します。
type Option func(*Session)

// WithLoader は SelectSource で使うソースローダーを設定します。
func WithLoader(l *source.Loader) Option {
	return func(s *Session) { s.loader = l }
}

// WithPreviewFunc はプレビュー生成処理を差し替えます。
func WithPreviewFunc(fn func(ctx context.Context, f domain.File) (string, error)) Option {
	return func(s *Session) { s.previewFunc = fn }
}

// WithRejectWhileLoading は処理中の再送信を ErrRequestInFlight で拒否します。
// 既定では多重送信を許可し、最後に完了したレスポンスが状態を上書きします。
func WithRejectWhileLoading() Option {
	return func(s *Session) { s.rejectWhileLoading = true }
}

// WithObserver は状態変更の通知先を登録します。
func WithObserver(obs Observer) Option {
	return func(s *Session) { s.observers = append(s.observers, obs) }
}

// NewSession は依存関係を注入して Session を初期化します。
func NewSession(backend Backend, opts ...Option) (*Session, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is required")
	}

	s := &Session{
		backend:     backend,
		previewFunc: GeneratePreview,
		files:       make(map[domain.Role]domain.File),
		previews:    make(map[domain.Role]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Subscribe は状態変更の通知先を追加します。
// Observer は状態が変わった順に同期的に呼ばれるため、重い処理は避けてください。
func (s *Session) Subscribe(obs Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, obs)
}

// Select はファイル選択イベントを処理します。
// 先頭のファイルだけを対象ロールの選択として保存し（以前の選択は置き換え）、プレビュー生成を開始します。
// ファイルがなければ何もしません。
func (s *Session) Select(role domain.Role, files ...domain.File) {
	if len(files) == 0 || files[0] == nil {
		return
	}
	f := files[0]

	s.mu.Lock()
	s.files[role] = f
	s.mu.Unlock()

	s.notify()
	s.startPreview(f, role)
}

// SelectContent は content 画像の選択イベントを処理します。
func (s *Session) SelectContent(files ...domain.File) { s.Select(domain.RoleContent, files...) }

// SelectStyle は style 画像の選択イベントを処理します。
func (s *Session) SelectStyle(files ...domain.File) { s.Select(domain.RoleStyle, files...) }

// SelectSource はパスや URL を解決してから Select と同じ処理を行います。
// 先頭のソースだけを解決し、それ以外は無視します。
func (s *Session) SelectSource(ctx context.Context, role domain.Role, srcs ...string) error {
	if len(srcs) == 0 {
		return nil
	}
	if s.loader == nil {
		return fmt.Errorf("source loader is not configured")
	}

	f, err := s.loader.Load(ctx, srcs[0])
	if err != nil {
		return fmt.Errorf("%s 画像の読み込みに失敗しました: %w", role, err)
	}
	s.Select(role, f)
	return nil
}

// Stylize は content と style の両方が選択されていることを確認し、変換リクエストを 1 回だけ送信します。
// 画像が揃っていない場合は ErrorMessage を設定して domain.ErrMissingImages を同期的に返し、通信は行いません。
// 受け付けた場合は、この試行の最終状態を 1 度だけ送ってから閉じるチャネルを返します。
func (s *Session) Stylize(ctx context.Context) (<-chan domain.RequestState, error) {
	s.mu.Lock()
	content, style := s.files[domain.RoleContent], s.files[domain.RoleStyle]
	if content == nil || style == nil {
		msg := domain.ValidationMessage
		s.request.ErrorMessage = &msg
		s.mu.Unlock()
		s.notify()
		return nil, domain.ErrMissingImages
	}
	if s.rejectWhileLoading && s.request.IsLoading {
		s.mu.Unlock()
		return nil, domain.ErrRequestInFlight
	}

	id := uuid.NewString()
	s.request = domain.RequestState{IsLoading: true}
	s.requestID = id
	s.requests++
	s.mu.Unlock()
	s.notify()

	slog.InfoContext(ctx, "スタイル変換リクエストを送信します", "request_id", id, "content", content.Name(), "style", style.Name())

	done := make(chan domain.RequestState, 1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(done)

		img, err := s.backend.Stylize(ctx, content, style)
		if err == nil && (img == nil || img.DataURI == "") {
			err = &domain.TransportError{Message: domain.GenericErrorMessage}
		}

		var final domain.RequestState
		if err != nil {
			msg := domain.UserMessage(err)
			final = domain.RequestState{ErrorMessage: &msg}
			slog.WarnContext(ctx, "スタイル変換に失敗しました", "request_id", id, "error", err)
		} else {
			uri := img.DataURI
			final = domain.RequestState{StylizedImage: &uri}
			slog.InfoContext(ctx, "スタイル変換が完了しました", "request_id", id, "mime_type", img.MimeType)
		}

		s.mu.Lock()
		s.request = final
		s.mu.Unlock()
		s.notify()

		done <- final.Clone()
	}()

	return done, nil
}

// Wait は実行中のプレビュー生成と変換リクエストがすべて終わるまで待ちます。
func (s *Session) Wait() {
	s.wg.Wait()
}

// State は現在の状態のスナップショットを返します。
func (s *Session) State() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() domain.State {
	st := domain.State{
		Files:     make(map[domain.Role]string, len(s.files)),
		Previews:  make(map[domain.Role]string, len(s.previews)),
		Request:   s.request.Clone(),
		RequestID: s.requestID,
		Requests:  s.requests,
	}
	for role, f := range s.files {
		st.Files[role] = f.Name()
	}
	for role, p := range s.previews {
		st.Previews[role] = p
	}
	return st
}

// notify は現在の状態を全 Observer に通知します。
// 通知は取得順に届きます。Observer の中から Select や Stylize を同期的に呼ぶとデッドロックします。
func (s *Session) notify() {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	if len(s.observers) == 0 {
		s.mu.Unlock()
		return
	}
	st := s.snapshotLocked()
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()

	for _, obs := range observers {
		obs(st)
	}
}
