package domain

// RequestState はスタイル変換リクエストの表示用状態です。
// 完了後は StylizedImage と ErrorMessage のどちらか一方だけが非 nil になります。
type RequestState struct {
	IsLoading     bool
	ErrorMessage  *string
	StylizedImage *string
}

// Done は完了済み（成功または失敗）の状態かどうかを返します。
func (s RequestState) Done() bool {
	return !s.IsLoading && ((s.StylizedImage == nil) != (s.ErrorMessage == nil))
}

// Idle はリクエスト前の初期状態かどうかを返します。
func (s RequestState) Idle() bool {
	return !s.IsLoading && s.StylizedImage == nil && s.ErrorMessage == nil
}

// Clone はポインタが共有されないコピーを返します。
func (s RequestState) Clone() RequestState {
	out := RequestState{IsLoading: s.IsLoading}
	if s.ErrorMessage != nil {
		msg := *s.ErrorMessage
		out.ErrorMessage = &msg
	}
	if s.StylizedImage != nil {
		img := *s.StylizedImage
		out.StylizedImage = &img
	}
	return out
}

// State はプレゼンテーション層に渡すセッション全体のスナップショットです。
type State struct {
	Files     map[Role]string // ロールごとの選択ファイル名
	Previews  map[Role]string // ロールごとのプレビュー (data URI)
	Request   RequestState
	RequestID string // 最後に開始したリクエストの ID
	Requests  int    // 送信したリクエスト数
}

// Preview は指定ロールのプレビューを返します。
func (s State) Preview(role Role) (string, bool) {
	p, ok := s.Previews[role]
	return p, ok
}
