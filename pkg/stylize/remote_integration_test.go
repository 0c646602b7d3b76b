package stylize_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/style-transfer-kit/pkg/adapters"
	"github.com/shouni/style-transfer-kit/pkg/domain"
	"github.com/shouni/style-transfer-kit/pkg/source"
	"github.com/shouni/style-transfer-kit/pkg/stylize"
)

func newSession(t *testing.T, status int, body string) (*stylize.Session, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	backend, err := adapters.NewRemoteStylizer(srv.URL+"/stylize", srv.Client())
	require.NoError(t, err)
	s, err := stylize.NewSession(backend)
	require.NoError(t, err)
	t.Cleanup(s.Wait)
	return s, &calls
}

func run(t *testing.T, s *stylize.Session) domain.RequestState {
	t.Helper()
	s.SelectContent(source.Bytes("content.png", []byte("c")))
	s.SelectStyle(source.Bytes("style.png", []byte("s")))

	ch, err := s.Stylize(context.Background())
	require.NoError(t, err)
	select {
	case st := <-ch:
		return st
	case <-time.After(5 * time.Second):
		t.Fatal("timeout")
	}
	return domain.RequestState{}
}

func TestSessionWithRemoteStylizer(t *testing.T) {
	t.Run("stylized_image=abc123 は JPEG の data URI になる", func(t *testing.T) {
		s, calls := newSession(t, http.StatusOK, `{"stylized_image":"abc123"}`)
		st := run(t, s)

		require.NotNil(t, st.StylizedImage)
		assert.Equal(t, "data:image/jpeg;base64,abc123", *st.StylizedImage)
		assert.Nil(t, st.ErrorMessage)
		assert.False(t, st.IsLoading)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run(`{"error":"bad image"} はそのまま表示される`, func(t *testing.T) {
		s, _ := newSession(t, http.StatusBadRequest, `{"error":"bad image"}`)
		st := run(t, s)

		require.NotNil(t, st.ErrorMessage)
		assert.Equal(t, "bad image", *st.ErrorMessage)
		assert.Nil(t, st.StylizedImage)
	})

	t.Run("error フィールドのない失敗は既定メッセージ", func(t *testing.T) {
		s, _ := newSession(t, http.StatusServiceUnavailable, ``)
		st := run(t, s)

		require.NotNil(t, st.ErrorMessage)
		assert.Equal(t, "An error occurred while processing the images.", *st.ErrorMessage)
	})

	t.Run("画像が揃っていなければ通信しない", func(t *testing.T) {
		s, calls := newSession(t, http.StatusOK, `{"stylized_image":"abc123"}`)
		s.SelectContent(source.Bytes("content.png", []byte("c")))

		_, err := s.Stylize(context.Background())
		assert.ErrorIs(t, err, domain.ErrMissingImages)
		s.Wait()
		assert.Zero(t, calls.Load())
	})
}
