package render

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shouni/qcv-kit/pkg/circuit"
	"github.com/shouni/qcv-kit/pkg/config"
	"github.com/shouni/qcv-kit/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// renderServer はリクエスト回数と最後のボディを記録するテスト用サービスです。
type renderServer struct {
	*httptest.Server
	hits     atomic.Int32
	lastBody atomic.Value
}

func newRenderServer(t *testing.T, handler http.HandlerFunc) *renderServer {
	t.Helper()
	rs := &renderServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.hits.Add(1)
		body, _ := io.ReadAll(r.Body)
		rs.lastBody.Store(string(body))
		handler(w, r)
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *renderServer) config() config.Config {
	cfg := config.Default()
	cfg.BaseURL = rs.URL
	cfg.Timeout = 5 * time.Second
	return cfg
}

func TestNewDefaultClient_RenderCircuit(t *testing.T) {
	ctx := context.Background()

	t.Run("ローカルのサービスに回路を1回だけ送信する", func(t *testing.T) {
		srv := newRenderServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/circuit", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			_, _ = w.Write([]byte(`{"image_url":"http://host/static/circuit_1.png"}`))
		})
		client, err := NewDefaultClient(srv.config())
		require.NoError(t, err)

		c := circuit.New()
		require.NoError(t, c.SetQubitCount(3))
		_, err = c.AddGate(domain.GateCNOT, 1, 0)
		require.NoError(t, err)
		_, err = c.AddGate(domain.GateH, 2)
		require.NoError(t, err)

		res, err := client.RenderCircuit(ctx, c)
		require.NoError(t, err)
		assert.Equal(t, "http://host/static/circuit_1.png", res.ImageReference)
		assert.Equal(t, int32(1), srv.hits.Load())
		assert.JSONEq(t,
			`{"qubit_no":3,"gates":[{"name":"CNOT","qubits":[1,0]},{"name":"H","qubits":[2]}]}`,
			srv.lastBody.Load().(string))
	})

	t.Run("5xx はリトライせず ResponseError として返す", func(t *testing.T) {
		srv := newRenderServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"boom"}`))
		})
		client, err := NewDefaultClient(srv.config())
		require.NoError(t, err)

		_, err = client.RenderCircuit(ctx, newTestCircuit(t))
		require.Error(t, err)
		assert.Equal(t, int32(1), srv.hits.Load(), "失敗したリクエストを再送してはいけない")

		var respErr *domain.ResponseError
		require.True(t, errors.As(err, &respErr))
		assert.Equal(t, EndpointCircuit, respErr.Endpoint)
		assert.ErrorIs(t, err, domain.ErrServiceFailure)
		assert.Contains(t, err.Error(), "boom")

		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	})

	t.Run("プライベートホストを許可しない設定ではループバックに送信しない", func(t *testing.T) {
		srv := newRenderServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"image_url":"http://host/static/circuit_1.png"}`))
		})
		cfg := srv.config()
		cfg.AllowPrivateHosts = false
		client, err := NewDefaultClient(cfg)
		require.NoError(t, err)

		_, err = client.RenderCircuit(ctx, newTestCircuit(t))
		var tErr *domain.TransportError
		require.True(t, errors.As(err, &tErr))
		assert.Zero(t, srv.hits.Load())
	})
}

func TestNewDefaultClient_RenderDynamics(t *testing.T) {
	srv := newRenderServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dynamics", r.URL.Path)
		_, _ = w.Write([]byte(`{"image_url":"http://host/static/dynamics_1.png"}`))
	})
	client, err := NewDefaultClient(srv.config())
	require.NoError(t, err)

	res, err := client.RenderDynamics(context.Background(), domain.DynamicsRequest{Delta: 6.28, Beta: 0.5})
	require.NoError(t, err)
	assert.Equal(t, "http://host/static/dynamics_1.png", res.ImageReference)
	assert.JSONEq(t, `{"delta":6.28,"beta":0.5}`, srv.lastBody.Load().(string))
}

func TestNewDefaultClient_Download(t *testing.T) {
	ctx := context.Background()
	png := pngBytes(t)

	srv := newRenderServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/download/circuit_1.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(png)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Not Found"}`))
		}
	})
	client, err := NewDefaultClient(srv.config())
	require.NoError(t, err)

	t.Run("ダウンロード用 URL から画像を取得する", func(t *testing.T) {
		img, err := client.Download(ctx, srv.URL+"/static/circuit_1.png")
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.MimeType)
		assert.Equal(t, srv.URL+"/download/circuit_1.png", img.SourceURL)
	})

	t.Run("存在しない画像は ResponseError", func(t *testing.T) {
		before := srv.hits.Load()
		_, err := client.Download(ctx, srv.URL+"/static/missing.png")
		var respErr *domain.ResponseError
		require.True(t, errors.As(err, &respErr))
		assert.Equal(t, EndpointDownload, respErr.Endpoint)

		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
		assert.Equal(t, before+1, srv.hits.Load())
	})
}
