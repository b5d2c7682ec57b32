package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shouni/go-http-kit/pkg/httpkit"

	"github.com/shouni/qcv-kit/pkg/circuit"
	"github.com/shouni/qcv-kit/pkg/config"
	"github.com/shouni/qcv-kit/pkg/domain"
	"github.com/shouni/qcv-kit/pkg/imgutil"
)

var _ Transport = (httpkit.ClientInterface)(nil)

// Client はレンダリングサービスへのリクエストと画像ダウンロードを担当します。
// リトライは行いません。失敗は一度だけ呼び出し元に返します。
type Client struct {
	cfg        config.Config
	httpClient Transport
	cache      ImageCacher
	metrics    *Metrics
}

// Option は Client の任意設定です。
type Option func(*Client)

// WithCache はダウンロード画像のキャッシュを設定します。
func WithCache(cache ImageCacher) Option {
	return func(c *Client) { c.cache = cache }
}

// WithMetrics は Prometheus メトリクスを設定します。
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient は依存関係を注入して Client を初期化します。
func NewClient(cfg config.Config, httpClient Transport, opts ...Option) (*Client, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	// cache と metrics は nil を許容
	c := &Client{cfg: cfg, httpClient: httpClient}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewDefaultClient は go-http-kit のクライアントで Client を初期化します。
// 各リクエストは1回だけ送信されます。AllowPrivateHosts が false のときは SSRF 検証が有効になります。
func NewDefaultClient(cfg config.Config, opts ...Option) (*Client, error) {
	return NewClient(cfg, newSingleShotTransport(cfg.Timeout, cfg.AllowPrivateHosts), opts...)
}

// RenderCircuit は回路のスナップショットを送信し、回路図の画像参照を受け取ります。
func (c *Client) RenderCircuit(ctx context.Context, s circuit.Snapshotter) (domain.RenderResult, error) {
	req, err := BuildCircuitRequest(s)
	if err != nil {
		return domain.RenderResult{}, err
	}
	return c.post(ctx, EndpointCircuit, c.cfg.CircuitURL(), req, "qubit_no", req.QubitNo, "gates", len(req.Gates))
}

// RenderDynamics は delta と beta を送信し、ダイナミクスのプロット画像参照を受け取ります。
func (c *Client) RenderDynamics(ctx context.Context, req domain.DynamicsRequest) (domain.RenderResult, error) {
	req, err := BuildDynamicsRequest(req.Delta, req.Beta)
	if err != nil {
		return domain.RenderResult{}, err
	}
	return c.post(ctx, EndpointDynamics, c.cfg.DynamicsURL(), req, "delta", req.Delta, "beta", req.Beta)
}

func (c *Client) post(ctx context.Context, endpoint, url string, body any, attrs ...any) (domain.RenderResult, error) {
	requestID := uuid.NewString()
	start := time.Now()
	slog.InfoContext(ctx, "レンダリングをリクエストします",
		append([]any{"endpoint", endpoint, "request_id", requestID}, attrs...)...)

	raw, err := c.httpClient.PostJSONAndFetchBytes(ctx, url, body)
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		c.metrics.observe(endpoint, outcomeResponseError, time.Since(start))
		slog.WarnContext(ctx, "レンダリングサービスがエラーを返しました", "endpoint", endpoint, "request_id", requestID,
			"status", statusErr.StatusCode, "error", err)
		return domain.RenderResult{}, &domain.ResponseError{Endpoint: endpoint, Err: statusFailure(statusErr)}
	}
	if err != nil {
		c.metrics.observe(endpoint, outcomeTransportError, time.Since(start))
		slog.WarnContext(ctx, "レンダリングサービスへの通信に失敗しました", "endpoint", endpoint, "request_id", requestID, "error", err)
		return domain.RenderResult{}, &domain.TransportError{Endpoint: endpoint, Err: err}
	}

	result, err := ParseRenderResponse(raw)
	if err != nil {
		var respErr *domain.ResponseError
		if errors.As(err, &respErr) {
			respErr.Endpoint = endpoint
		}
		c.metrics.observe(endpoint, outcomeResponseError, time.Since(start))
		slog.WarnContext(ctx, "レンダリング結果を解釈できませんでした", "endpoint", endpoint, "request_id", requestID, "error", err)
		return domain.RenderResult{}, err
	}

	c.metrics.observe(endpoint, outcomeSuccess, time.Since(start))
	slog.InfoContext(ctx, "レンダリングが完了しました", "endpoint", endpoint, "request_id", requestID,
		"image_url", result.ImageReference, "elapsed", time.Since(start))
	return result, nil
}

// Download は表示用の画像参照からダウンロード用 URL を導出して画像を取得します。
func (c *Client) Download(ctx context.Context, imageReference string) (*domain.Image, error) {
	downloadURL, err := ToDownloadReference(imageReference)
	if err != nil {
		return nil, err
	}
	start := time.Now()

	data, cached := c.cachedImage(ctx, downloadURL)
	if cached {
		c.metrics.observe(EndpointDownload, outcomeCacheHit, 0)
	} else {
		data, err = c.httpClient.FetchBytes(ctx, downloadURL)
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			c.metrics.observe(EndpointDownload, outcomeResponseError, time.Since(start))
			return nil, &domain.ResponseError{Endpoint: EndpointDownload, Err: statusFailure(statusErr)}
		}
		if err != nil {
			c.metrics.observe(EndpointDownload, outcomeTransportError, time.Since(start))
			slog.WarnContext(ctx, "画像の取得に失敗しました", "url", downloadURL, "error", err)
			return nil, &domain.TransportError{Endpoint: EndpointDownload, Err: err}
		}
	}

	info, err := imgutil.Inspect(data)
	if err != nil {
		c.metrics.observe(EndpointDownload, outcomeResponseError, time.Since(start))
		return nil, &domain.ResponseError{Endpoint: EndpointDownload, Err: err}
	}
	if !cached {
		c.metrics.observe(EndpointDownload, outcomeSuccess, time.Since(start))
		if c.cache != nil {
			c.cache.Set(downloadURL, data, c.cfg.CacheTTL)
		}
	}

	img := &domain.Image{
		Data:      data,
		MimeType:  info.MimeType,
		Width:     info.Width,
		Height:    info.Height,
		SourceURL: downloadURL,
	}

	if q := c.cfg.DownloadJPEGQuality; q > 0 && info.Format != "jpeg" {
		compressed, err := imgutil.CompressToJPEG(data, q)
		if err != nil {
			slog.WarnContext(ctx, "JPEGへの変換に失敗したため元の画像を返します", "url", downloadURL, "error", err)
			return img, nil
		}
		img.Data = compressed
		img.MimeType = "image/jpeg"
	}
	return img, nil
}

func (c *Client) cachedImage(ctx context.Context, key string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	cached, found := c.cache.Get(key)
	if !found {
		return nil, false
	}
	if data, ok := cached.([]byte); ok {
		return data, true
	}
	slog.WarnContext(ctx, "キャッシュデータが不正な型です", "url", key, "type", fmt.Sprintf("%T", cached))
	return nil, false
}
