package render

import (
	"context"
	"time"
)

const (
	// StaticSegment はサービスが画像を配信するパスです。
	StaticSegment = "/static/"
	// DownloadSegment は添付ファイルとして画像を返すパスです。
	DownloadSegment = "/download/"

	EndpointCircuit  = "circuit"
	EndpointDynamics = "dynamics"
	EndpointDownload = "download"
)

// Transport はレンダリングサービスとの HTTP 通信を担います。
// httpkit.ClientInterface もこれを満たしますが、失敗時にリトライします。
// NewDefaultClient はリトライしない実装を使います。
type Transport interface {
	PostJSONAndFetchBytes(ctx context.Context, url string, data any) ([]byte, error)
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// ImageCacher は、ダウンロードした画像をキャッシュするためのインターフェースです。
type ImageCacher interface {
	// Get は、指定されたキーに紐づくアイテムを取得します。
	Get(key string) (any, bool)
	// Set は、指定されたキーと値、有効期限でアイテムを保存します。
	Set(key string, value any, d time.Duration)
}
