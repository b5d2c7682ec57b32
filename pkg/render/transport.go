package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"
)

// StatusError はサービスが 2xx 以外のステータスを返したことを示します。
// Body にはサービスが返したボディがそのまま入ります。
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("HTTPステータスコードエラー: %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTPステータスコードエラー: %d, 詳細: %s", e.StatusCode, bytes.TrimSpace(e.Body))
}

// singleShotTransport は go-http-kit のクライアントで各リクエストを1回だけ送信します。
// httpkit.Client の高レベル API はリトライを伴うため、Do と HandleResponse のみを使います。
type singleShotTransport struct {
	client         *httpkit.Client
	skipValidation bool
}

var _ Transport = (*singleShotTransport)(nil)

// newSingleShotTransport は allowPrivateHosts が false のとき、SSRF 検証付きのクライアントを構築します。
func newSingleShotTransport(timeout time.Duration, allowPrivateHosts bool) *singleShotTransport {
	return &singleShotTransport{
		client:         httpkit.New(timeout, httpkit.WithSkipNetworkValidation(allowPrivateHosts)),
		skipValidation: allowPrivateHosts,
	}
}

// PostJSONAndFetchBytes はデータを JSON として POST します。
func (t *singleShotTransport) PostJSONAndFetchBytes(ctx context.Context, url string, data any) ([]byte, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("JSONデータのシリアライズに失敗しました: %w", err)
	}
	req, err := t.newRequest(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return t.do(req)
}

// FetchBytes は GET リクエストを送信し、ボディを取得します。
func (t *singleShotTransport) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := t.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return t.do(req)
}

func (t *singleShotTransport) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	if !t.skipValidation {
		if ok, err := t.client.IsSafeURL(url); !ok {
			if err == nil {
				err = fmt.Errorf("URL '%s' へのアクセスはブロックされました", url)
			}
			return nil, fmt.Errorf("SSRF安全検証エラー: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエスト作成失敗 (method: %s, url: %s): %w", method, url, err)
	}
	req.Header.Set("User-Agent", httpkit.UserAgent)
	return req, nil
}

func (t *singleShotTransport) do(req *http.Request) ([]byte, error) {
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエスト失敗 (URL: %s): %w", req.URL.String(), err)
	}

	// HandleResponse は 5xx のボディをメッセージに埋め込んでしまうため、先に取り出す
	if resp.StatusCode >= 500 {
		body, err := httpkit.HandleLimitedResponse(resp, httpkit.MaxResponseBodySize)
		if err != nil {
			return nil, err
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: body}
	}

	body, err := httpkit.HandleResponse(resp)
	if err != nil {
		var nonRetryable *httpkit.NonRetryableHTTPError
		if errors.As(err, &nonRetryable) {
			return nil, &StatusError{StatusCode: nonRetryable.StatusCode, Body: nonRetryable.Body}
		}
		return nil, err
	}
	return body, nil
}
