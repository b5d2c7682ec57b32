package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"
)

// --- Mocks ---

type mockTransport struct {
	mu        sync.Mutex
	postFunc  func(ctx context.Context, url string, data any) ([]byte, error)
	fetchFunc func(ctx context.Context, url string) ([]byte, error)

	postedURL  string
	postedBody any
	fetchedURL string
	fetchCount int
}

func (m *mockTransport) PostJSONAndFetchBytes(ctx context.Context, url string, data any) ([]byte, error) {
	m.mu.Lock()
	m.postedURL = url
	m.postedBody = data
	m.mu.Unlock()
	if m.postFunc != nil {
		return m.postFunc(ctx, url, data)
	}
	return []byte(`{"image_url":"http://host/static/circuit_1.png"}`), nil
}

func (m *mockTransport) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	m.fetchedURL = url
	m.fetchCount++
	m.mu.Unlock()
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, url)
	}
	return nil, nil
}

type mockCache struct {
	data map[string]any
}

func (m *mockCache) Get(key string) (any, bool) {
	val, ok := m.data[key]
	return val, ok
}

func (m *mockCache) Set(key string, value any, d time.Duration) {
	m.data[key] = value
}

// pngBytes は 4x2 のテスト用 PNG を作成するヘルパー
func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.RGBA{0, 0, 0, 255})
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("failed to encode dummy image: %v", err)
	}
	return buf.Bytes()
}
