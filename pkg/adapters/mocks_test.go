package adapters

import (
	"context"

	"github.com/shouni/qcv-kit/pkg/circuit"
	"github.com/shouni/qcv-kit/pkg/domain"
)

// mockRenderer は Renderer インターフェースのテスト用モックです。
type mockRenderer struct {
	renderFunc   func(ctx context.Context, snap circuit.Snapshot) (domain.RenderResult, error)
	dynamicsFunc func(ctx context.Context, req domain.DynamicsRequest) (domain.RenderResult, error)
	downloadFunc func(ctx context.Context, ref string) (*domain.Image, error)
}

func (m *mockRenderer) RenderCircuit(ctx context.Context, s circuit.Snapshotter) (domain.RenderResult, error) {
	if m.renderFunc != nil {
		return m.renderFunc(ctx, s.Snapshot())
	}
	return domain.RenderResult{ImageReference: "http://host/static/circuit.png"}, nil
}

func (m *mockRenderer) RenderDynamics(ctx context.Context, req domain.DynamicsRequest) (domain.RenderResult, error) {
	if m.dynamicsFunc != nil {
		return m.dynamicsFunc(ctx, req)
	}
	return domain.RenderResult{ImageReference: "http://host/static/dynamics.png"}, nil
}

func (m *mockRenderer) Download(ctx context.Context, ref string) (*domain.Image, error) {
	if m.downloadFunc != nil {
		return m.downloadFunc(ctx, ref)
	}
	return &domain.Image{SourceURL: ref}, nil
}

// blockingRenderer は release が閉じられるまで応答を返さないレンダラーを作ります。
func blockingRenderer(started chan<- circuit.Snapshot, release <-chan struct{}, ref string) func(ctx context.Context, snap circuit.Snapshot) (domain.RenderResult, error) {
	return func(ctx context.Context, snap circuit.Snapshot) (domain.RenderResult, error) {
		started <- snap
		<-release
		return domain.RenderResult{ImageReference: ref}, nil
	}
}
