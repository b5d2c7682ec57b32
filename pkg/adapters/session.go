package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shouni/qcv-kit/pkg/circuit"
	"github.com/shouni/qcv-kit/pkg/domain"
	"github.com/shouni/qcv-kit/pkg/render"
)

// ErrSuperseded は、より新しいリクエストが発行されたために結果が破棄されたことを示します。
var ErrSuperseded = errors.New("render superseded by a newer request")

// Renderer はレンダリングサービスのクライアントを抽象化するインターフェースです。
// *render.Client はこれを満たします。
type Renderer interface {
	RenderCircuit(ctx context.Context, s circuit.Snapshotter) (domain.RenderResult, error)
	RenderDynamics(ctx context.Context, req domain.DynamicsRequest) (domain.RenderResult, error)
	Download(ctx context.Context, imageReference string) (*domain.Image, error)
}

var _ Renderer = (*render.Client)(nil)

// State は回路構築セッションの状態です。
type State int

const (
	StateEmpty State = iota
	StateConfiguring
	StateRendered
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateConfiguring:
		return "configuring"
	case StateRendered:
		return "rendered"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// slot は1種類のレンダリング結果と、それを更新できる最新リクエストの ID を保持します。
type slot struct {
	result domain.RenderResult
	seq    uint64
	cancel context.CancelFunc
}

// begin は新しいリクエスト ID を発行し、古いリクエストをキャンセルします。
func (s *slot) begin(ctx context.Context) (context.Context, uint64) {
	s.invalidate()
	rctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	return rctx, s.seq
}

// invalidate は処理中のリクエストをキャンセルし、その結果が反映されないようにします。
func (s *slot) invalidate() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq++
}

// Session はプレゼンテーション層から呼ばれるコマンドの窓口です。
// 回路の所有者は1人ですが、レンダリングは別ゴルーチンで完了しうるためロックで保護します。
type Session struct {
	mu       sync.Mutex
	circuit  *circuit.Circuit
	renderer Renderer
	rendered bool

	circuitSlot  slot
	dynamicsSlot slot
}

// NewSession は空の回路でセッションを開始します。
func NewSession(renderer Renderer) (*Session, error) {
	if renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	return &Session{circuit: circuit.New(), renderer: renderer}, nil
}

// SetQubitCount は量子ビット数を設定します。
func (s *Session) SetQubitCount(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutate(func(c *circuit.Circuit) error { return c.SetQubitCount(n) })
}

// SetQubitCountInput はフォーム入力の文字列から量子ビット数を設定します。
func (s *Session) SetQubitCountInput(raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutate(func(c *circuit.Circuit) error { return c.SetQubitCountInput(raw) })
}

// SyncQubitCountInput は入力欄の値をそのまま反映します。不正な値では量子ビット数が未設定になります。
func (s *Session) SyncQubitCountInput(raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.circuit.SyncQubitCountInput(raw)
	s.rendered = false
	return err
}

// ClearQubitCount は量子ビット数の入力がクリアされたことを反映します。
func (s *Session) ClearQubitCount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.mutate(func(c *circuit.Circuit) error { c.ClearQubitCount(); return nil })
}

// AddLayer はフォームの入力値でレイヤーを追加し、更新後のレイヤー列を返します。
func (s *Session) AddLayer(kind domain.GateKind, ops circuit.Operands) ([]domain.GatePlacement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var layers []domain.GatePlacement
	err := s.mutate(func(c *circuit.Circuit) (err error) {
		layers, err = c.AddLayer(kind, ops)
		return err
	})
	return layers, err
}

// AddGate は整数のオペランドでレイヤーを追加します。
func (s *Session) AddGate(kind domain.GateKind, qubits ...int) ([]domain.GatePlacement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var layers []domain.GatePlacement
	err := s.mutate(func(c *circuit.Circuit) (err error) {
		layers, err = c.AddGate(kind, qubits...)
		return err
	})
	return layers, err
}

// RemoveAllLayers はレイヤーのみを消去します。
func (s *Session) RemoveAllLayers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.mutate(func(c *circuit.Circuit) error { c.RemoveAllLayers(); return nil })
}

// mutate は成功した変更のみ Rendered から Configuring に戻します。
// 直前のレンダリング結果は次のレンダリングまで保持されます。
func (s *Session) mutate(fn func(c *circuit.Circuit) error) error {
	if err := fn(s.circuit); err != nil {
		return err
	}
	s.rendered = false
	return nil
}

// Reset はどの状態からでも Empty に戻します。処理中のレンダリングは破棄されます。
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.circuit.Reset()
	s.circuitSlot.invalidate()
	s.circuitSlot.result = domain.RenderResult{}
	s.rendered = false
}

// Cancel は処理中の回路レンダリングをキャンセルします。保持中の結果は残ります。
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.circuitSlot.invalidate()
}

// State は現在の状態を返します。
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.rendered:
		return StateRendered
	case s.circuit.Empty() && s.circuitSlot.result.Empty():
		return StateEmpty
	default:
		return StateConfiguring
	}
}

// Layers は現在のレイヤー列のコピーです。
func (s *Session) Layers() []domain.GatePlacement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.circuit.Layers()
}

// QubitCount は量子ビット数と、それが設定済みかを返します。
func (s *Session) QubitCount() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.circuit.QubitCount()
}

// Operands は最後に入力されたオペランドです。
func (s *Session) Operands() circuit.Operands {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.circuit.Operands()
}

// Result は保持中の回路図の画像参照です。
func (s *Session) Result() domain.RenderResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.circuitSlot.result
}

// DynamicsResult は保持中のダイナミクスプロットの画像参照です。
func (s *Session) DynamicsResult() domain.RenderResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dynamicsSlot.result
}

// QASM は現在の回路を OpenQASM 2.0 で返します。
func (s *Session) QASM() (string, error) {
	s.mu.Lock()
	snap := s.circuit.Snapshot()
	s.mu.Unlock()
	return circuit.ToQASM(snap)
}

// Render は現在の回路のスナップショットをレンダリングします。
// 完了時に、より新しいリクエストが発行されていれば結果を反映せず ErrSuperseded を返します。
// 失敗した場合も保持中の結果はそのまま残ります。
func (s *Session) Render(ctx context.Context) (domain.RenderResult, error) {
	s.mu.Lock()
	snap := s.circuit.Snapshot()
	if err := snap.Validate(); err != nil {
		s.mu.Unlock()
		return domain.RenderResult{}, err
	}
	rctx, id := s.circuitSlot.begin(ctx)
	s.mu.Unlock()

	res, err := s.renderer.RenderCircuit(rctx, snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.circuitSlot.seq {
		slog.DebugContext(ctx, "古いレンダリング結果を破棄しました", "request_seq", id, "latest_seq", s.circuitSlot.seq)
		return domain.RenderResult{}, ErrSuperseded
	}
	s.circuitSlot.cancel()
	s.circuitSlot.cancel = nil
	if err != nil {
		return domain.RenderResult{}, err
	}
	s.circuitSlot.result = res
	s.rendered = true
	return res, nil
}

// RenderDynamics はダイナミクスのプロットをレンダリングします。回路の状態とは独立しています。
func (s *Session) RenderDynamics(ctx context.Context, delta, beta float64) (domain.RenderResult, error) {
	s.mu.Lock()
	rctx, id := s.dynamicsSlot.begin(ctx)
	s.mu.Unlock()

	res, err := s.renderer.RenderDynamics(rctx, domain.DynamicsRequest{Delta: delta, Beta: beta})

	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.dynamicsSlot.seq {
		return domain.RenderResult{}, ErrSuperseded
	}
	s.dynamicsSlot.cancel()
	s.dynamicsSlot.cancel = nil
	if err != nil {
		return domain.RenderResult{}, err
	}
	s.dynamicsSlot.result = res
	return res, nil
}

// Download は保持中の回路図をダウンロードします。
func (s *Session) Download(ctx context.Context) (*domain.Image, error) {
	return s.download(ctx, s.Result())
}

// DownloadReference は保持中の回路図のダウンロード用 URL を返します。
func (s *Session) DownloadReference() (string, error) {
	return downloadReference(s.Result())
}

// DynamicsDownload は保持中のダイナミクスプロットをダウンロードします。
func (s *Session) DynamicsDownload(ctx context.Context) (*domain.Image, error) {
	return s.download(ctx, s.DynamicsResult())
}

// DynamicsDownloadReference は保持中のダイナミクスプロットのダウンロード用 URL を返します。
func (s *Session) DynamicsDownloadReference() (string, error) {
	return downloadReference(s.DynamicsResult())
}

func (s *Session) download(ctx context.Context, res domain.RenderResult) (*domain.Image, error) {
	if res.Empty() {
		return nil, domain.NewValidationError("image_url", "no image to download")
	}
	return s.renderer.Download(ctx, res.ImageReference)
}

func downloadReference(res domain.RenderResult) (string, error) {
	if res.Empty() {
		return "", domain.NewValidationError("image_url", "no image to download")
	}
	return render.ToDownloadReference(res.ImageReference)
}
