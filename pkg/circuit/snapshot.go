package circuit

import "github.com/shouni/qcv-kit/pkg/domain"

// Snapshot はある時点の回路の不変コピーです。
// レンダリング中に回路が変更されても、リクエストはこのコピーに紐づきます。
type Snapshot struct {
	QubitCount int
	HasQubits  bool
	Layers     []domain.GatePlacement
}

// Snapshotter は Snapshot を提供できる型です。
type Snapshotter interface {
	Snapshot() Snapshot
}

// Snapshot は現在の状態をコピーします。
func (c *Circuit) Snapshot() Snapshot {
	n, ok := c.QubitCount()
	return Snapshot{QubitCount: n, HasQubits: ok, Layers: cloneLayers(c.layers)}
}

// Snapshot を Snapshotter として扱えるようにします。
func (s Snapshot) Snapshot() Snapshot { return s }

// Validate はレンダリング可能な状態かを検証します。
func (s Snapshot) Validate() error {
	if !s.HasQubits || s.QubitCount < 1 {
		return domain.NewValidationError("qubit_no", errQubitCount)
	}
	return nil
}
