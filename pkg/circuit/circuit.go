package circuit

import (
	"slices"

	"github.com/shouni/qcv-kit/pkg/domain"
	"github.com/shouni/qcv-kit/pkg/utils"
)

const errQubitCount = "qubit count must be a positive integer"

// defaultOperand はフォームの初期値です。
const defaultOperand = "0"

// Operands はオペランド入力欄の値です。値はフォームから受け取った生の文字列です。
type Operands struct {
	Target   string
	Control1 string
	Control2 string
}

// DefaultOperands はリセット直後の入力欄の状態です。
func DefaultOperands() Operands {
	return Operands{Target: defaultOperand, Control1: defaultOperand, Control2: defaultOperand}
}

// Value は役割に対応する入力値を返します。
func (o Operands) Value(role domain.OperandRole) string {
	switch role {
	case domain.RoleTarget:
		return o.Target
	case domain.RoleControl1:
		return o.Control1
	case domain.RoleControl2:
		return o.Control2
	default:
		return ""
	}
}

// Circuit は構築中の量子回路です。単一セッションが所有し、共有されません。
type Circuit struct {
	qubitCount *int
	layers     []domain.GatePlacement
	operands   Operands
}

// New は空の回路（量子ビット数未設定、レイヤーなし）を返します。
func New() *Circuit {
	return &Circuit{operands: DefaultOperands()}
}

// SetQubitCount は量子ビット数を設定します。n < 1 は拒否され、状態は変わりません。
func (c *Circuit) SetQubitCount(n int) error {
	if n < 1 {
		return domain.NewValidationError("qubit_no", errQubitCount)
	}
	c.qubitCount = &n
	return nil
}

// SetQubitCountInput はフォーム入力の文字列から量子ビット数を設定します。
func (c *Circuit) SetQubitCountInput(raw string) error {
	n, ok := utils.ParseIndex(raw)
	if !ok {
		return domain.NewValidationError("qubit_no", errQubitCount)
	}
	return c.SetQubitCount(n)
}

// SyncQubitCountInput は入力欄の表示どおりに量子ビット数を反映します。
// 不正な入力では量子ビット数を未設定に戻したうえで ValidationError を返すため、
// 入力が直るまで追加やレンダリングは拒否されます。レイヤーは保持されます。
func (c *Circuit) SyncQubitCountInput(raw string) error {
	if err := c.SetQubitCountInput(raw); err != nil {
		c.qubitCount = nil
		return err
	}
	return nil
}

// ClearQubitCount は量子ビット数を未設定に戻します。レイヤーは保持されます。
func (c *Circuit) ClearQubitCount() {
	c.qubitCount = nil
}

// QubitCount は量子ビット数と、それが設定済みかを返します。
func (c *Circuit) QubitCount() (int, bool) {
	return utils.DereferenceInt(c.qubitCount), c.qubitCount != nil
}

// checkQubitCount は値が外部から来るため、追加やレンダリングのたびに呼ばれます。
func (c *Circuit) checkQubitCount() (int, error) {
	n, ok := c.QubitCount()
	if !ok || n < 1 {
		return 0, domain.NewValidationError("qubit_no", errQubitCount)
	}
	return n, nil
}

// Operands は最後に入力されたオペランドを返します。
func (c *Circuit) Operands() Operands {
	return c.operands
}

// SetOperands は入力欄の値を保持します。検証は AddLayer 時に行われます。
func (c *Circuit) SetOperands(ops Operands) {
	c.operands = ops
}

// AddLayer は kind の RoleList が示す順序でオペランドを読み取り、レイヤーを追加します。
// 解析または範囲チェックに失敗した場合は何も追加しません。
func (c *Circuit) AddLayer(kind domain.GateKind, ops Operands) ([]domain.GatePlacement, error) {
	n, err := c.checkQubitCount()
	if err != nil {
		return nil, err
	}
	roles := domain.RoleList(kind)
	if roles == nil {
		return nil, domain.NewValidationError("gate", "unknown gate kind %q", kind)
	}

	qubits := make([]int, 0, len(roles))
	for _, role := range roles {
		raw := ops.Value(role)
		q, ok := utils.ParseIndex(raw)
		if !ok {
			return nil, domain.NewValidationError(string(role), "%q is not a qubit index", raw)
		}
		if !utils.InRange(q, n) {
			return nil, domain.NewValidationError(string(role), "qubit %d out of range [0, %d]", q, n-1)
		}
		qubits = append(qubits, q)
	}

	c.operands = ops
	return c.appendLayer(kind, qubits), nil
}

// AddGate は RoleList の順序で並べた整数オペランドでレイヤーを追加します。
func (c *Circuit) AddGate(kind domain.GateKind, qubits ...int) ([]domain.GatePlacement, error) {
	n, err := c.checkQubitCount()
	if err != nil {
		return nil, err
	}
	roles := domain.RoleList(kind)
	if roles == nil {
		return nil, domain.NewValidationError("gate", "unknown gate kind %q", kind)
	}
	if len(qubits) != len(roles) {
		return nil, domain.NewValidationError("qubits", "%s takes %d operands, got %d", kind, len(roles), len(qubits))
	}
	for i, q := range qubits {
		if !utils.InRange(q, n) {
			return nil, domain.NewValidationError(string(roles[i]), "qubit %d out of range [0, %d]", q, n-1)
		}
	}

	return c.appendLayer(kind, slices.Clone(qubits)), nil
}

func (c *Circuit) appendLayer(kind domain.GateKind, qubits []int) []domain.GatePlacement {
	c.layers = append(c.layers, domain.GatePlacement{Kind: kind, Qubits: qubits})
	return c.Layers()
}

// RemoveAllLayers はレイヤーのみを消去します。
func (c *Circuit) RemoveAllLayers() {
	c.layers = nil
}

// Reset は回路を初期状態に戻します。
func (c *Circuit) Reset() {
	c.qubitCount = nil
	c.layers = nil
	c.operands = DefaultOperands()
}

// Layers は追加順のレイヤーのコピーを返します。
func (c *Circuit) Layers() []domain.GatePlacement {
	return cloneLayers(c.layers)
}

// Len はレイヤー数です。
func (c *Circuit) Len() int {
	return len(c.layers)
}

// Empty は量子ビット数が未設定かつレイヤーがない状態かを返します。
func (c *Circuit) Empty() bool {
	return c.qubitCount == nil && len(c.layers) == 0
}

func cloneLayers(in []domain.GatePlacement) []domain.GatePlacement {
	if in == nil {
		return []domain.GatePlacement{}
	}
	out := make([]domain.GatePlacement, len(in))
	for i, l := range in {
		out[i] = domain.GatePlacement{Kind: l.Kind, Qubits: slices.Clone(l.Qubits)}
	}
	return out
}
