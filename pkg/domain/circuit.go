package domain

// GatePlacement は回路の1レイヤー（ゲート配置）です。
// Qubits の並びは Kind の RoleList と同じ順序です（CNOT なら [target, control1]）。
type GatePlacement struct {
	Kind   GateKind
	Qubits []int
}

// GateRequest はレンダリングサービスへ送る1ゲート分の表現です。
type GateRequest struct {
	Name   string `json:"name" validate:"required"`
	Qubits []int  `json:"qubits" validate:"min=1,max=3,dive,min=0"`
}

// CircuitRequest は POST /circuit のリクエストボディです。
type CircuitRequest struct {
	QubitNo int           `json:"qubit_no" validate:"min=1"`
	Gates   []GateRequest `json:"gates" validate:"dive"`
}

// DynamicsRequest は POST /dynamics のリクエストボディです。
type DynamicsRequest struct {
	Delta float64 `json:"delta"`
	Beta  float64 `json:"beta"`
}

// RenderResponse はサービスが返す JSON です。失敗時は Error のみが入ります。
type RenderResponse struct {
	ImageURL string `json:"image_url"`
	Error    string `json:"error,omitempty"`
}
