package circuit

import (
	"fmt"
	"strings"

	"github.com/shouni/qcv-kit/pkg/domain"
)

// ToQASM は回路を OpenQASM 2.0 のテキストに変換します。
// レンダラーと同じく古典ビットは1つで、M0 はすべて c[0] に格納します。
func ToQASM(s Snapshotter) (string, error) {
	snap := s.Snapshot()
	if err := snap.Validate(); err != nil {
		return "", err
	}

	var body strings.Builder
	usesISWAP := false
	for i, layer := range snap.Layers {
		q := layer.Qubits
		if len(q) != domain.Arity(layer.Kind) {
			return "", domain.NewValidationError("gates", "layer %d: %s has %d operands", i, layer.Kind, len(q))
		}
		switch layer.Kind {
		case domain.GateH, domain.GateX, domain.GateY, domain.GateZ:
			fmt.Fprintf(&body, "%s q[%d];\n", strings.ToLower(string(layer.Kind)), q[0])
		case domain.GateCNOT:
			fmt.Fprintf(&body, "cx q[%d], q[%d];\n", q[1], q[0])
		case domain.GateToffoli:
			fmt.Fprintf(&body, "ccx q[%d], q[%d], q[%d];\n", q[1], q[2], q[0])
		case domain.GateSwap:
			fmt.Fprintf(&body, "swap q[%d], q[%d];\n", q[0], q[1])
		case domain.GateISWAP:
			usesISWAP = true
			fmt.Fprintf(&body, "iswap q[%d], q[%d];\n", q[0], q[1])
		case domain.GateM0:
			fmt.Fprintf(&body, "measure q[%d] -> c[0];\n", q[0])
		default:
			return "", domain.NewValidationError("gates", "layer %d: no QASM form for %s", i, layer.Kind)
		}
	}

	var sb strings.Builder
	sb.WriteString("OPENQASM 2.0;\n")
	sb.WriteString("include \"qelib1.inc\";\n")
	if usesISWAP {
		sb.WriteString("opaque iswap a, b;\n")
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "qreg q[%d];\n", snap.QubitCount)
	sb.WriteString("creg c[1];\n\n")
	sb.WriteString(body.String())
	return sb.String(), nil
}
