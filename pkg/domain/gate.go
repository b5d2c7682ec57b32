package domain

import (
	"slices"
	"strings"
)

// GateKind はレンダリングサービスが受け付けるゲート識別子です。
type GateKind string

const (
	GateH       GateKind = "H"
	GateX       GateKind = "X"
	GateY       GateKind = "Y"
	GateZ       GateKind = "Z"
	GateCNOT    GateKind = "CNOT"
	GateToffoli GateKind = "Toffoli"
	GateSwap    GateKind = "Swap"
	GateISWAP   GateKind = "ISWAP"
	GateM0      GateKind = "M0"
)

// OperandRole はゲートのオペランドが担う役割です。
type OperandRole string

const (
	RoleTarget   OperandRole = "target"
	RoleControl1 OperandRole = "control1"
	RoleControl2 OperandRole = "control2"
)

// GateSpec はゲート種別ごとのオペランド定義です。
type GateSpec struct {
	Kind  GateKind
	Label string
	Roles []OperandRole
}

// gateCatalog は実行時に変更されない静的テーブルです。
// ゲート種別の追加はここへのエントリ追加だけで完結します。
var gateCatalog = []GateSpec{
	{Kind: GateH, Label: "Hadamard (H)", Roles: []OperandRole{RoleTarget}},
	{Kind: GateX, Label: "Pauli-X (X)", Roles: []OperandRole{RoleTarget}},
	{Kind: GateY, Label: "Pauli-Y (Y)", Roles: []OperandRole{RoleTarget}},
	{Kind: GateZ, Label: "Pauli-Z (Z)", Roles: []OperandRole{RoleTarget}},
	{Kind: GateCNOT, Label: "CNOT", Roles: []OperandRole{RoleTarget, RoleControl1}},
	{Kind: GateToffoli, Label: "Toffoli", Roles: []OperandRole{RoleTarget, RoleControl1, RoleControl2}},
	{Kind: GateSwap, Label: "SWAP", Roles: []OperandRole{RoleTarget, RoleControl1}},
	{Kind: GateISWAP, Label: "ISWAP", Roles: []OperandRole{RoleTarget, RoleControl1}},
	{Kind: GateM0, Label: "M0", Roles: []OperandRole{RoleTarget}},
}

func lookupSpec(kind GateKind) (GateSpec, bool) {
	for _, spec := range gateCatalog {
		if spec.Kind == kind {
			return spec, true
		}
	}
	return GateSpec{}, false
}

// RoleList は kind のオペランド役割を、オペランドを読み取る順序で返します。
// 戻り値はコピーなので、呼び出し側が変更してもカタログには影響しません。
// 未知の kind には nil を返します。
func RoleList(kind GateKind) []OperandRole {
	spec, ok := lookupSpec(kind)
	if !ok {
		return nil
	}
	return slices.Clone(spec.Roles)
}

// Arity は kind が必要とするオペランド数です。
func Arity(kind GateKind) int {
	spec, ok := lookupSpec(kind)
	if !ok {
		return 0
	}
	return len(spec.Roles)
}

// Valid は kind がカタログに登録されているかを返します。
func (k GateKind) Valid() bool {
	_, ok := lookupSpec(k)
	return ok
}

func (k GateKind) String() string { return string(k) }

// Label は表示用の名前です。
func (k GateKind) Label() string {
	if spec, ok := lookupSpec(k); ok {
		return spec.Label
	}
	return string(k)
}

// GateKinds はカタログ順に全ゲート種別を返します。
func GateKinds() []GateKind {
	kinds := make([]GateKind, 0, len(gateCatalog))
	for _, spec := range gateCatalog {
		kinds = append(kinds, spec.Kind)
	}
	return kinds
}

// ParseGateKind は文字列をゲート種別に変換します。
// 完全一致を優先し、見つからなければ大文字小文字を無視して照合します（"SWAP" → Swap）。
func ParseGateKind(s string) (GateKind, error) {
	name := strings.TrimSpace(s)
	if k := GateKind(name); k.Valid() {
		return k, nil
	}
	for _, spec := range gateCatalog {
		if strings.EqualFold(string(spec.Kind), name) {
			return spec.Kind, nil
		}
	}
	return "", NewValidationError("gate", "unknown gate kind %q", s)
}
