package utils

import (
	"strconv"
	"strings"
)

// ParseIndex はフォーム入力の文字列を整数に変換します。
// 空文字や空白のみの入力は 0 として扱わず、ok=false を返します。
func ParseIndex(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// InRange は 0 <= v < size を満たすかを返します。
func InRange(v, size int) bool {
	return v >= 0 && v < size
}

// DereferenceInt は *int を安全にデリファレンスします。
// nil の場合は 0 を返します。
func DereferenceInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
