package render

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/shouni/qcv-kit/pkg/circuit"
	"github.com/shouni/qcv-kit/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCircuitRequest(t *testing.T) {
	t.Run("レイヤー順を保ったままワイヤー形式に変換する", func(t *testing.T) {
		c := circuit.New()
		require.NoError(t, c.SetQubitCount(3))
		_, err := c.AddGate(domain.GateCNOT, 1, 0)
		require.NoError(t, err)
		_, err = c.AddGate(domain.GateH, 2)
		require.NoError(t, err)

		req, err := BuildCircuitRequest(c)
		require.NoError(t, err)

		got, err := json.Marshal(req)
		require.NoError(t, err)
		assert.JSONEq(t, `{"qubit_no":3,"gates":[{"name":"CNOT","qubits":[1,0]},{"name":"H","qubits":[2]}]}`, string(got))
	})

	t.Run("レイヤーがなくても gates は空配列", func(t *testing.T) {
		c := circuit.New()
		require.NoError(t, c.SetQubitCount(1))

		req, err := BuildCircuitRequest(c)
		require.NoError(t, err)
		got, _ := json.Marshal(req)
		assert.JSONEq(t, `{"qubit_no":1,"gates":[]}`, string(got))
	})

	t.Run("量子ビット数未設定は ValidationError", func(t *testing.T) {
		_, err := BuildCircuitRequest(circuit.New())
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("壊れたスナップショットは validator で弾く", func(t *testing.T) {
		snap := circuit.Snapshot{
			QubitCount: 2,
			HasQubits:  true,
			Layers:     []domain.GatePlacement{{Kind: domain.GateH, Qubits: []int{-1}}},
		}
		_, err := BuildCircuitRequest(snap)
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	})
}

func TestBuildDynamicsRequest(t *testing.T) {
	req, err := BuildDynamicsRequest(1.5, 0.2)
	require.NoError(t, err)
	got, _ := json.Marshal(req)
	assert.JSONEq(t, `{"delta":1.5,"beta":0.2}`, string(got))

	_, err = BuildDynamicsRequest(math.NaN(), 0)
	assert.True(t, domain.IsValidation(err))
	_, err = BuildDynamicsRequest(0, math.Inf(1))
	assert.True(t, domain.IsValidation(err))
}

func TestParseRenderResponse(t *testing.T) {
	t.Run("正常系", func(t *testing.T) {
		res, err := ParseRenderResponse([]byte(`{"image_url":"https://host/static/circuit_a.png"}`))
		require.NoError(t, err)
		assert.Equal(t, "https://host/static/circuit_a.png", res.ImageReference)
	})

	t.Run("到達可能性は確認しない", func(t *testing.T) {
		res, err := ParseRenderResponse([]byte(`{"image_url":"not a url"}`))
		require.NoError(t, err)
		assert.Equal(t, "not a url", res.ImageReference)
	})

	t.Run("image_url がない場合は ResponseError", func(t *testing.T) {
		for _, raw := range []string{`{}`, `{"image_url":""}`, `null`} {
			_, err := ParseRenderResponse([]byte(raw))
			var respErr *domain.ResponseError
			require.True(t, errors.As(err, &respErr), raw)
			assert.ErrorIs(t, err, domain.ErrMissingImageReference)
			assert.False(t, domain.IsValidation(err))
		}
	})

	t.Run("サービスのエラーメッセージを含める", func(t *testing.T) {
		_, err := ParseRenderResponse([]byte(`{"error":"list index out of range"}`))
		assert.ErrorIs(t, err, domain.ErrMissingImageReference)
		assert.Contains(t, err.Error(), "list index out of range")
	})

	t.Run("JSON でない応答", func(t *testing.T) {
		_, err := ParseRenderResponse([]byte(`<html>502</html>`))
		var respErr *domain.ResponseError
		assert.True(t, errors.As(err, &respErr))
		assert.NotErrorIs(t, err, domain.ErrMissingImageReference)
	})
}

func TestToDownloadReference(t *testing.T) {
	t.Run("/static/ を /download/ に置き換える", func(t *testing.T) {
		got, err := ToDownloadReference("http://host/static/img/123.png")
		require.NoError(t, err)
		assert.Equal(t, "http://host/download/img/123.png", got)
	})

	t.Run("スキームとホストは保持する", func(t *testing.T) {
		got, err := ToDownloadReference("https://quantum-circuit-visualiser.onrender.com/static/circuit_x.png")
		require.NoError(t, err)
		assert.Equal(t, "https://quantum-circuit-visualiser.onrender.com/download/circuit_x.png", got)
	})

	t.Run("空文字は変換前に拒否する", func(t *testing.T) {
		_, err := ToDownloadReference("")
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("/static/ を含まない参照は拒否する", func(t *testing.T) {
		_, err := ToDownloadReference("http://host/img/123.png")
		assert.True(t, domain.IsValidation(err))
	})
}
