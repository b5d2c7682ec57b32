package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/shouni/qcv-kit/pkg/circuit"
	"github.com/shouni/qcv-kit/pkg/domain"
)

var validate = validator.New()

// BuildCircuitRequest は回路を POST /circuit のボディに変換します。
// 量子ビット数が未設定・不正な回路からはリクエストを作りません。
func BuildCircuitRequest(s circuit.Snapshotter) (domain.CircuitRequest, error) {
	snap := s.Snapshot()
	if err := snap.Validate(); err != nil {
		return domain.CircuitRequest{}, err
	}

	gates := make([]domain.GateRequest, 0, len(snap.Layers))
	for _, layer := range snap.Layers {
		gates = append(gates, domain.GateRequest{
			Name:   string(layer.Kind),
			Qubits: append([]int(nil), layer.Qubits...),
		})
	}
	req := domain.CircuitRequest{QubitNo: snap.QubitCount, Gates: gates}

	if err := validate.Struct(req); err != nil {
		return domain.CircuitRequest{}, toValidationError(err)
	}
	return req, nil
}

// BuildDynamicsRequest は POST /dynamics のボディを作ります。
func BuildDynamicsRequest(delta, beta float64) (domain.DynamicsRequest, error) {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return domain.DynamicsRequest{}, domain.NewValidationError("delta", "must be a finite number")
	}
	if math.IsNaN(beta) || math.IsInf(beta, 0) {
		return domain.DynamicsRequest{}, domain.NewValidationError("beta", "must be a finite number")
	}
	return domain.DynamicsRequest{Delta: delta, Beta: beta}, nil
}

// ParseRenderResponse はサービスの応答から画像参照を取り出します。
// 参照先に到達できるかは確認しません。
func ParseRenderResponse(raw []byte) (domain.RenderResult, error) {
	var resp domain.RenderResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.RenderResult{}, &domain.ResponseError{Err: fmt.Errorf("malformed JSON: %w", err)}
	}
	if resp.ImageURL == "" {
		if resp.Error != "" {
			return domain.RenderResult{}, &domain.ResponseError{Err: fmt.Errorf("%w (service error: %s)", domain.ErrMissingImageReference, resp.Error)}
		}
		return domain.RenderResult{}, &domain.ResponseError{Err: domain.ErrMissingImageReference}
	}
	return domain.RenderResult{ImageReference: resp.ImageURL}, nil
}

// ToDownloadReference は表示用の参照の "/static/" を "/download/" に置き換えます。
// スキームやホスト、残りのパスはそのまま残ります。
func ToDownloadReference(imageReference string) (string, error) {
	if imageReference == "" {
		return "", domain.NewValidationError("image_url", "no image to download")
	}
	if !strings.Contains(imageReference, StaticSegment) {
		return "", domain.NewValidationError("image_url", "%q has no %s segment", imageReference, StaticSegment)
	}
	return strings.Replace(imageReference, StaticSegment, DownloadSegment, 1), nil
}

// statusFailure は 2xx 以外の応答ボディに {"error": ...} があれば、その内容をエラーに含めます。
func statusFailure(statusErr *StatusError) error {
	var resp domain.RenderResponse
	if err := json.Unmarshal(statusErr.Body, &resp); err == nil && resp.Error != "" {
		return fmt.Errorf("%w: %s: %w", domain.ErrServiceFailure, resp.Error, statusErr)
	}
	return fmt.Errorf("%w: %w", domain.ErrServiceFailure, statusErr)
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return domain.NewValidationError(fe.Namespace(), "failed on %q (value: %v)", fe.Tag(), fe.Value())
	}
	return domain.NewValidationError("", "%v", err)
}
