package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation はすべての ValidationError が errors.Is で一致するセンチネルです。
	ErrValidation = errors.New("validation failed")
	// ErrMissingImageReference はレスポンスに image_url が含まれない場合のエラーです。
	ErrMissingImageReference = errors.New("missing image reference")
	// ErrServiceFailure はサービスが 2xx 以外のステータスで失敗を報告した場合のエラーです。
	ErrServiceFailure = errors.New("render service reported failure")
)

// ValidationError は入力不正によるローカルなエラーです。
// 発生時、回路の状態は一切変更されません。
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError は書式付きメッセージで ValidationError を生成します。
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ResponseError はサービスの応答が契約を満たさない場合のエラーです。
// 通信失敗（TransportError）とは区別されます。
type ResponseError struct {
	Endpoint string
	Err      error
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("invalid response from %s: %v", e.Endpoint, e.Err)
}

func (e *ResponseError) Unwrap() error { return e.Err }

// TransportError は HTTP 通信そのものが失敗した場合のエラーです。
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsValidation は err が ValidationError を含むかを返します。
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
