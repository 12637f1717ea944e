package kafka

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeUnknown},
		{"explicit transient", NewTransientError("write", errors.New("x")), ErrorTypeTransient},
		{"explicit permanent", NewPermanentError("decode", errors.New("x")), ErrorTypePermanent},
		{"wrapped transient", fmt.Errorf("outer: %w", NewTransientError("write", nil)), ErrorTypeTransient},
		{"connection refused", errors.New("dial tcp: Connection Refused"), ErrorTypeTransient},
		{"timeout", errors.New("i/o timeout"), ErrorTypeTransient},
		{"other", errors.New("invalid character"), ErrorTypePermanent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	transient := NewTransientError("write", nil)
	if !ShouldRetry(transient, 0, 3) {
		t.Error("transient error under the limit should retry")
	}
	if ShouldRetry(transient, 3, 3) {
		t.Error("retry limit reached should not retry")
	}
	if ShouldRetry(NewPermanentError("decode", nil), 0, 3) {
		t.Error("permanent error should not retry")
	}
	if ShouldRetry(nil, 0, 3) {
		t.Error("nil error should not retry")
	}
}

func TestKafkaError_Error(t *testing.T) {
	err := NewTransientError("publish", errors.New("broker down"))
	if err.Error() != "publish: broker down" {
		t.Errorf("Error() = %q", err.Error())
	}
	if NewPermanentError("bad payload", nil).Error() != "bad payload" {
		t.Error("message without cause should print as-is")
	}
}
