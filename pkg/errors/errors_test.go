package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNewCarriesCode(t *testing.T) {
	err := New(ErrCodeNoWheel, "no pure wheel for %s", "numpy")

	if !Is(err, ErrCodeNoWheel) {
		t.Error("Is(err, ErrCodeNoWheel) = false")
	}
	if Is(err, ErrCodeNetwork) {
		t.Error("Is matched the wrong code")
	}
	if got := GetCode(err); got != ErrCodeNoWheel {
		t.Errorf("GetCode = %q, want %q", got, ErrCodeNoWheel)
	}
	if got := UserMessage(err); got != "no pure wheel for numpy" {
		t.Errorf("UserMessage = %q", got)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrCodeNetwork, cause, "fetch %s", "requests")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped cause lost from error chain")
	}
	if !Is(err, ErrCodeNetwork) {
		t.Error("code lost after wrapping")
	}
}

func TestIsUnwrapsChain(t *testing.T) {
	inner := New(ErrCodePackageNotFound, "no such package")
	outer := fmt.Errorf("resolve requests: %w", inner)

	if !Is(outer, ErrCodePackageNotFound) {
		t.Error("Is failed to find code through fmt.Errorf wrapping")
	}
	if got := GetCode(outer); got != ErrCodePackageNotFound {
		t.Errorf("GetCode = %q, want %q", got, ErrCodePackageNotFound)
	}
}

func TestGetCodeOnPlainError(t *testing.T) {
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode on plain error = %q, want empty", got)
	}
}

func TestTerminal(t *testing.T) {
	tests := []struct {
		code Code
		want bool
	}{
		{ErrCodePackageNotFound, true},
		{ErrCodeNoWheel, true},
		{ErrCodeMalformed, true},
		{ErrCodeNetwork, false},
		{ErrCodeRateLimited, false},
		{ErrCodeDuplicateKey, false},
	}
	for _, tt := range tests {
		if got := Terminal(New(tt.code, "x")); got != tt.want {
			t.Errorf("Terminal(%s) = %v, want %v", tt.code, got, tt.want)
		}
	}
	if Terminal(stderrors.New("plain")) {
		t.Error("Terminal(plain error) = true")
	}
}
