package resilience

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsTransient_ExplicitTransientError(t *testing.T) {
	err := NewTransientError(errors.New("rate limited"), 429)
	if !IsTransient(err) {
		t.Error("expected TransientError to be transient")
	}
}

func TestIsTransient_WrappedTransientError(t *testing.T) {
	inner := NewTransientError(errors.New("server error"), 503)
	wrapped := fmt.Errorf("call failed: %w", inner)
	if !IsTransient(wrapped) {
		t.Error("expected wrapped TransientError to be transient")
	}
}

func TestIsTransient_TerminalWinsOverHeuristics(t *testing.T) {
	// Message matches a transient pattern, but the explicit terminal
	// classification must win.
	err := NewTerminalError(errors.New("auth failed: i/o timeout on key exchange"), 401)
	if IsTransient(err) {
		t.Error("terminal error must never classify as transient")
	}
}

func TestIsTransient_NetworkPatterns(t *testing.T) {
	cases := []string{
		"read tcp: connection reset by peer",
		"dial tcp: no such host",
		"net/http: TLS handshake timeout",
	}
	for _, msg := range cases {
		if !IsTransient(errors.New(msg)) {
			t.Errorf("expected %q to be transient", msg)
		}
	}
}

func TestIsTransient_NilAndPlainErrors(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil is not transient")
	}
	if IsTransient(errors.New("malformed domain")) {
		t.Error("plain error should not be transient")
	}
}

func TestIsTerminal_And_IsProviderWide(t *testing.T) {
	call := NewTerminalError(errors.New("bad domain"), 400)
	wide := NewProviderWideError(errors.New("invalid api key"), 403)

	if !IsTerminal(call) || !IsTerminal(wide) {
		t.Error("both terminal variants should report terminal")
	}
	if IsProviderWide(call) {
		t.Error("per-call terminal error is not provider-wide")
	}
	if !IsProviderWide(wide) {
		t.Error("expected provider-wide classification")
	}

	wrapped := fmt.Errorf("registrar: %w", wide)
	if !IsProviderWide(wrapped) {
		t.Error("provider-wide classification must survive wrapping")
	}
}

func TestAttempts(t *testing.T) {
	base := NewTransientError(errors.New("fail"), 500)
	if Attempts(base) != 0 {
		t.Error("unannotated error has no attempts")
	}
	annotated := &ExhaustedError{Err: base, Attempts: 3}
	if Attempts(annotated) != 3 {
		t.Errorf("expected 3, got %d", Attempts(annotated))
	}
	if Attempts(fmt.Errorf("wrap: %w", annotated)) != 3 {
		t.Error("attempt annotation must survive wrapping")
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	transient := []int{408, 429, 500, 502, 503, 504}
	for _, code := range transient {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("expected %d to be transient", code)
		}
	}
	terminal := []int{200, 400, 401, 403, 404}
	for _, code := range terminal {
		if IsTransientHTTPStatus(code) {
			t.Errorf("expected %d to be non-transient", code)
		}
	}
}
