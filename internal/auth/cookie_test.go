package auth

import (
	"strings"
	"testing"
)

func TestCookieSigner_SignAndVerify(t *testing.T) {
	signer := NewCookieSigner("session-secret")

	value := signer.Sign("abc123")
	if !strings.HasPrefix(value, "abc123.") {
		t.Fatalf("signed value %q should start with sid", value)
	}

	sid, ok := signer.Verify(value)
	if !ok {
		t.Fatal("expected valid signature")
	}
	if sid != "abc123" {
		t.Errorf("sid = %q, want %q", sid, "abc123")
	}
}

func TestCookieSigner_Verify_RejectsTampering(t *testing.T) {
	signer := NewCookieSigner("session-secret")
	value := signer.Sign("abc123")
	sig := value[strings.LastIndexByte(value, '.')+1:]

	tests := []struct {
		name  string
		value string
	}{
		{"empty", ""},
		{"unsigned sid", "abc123"},
		{"swapped sid", "xyz789." + sig},
		{"truncated signature", value[:len(value)-2]},
		{"empty signature", "abc123."},
		{"empty sid", "." + sig},
		{"other secret", NewCookieSigner("other-secret").Sign("abc123")},
		{"bad base64", "abc123.!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := signer.Verify(tt.value); ok {
				t.Errorf("Verify(%q) should fail", tt.value)
			}
		})
	}
}
