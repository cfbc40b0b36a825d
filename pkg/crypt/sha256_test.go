package crypt_test

import (
	"testing"

	"github.com/devshark/starkbank/pkg/crypt"
)

func TestFingerprint(t *testing.T) {
	tests := []struct {
		name     string
		parts    []string
		expected string
	}{
		{
			name:     "no parts",
			parts:    nil,
			expected: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:     "single part",
			parts:    []string{"hello world"},
			expected: "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		},
		{
			name:     "numeric part",
			parts:    []string{"12345"},
			expected: "5994471abb01112afcc18159f6cc74b4f511b99806da59b3caf5a9c173cacfc5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := crypt.Fingerprint(tt.parts...)
			if result != tt.expected {
				t.Errorf("Fingerprint(%q) = %v, want %v", tt.parts, result, tt.expected)
			}
		})
	}
}

func TestFingerprint_Consistency(t *testing.T) {
	first := crypt.Fingerprint("GET", "/v2/transfer/log/1")
	second := crypt.Fingerprint("GET", "/v2/transfer/log/1")

	if first != second {
		t.Errorf("Fingerprint is not consistent: first result %v, second result %v", first, second)
	}
}

func TestFingerprint_Boundaries(t *testing.T) {
	joined := crypt.Fingerprint("ab", "c")
	shifted := crypt.Fingerprint("a", "bc")
	single := crypt.Fingerprint("abc")

	if joined == shifted || joined == single || shifted == single {
		t.Errorf("Fingerprint ignored part boundaries: %v %v %v", joined, shifted, single)
	}
}
