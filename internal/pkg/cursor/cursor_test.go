package cursor

import (
	"errors"
	"testing"

	"github.com/haiphamcoder/tracehub/internal/domain"
)

func TestEncodeDecode(t *testing.T) {
	key := domain.SortKey{TimestampMillis: 1704448800000, DocID: "skPvKWnCy4PFGgo2IAo_W07jWd07Rs536McIur5RLJc"}

	tok := Encode(key)
	if tok == "" {
		t.Fatal("expected non-empty token")
	}

	got, err := Decode(tok)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got != key {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, key)
	}
}

func TestDecodeInvalid(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"Not Base64", "!!not-base64!!"},
		{"Not JSON", "bm90LWpzb24"},
		{"Missing DocID", "eyJ0cyI6MX0"}, // {"ts":1}
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.token); !errors.Is(err, domain.ErrInvalidCursor) {
				t.Errorf("expected ErrInvalidCursor, got %v", err)
			}
		})
	}
}
