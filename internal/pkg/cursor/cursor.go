// Package cursor encodes the last-seen sort key of a result page into an
// opaque token. Resuming strictly after the decoded key enumerates the full
// matching set exactly once, with page cost independent of page number.
package cursor

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/haiphamcoder/tracehub/internal/domain"
)

type token struct {
	TimestampMillis int64  `json:"ts"`
	DocID           string `json:"id"`
}

// Encode serializes a sort key into an opaque page token.
func Encode(key domain.SortKey) string {
	data, _ := json.Marshal(token{TimestampMillis: key.TimestampMillis, DocID: key.DocID})
	return base64.RawURLEncoding.EncodeToString(data)
}

// Decode parses a page token back into its sort key. Malformed tokens
// return domain.ErrInvalidCursor.
func Decode(s string) (domain.SortKey, error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return domain.SortKey{}, fmt.Errorf("%w: %v", domain.ErrInvalidCursor, err)
	}

	var tok token
	if err := json.Unmarshal(data, &tok); err != nil {
		return domain.SortKey{}, fmt.Errorf("%w: %v", domain.ErrInvalidCursor, err)
	}
	if tok.DocID == "" {
		return domain.SortKey{}, fmt.Errorf("%w: missing document id", domain.ErrInvalidCursor)
	}

	return domain.SortKey{TimestampMillis: tok.TimestampMillis, DocID: tok.DocID}, nil
}
