// Package routing derives document identities and time-bucketed index names
// for log events. All functions are pure; routing depends only on the event
// itself, never on processing time.
package routing

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/haiphamcoder/tracehub/internal/domain"
)

const (
	// IndexPrefix is the common prefix of all daily index buckets.
	IndexPrefix = "logs-tracehub"

	// IndexAlias matches every daily bucket; used only as a fallback when
	// a query range spans too many days to enumerate.
	IndexAlias = "logs-tracehub-*"

	timestampLayout = "2006-01-02T15:04:05Z"
	dateLayout      = "2006.01.02"
)

// Known digest of "tracehub|digest|self-check", verified at startup.
const selfCheckDigest = "DhcDXLAwGYQy_HUzQ-2pXQGkhG8fUO5a1reWDAR0jOw"

// CanonicalTimestamp renders t as the canonical UTC second-precision string
// used both in the idempotency tuple and in stored documents.
func CanonicalTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// DocumentID derives the idempotent document id for an event: the SHA-256
// digest of "tenantId|timestamp|userId|action|producerId|seq", encoded as
// unpadded URL-safe base64 so it is safe inside document REST paths.
// Identical tuples always yield identical ids.
func DocumentID(event domain.LogEvent, producerID string, seq int64) string {
	input := strings.Join([]string{
		event.TenantID,
		CanonicalTimestamp(event.Timestamp),
		event.UserID,
		event.Action,
		producerID,
		strconv.FormatInt(seq, 10),
	}, "|")

	sum := sha256.Sum256([]byte(input))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// IndexName resolves the daily index bucket for an event timestamp. The
// bucket is a function of the event's own UTC calendar date, so delayed
// processing never changes routing.
func IndexName(ts time.Time) string {
	return IndexPrefix + "-" + ts.UTC().Format(dateLayout)
}

// DailyIndices enumerates the index buckets overlapping [from, to).
func DailyIndices(from, to time.Time) []string {
	start := from.UTC().Truncate(24 * time.Hour)
	end := to.UTC()

	var indices []string
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		indices = append(indices, IndexName(day))
	}
	return indices
}

// SelfCheck verifies the digest implementation against a known vector.
// Services must call it at startup and refuse to run on mismatch; the id
// scheme must never degrade to a weaker identity.
func SelfCheck() error {
	sum := sha256.Sum256([]byte("tracehub|digest|self-check"))
	if got := base64.RawURLEncoding.EncodeToString(sum[:]); got != selfCheckDigest {
		return fmt.Errorf("digest self-check failed: got %s", got)
	}
	return nil
}
