// Package spam flags assets known to be used for unsolicited token spam.
package spam

import (
	"context"
	"strings"
	"sync"

	"sks-explorer/internal/observability"
)

// ListSource fetches the raw spam denylist, one asset id per line.
// Lines may carry extra CSV columns after the id; blank lines and
// #-comments are skipped.
type ListSource interface {
	SpamList(ctx context.Context) ([]string, error)
}

// Classifier answers whether transfers of an asset should be flagged as
// spam. IsSpam is a pure set lookup; the denylist is loaded and refreshed
// out of the hot path via Refresh.
type Classifier struct {
	mu     sync.RWMutex
	denied map[string]struct{}
}

// NewClassifier creates a classifier with an empty denylist.
func NewClassifier() *Classifier {
	return &Classifier{denied: make(map[string]struct{})}
}

// IsSpam reports whether the asset is on the denylist. The native
// currency (empty id) is never spam.
func (c *Classifier) IsSpam(assetID string) bool {
	if assetID == "" {
		return false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.denied[assetID]
	return ok
}

// Size returns the current denylist size.
func (c *Classifier) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.denied)
}

// Replace swaps the denylist wholesale.
func (c *Classifier) Replace(assetIDs []string) {
	denied := make(map[string]struct{}, len(assetIDs))
	for _, id := range assetIDs {
		if id == "" {
			continue
		}
		denied[id] = struct{}{}
	}

	c.mu.Lock()
	c.denied = denied
	c.mu.Unlock()

	observability.UpdateSpamListSize(len(denied))
}

// Refresh pulls the denylist from the source and replaces the current
// one. On error the previous list stays in effect.
func (c *Classifier) Refresh(ctx context.Context, source ListSource) error {
	lines, err := source.SpamList(ctx)
	if err != nil {
		return err
	}
	c.Replace(ParseList(lines))
	return nil
}

// ParseList extracts asset ids from raw denylist lines.
func ParseList(lines []string) []string {
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexByte(line, ','); i >= 0 {
			line = line[:i]
		}
		ids = append(ids, line)
	}
	return ids
}
