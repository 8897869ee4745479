package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"NewsReconciler/internal/domain"
)

// UnmatchedLedger records articles a reviewer declined to match or create.
// Each append rewrites the whole active shard; this path is secondary and
// human-reviewed, so it trades crash-atomicity for simplicity.
type UnmatchedLedger struct {
	shards  *shardFamily
	records []domain.UnmatchedRecord
}

// OpenUnmatched loads the ledger from its active shard.
func OpenUnmatched(dir, base string, maxBytes int64) (*UnmatchedLedger, error) {
	ledger := &UnmatchedLedger{shards: newShardFamily(dir, base, maxBytes)}

	path := ledger.shards.active()
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ledger, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read unmatched shard %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &ledger.records); err != nil {
		return nil, fmt.Errorf("parse unmatched shard %s: %w", path, err)
	}
	return ledger, nil
}

// Record appends one article and rewrites the ledger.
func (u *UnmatchedLedger) Record(article domain.Article) error {
	u.records = append(u.records, domain.UnmatchedRecord{
		Title: article.Title,
		URL:   article.URL,
	})
	data, err := json.Marshal(u.records)
	if err != nil {
		return fmt.Errorf("marshal unmatched ledger: %w", err)
	}
	return u.shards.write(data)
}

// Records returns the ledger contents for review.
func (u *UnmatchedLedger) Records() []domain.UnmatchedRecord {
	out := make([]domain.UnmatchedRecord, len(u.records))
	copy(out, u.records)
	return out
}
