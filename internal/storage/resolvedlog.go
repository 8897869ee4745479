package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"NewsReconciler/internal/domain"
)

// ResolvedLog is the audit trail of articles that reached the knowledge
// base, annotated with their entity ids. Appends accumulate in memory and
// are flushed once at the end of each run.
type ResolvedLog struct {
	shards  *shardFamily
	entries []domain.Article
	dirty   bool
}

// OpenResolvedLog loads the log from its active shard.
func OpenResolvedLog(dir, base string, maxBytes int64) (*ResolvedLog, error) {
	log := &ResolvedLog{shards: newShardFamily(dir, base, maxBytes)}

	path := log.shards.active()
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return log, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read resolved log shard %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &log.entries); err != nil {
		return nil, fmt.Errorf("parse resolved log shard %s: %w", path, err)
	}
	return log, nil
}

// Append stages one resolved article for the next Flush.
func (l *ResolvedLog) Append(article domain.Article) {
	l.entries = append(l.entries, article)
	l.dirty = true
}

// Flush rewrites the active shard when anything was appended.
func (l *ResolvedLog) Flush() error {
	if !l.dirty {
		return nil
	}
	data, err := json.MarshalIndent(l.entries, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal resolved log: %w", err)
	}
	if err := l.shards.write(data); err != nil {
		return err
	}
	l.dirty = false
	return nil
}

// Len reports how many resolved articles the log holds.
func (l *ResolvedLog) Len() int {
	return len(l.entries)
}
