package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultMaxShardBytes caps one shard file at 50 MB.
const DefaultMaxShardBytes int64 = 50 * 1024 * 1024

// shardFamily names one sequence of size-capped files <base>_<index>.json.
// A shard is closed once it reaches the cap; writes then move to the next
// index. Selection is monotonic by size, never by content.
type shardFamily struct {
	dir      string
	base     string
	maxBytes int64
	index    int
}

func newShardFamily(dir, base string, maxBytes int64) *shardFamily {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxShardBytes
	}
	return &shardFamily{dir: dir, base: base, maxBytes: maxBytes}
}

// active returns the path of the lowest-indexed shard that is either absent
// or still under the size cap, scanning linearly from index 1.
func (f *shardFamily) active() string {
	i := f.index
	if i < 1 {
		i = 1
	}
	for {
		path := f.path(i)
		info, err := os.Stat(path)
		if err != nil || info.Size() < f.maxBytes {
			f.index = i
			return path
		}
		i++
	}
}

func (f *shardFamily) path(index int) string {
	return filepath.Join(f.dir, fmt.Sprintf("%s_%d.json", f.base, index))
}

// write persists one shard payload, rolling to the next index first when the
// current shard has filled up.
func (f *shardFamily) write(data []byte) error {
	path := f.active()
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write shard %s: %w", path, err)
	}
	return nil
}
