// Package lock provides keyed mutual exclusion for coordinator operations that
// touch a complaint and a worker together.
package lock

import (
	"context"
	"errors"
	"sort"
)

// ErrTimeout is returned when the keys could not be acquired before the wait
// deadline.
var ErrTimeout = errors.New("lock: timed out waiting for keys")

// Locker acquires every key or none. The returned release func is safe to
// call more than once.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (func(), error)
}

// ComplaintKey names the lock guarding a complaint document.
func ComplaintKey(id string) string {
	return "complaint:" + id
}

// WorkerKey names the lock guarding a worker's availability.
func WorkerKey(id string) string {
	return "worker:" + id
}

// normalize sorts and dedupes keys so every caller acquires in the same order.
func normalize(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
