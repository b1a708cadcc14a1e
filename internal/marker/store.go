package marker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// KV is the key-value persistence the store writes through. Missing keys are
// ("", false, nil), never an error.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Store persists read markers with merge-write semantics. Writes for the
// same list are serialized so the read-then-write merge never interleaves.
type Store struct {
	kv  KV
	log *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(kv KV, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		kv:    kv,
		log:   log.With("component", "marker"),
		locks: make(map[string]*sync.Mutex),
	}
}

// Get loads the marker for a list. A missing or malformed entry is (nil, nil):
// the caller re-seeds on the next valid observation.
func (s *Store) Get(ctx context.Context, list string) (*Marker, error) {
	raw, ok, err := s.kv.Get(ctx, Key(list))
	if err != nil {
		return nil, fmt.Errorf("load marker for %q: %w", list, err)
	}
	if !ok {
		return nil, nil
	}
	ts, id := Decode(raw)
	if ts == nil && id == "" {
		s.log.Warn("discarding malformed marker value", "list", list, "value", raw)
		return nil, nil
	}
	return &Marker{List: list, PostID: id, Timestamp: ts}, nil
}

// Set merge-writes the marker for a list:
//  1. no prior marker and nil timestamp: no-op, a repost alone cannot seed a
//     read position
//  2. new pair equals the prior pair: no-op
//  3. otherwise the id always advances and a nil timestamp carries the prior
//     one forward
func (s *Store) Set(ctx context.Context, list, postID string, ts *time.Time) error {
	if list == "" || postID == "" {
		return nil
	}

	lock := s.listLock(list)
	lock.Lock()
	defer lock.Unlock()

	prior, err := s.Get(ctx, list)
	if err != nil {
		return err
	}

	if prior == nil {
		if ts == nil {
			s.log.Debug("skipping unseeded timestampless write", "list", list, "post", postID)
			return nil
		}
	} else {
		if ts == nil {
			ts = prior.Timestamp
		}
		if prior.PostID == postID && sameInstant(prior.Timestamp, ts) {
			return nil
		}
	}

	if err := s.kv.Set(ctx, Key(list), Encode(ts, postID)); err != nil {
		return fmt.Errorf("save marker for %q: %w", list, err)
	}
	s.log.Debug("marker saved", "list", list, "post", postID)
	return nil
}

func (s *Store) listLock(list string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[list]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[list] = lock
	}
	return lock
}
