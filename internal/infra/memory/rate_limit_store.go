package memory

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/xavierca1/immo-leads/internal/entity"
)

const DefaultSweepThreshold = 1000

// RateLimitStore keeps counters in process memory. Records are indexed by
// expiry in a min-heap so a sweep only touches expired entries.
//
// State is lost on restart and is not shared between instances.
type RateLimitStore struct {
	mu             sync.Mutex
	records        map[string]*rateLimitEntry
	expiry         expiryHeap
	sweepThreshold int
}

type rateLimitEntry struct {
	record entity.RateLimitRecord
	index  int
}

func NewRateLimitStore(sweepThreshold int) *RateLimitStore {
	if sweepThreshold <= 0 {
		sweepThreshold = DefaultSweepThreshold
	}
	return &RateLimitStore{
		records:        make(map[string]*rateLimitEntry),
		sweepThreshold: sweepThreshold,
	}
}

func (s *RateLimitStore) Increment(_ context.Context, identifier string, now time.Time, window time.Duration) (entity.RateLimitRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) > s.sweepThreshold {
		s.sweepLocked(now)
	}

	e, ok := s.records[identifier]
	if !ok {
		e = &rateLimitEntry{record: entity.RateLimitRecord{
			Identifier: identifier,
			Count:      1,
			ResetAt:    now.Add(window),
		}}
		s.records[identifier] = e
		heap.Push(&s.expiry, e)
		return e.record, nil
	}

	if e.record.Expired(now) {
		e.record.Count = 1
		e.record.ResetAt = now.Add(window)
		heap.Fix(&s.expiry, e.index)
		return e.record, nil
	}

	e.record.Count++
	return e.record, nil
}

func (s *RateLimitStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(now), nil
}

// Len returns the number of tracked identifiers.
func (s *RateLimitStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *RateLimitStore) sweepLocked(now time.Time) int {
	removed := 0
	for s.expiry.Len() > 0 && s.expiry[0].record.Expired(now) {
		e := heap.Pop(&s.expiry).(*rateLimitEntry)
		delete(s.records, e.record.Identifier)
		removed++
	}
	return removed
}

type expiryHeap []*rateLimitEntry

func (h expiryHeap) Len() int { return len(h) }

func (h expiryHeap) Less(i, j int) bool {
	return h[i].record.ResetAt.Before(h[j].record.ResetAt)
}

func (h expiryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *expiryHeap) Push(x any) {
	e := x.(*rateLimitEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *expiryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}
