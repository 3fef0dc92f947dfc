package ingest

import "sync"

// inFlight is a set of order ids currently being processed. An entry may carry a
// rerun request made while it was held.
type inFlight struct {
	mu  sync.Mutex
	ids map[int64]bool
}

func newInFlight() *inFlight {
	return &inFlight{ids: make(map[int64]bool)}
}

// acquire adds id to the set. It returns false when id is already present.
func (f *inFlight) acquire(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.ids[id]; ok {
		return false
	}
	f.ids[id] = false
	return true
}

// acquireOrRerun adds id to the set like acquire. When id is already present it
// asks the holder for one more pass and returns false.
func (f *inFlight) acquireOrRerun(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.ids[id]; ok {
		f.ids[id] = true
		return false
	}
	f.ids[id] = false
	return true
}

// finish releases id unless a rerun was requested. In that case the request is
// consumed, id stays held and finish returns false.
func (f *inFlight) finish(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ids[id] {
		f.ids[id] = false
		return false
	}
	delete(f.ids, id)
	return true
}

func (f *inFlight) release(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.ids, id)
}

func (f *inFlight) has(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.ids[id]
	return ok
}
