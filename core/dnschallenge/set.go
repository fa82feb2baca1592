package dnschallenge

import "sync"

// Record identifies one TXT record created at the DNS provider.
type Record struct {
	// Domain is the bare authorization domain (wildcard marker stripped).
	Domain string

	// Name is the full record name, _acme-challenge.<domain>.
	Name string

	ZoneID   string
	RecordID string
}

// Set aggregates the records created during one provisioning pass. A record
// enters the set only after the provider confirmed its creation, so tearing
// down the set never references a record that does not exist.
type Set struct {
	mu      sync.Mutex
	records []Record
}

func (s *Set) add(r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
}

// drain removes and returns all records, making repeated teardown idempotent.
func (s *Set) drain() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.records
	s.records = nil
	return records
}

// Records returns a snapshot of the records currently in the set.
func (s *Set) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len reports how many records are currently in the set.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
