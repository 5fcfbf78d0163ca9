package telemetry

import "sync/atomic"

// IngestStats tracks ingestion loop activity. All counters are safe
// for concurrent use; the worker reads them while the loop runs.
type IngestStats struct {
	polls       atomic.Int64
	fetchErrors atomic.Int64
	committed   atomic.Int64
	duplicates  atomic.Int64
	malformed   atomic.Int64
	lastCommit  atomic.Int64 // unix millis of the newest commit, 0 if none
}

// NewIngestStats creates a zeroed counter set.
func NewIngestStats() *IngestStats {
	return &IngestStats{}
}

func (s *IngestStats) RecordPoll()       { s.polls.Add(1) }
func (s *IngestStats) RecordFetchError() { s.fetchErrors.Add(1) }
func (s *IngestStats) RecordDuplicate()  { s.duplicates.Add(1) }
func (s *IngestStats) RecordMalformed()  { s.malformed.Add(1) }

// RecordCommit counts a stored session and stamps the commit time.
func (s *IngestStats) RecordCommit(unixMilli int64) {
	s.committed.Add(1)
	s.lastCommit.Store(unixMilli)
}

// Snapshot is a point-in-time copy of the counters for the stats API.
type Snapshot struct {
	Polls           int64 `json:"polls"`
	FetchErrors     int64 `json:"fetchErrors"`
	Committed       int64 `json:"committed"`
	Duplicates      int64 `json:"duplicates"`
	Malformed       int64 `json:"malformed"`
	LastCommitMilli int64 `json:"lastCommitMilli"`
}

// Snapshot reads all counters at once.
func (s *IngestStats) Snapshot() Snapshot {
	return Snapshot{
		Polls:           s.polls.Load(),
		FetchErrors:     s.fetchErrors.Load(),
		Committed:       s.committed.Load(),
		Duplicates:      s.duplicates.Load(),
		Malformed:       s.malformed.Load(),
		LastCommitMilli: s.lastCommit.Load(),
	}
}
