package solarman

import (
	"sync"
	"time"
)

// Hooks is the observability surface of spec §4.J: a set of fire-and-
// forget callouts the engine makes at request, retry, and connection
// boundaries. All methods must return promptly and must not block on I/O
// — RequestOK, RequestErr, Retry and ReconnectAttempt run on the goroutine
// servicing the request, and Disconnect may also run on the network read
// goroutine or the idle watchdog's timer goroutine.
type Hooks interface {
	RequestOK(functionCode byte, duration time.Duration)
	RequestErr(functionCode byte, label string)
	Retry(functionCode byte)
	Connect()
	Disconnect()
	ReconnectAttempt()
}

// NoopHooks discards every callout. It is the default when no Hooks is
// configured.
type NoopHooks struct{}

func (NoopHooks) RequestOK(byte, time.Duration) {}
func (NoopHooks) RequestErr(byte, string)       {}
func (NoopHooks) Retry(byte)                    {}
func (NoopHooks) Connect()                      {}
func (NoopHooks) Disconnect()                   {}
func (NoopHooks) ReconnectAttempt()             {}

// StatsHooks is an in-memory Hooks implementation that accumulates basic
// counters, grounded on the pack's metrics.Sink style of mutex-protected
// aggregation. It is a convenience for tests and demos, not a production
// metrics integration — spec.md leaves that to the caller.
type StatsHooks struct {
	mu sync.Mutex

	ok                map[byte]int
	err               map[byte]int
	lastErrLabel      map[byte]string
	totalDuration     map[byte]time.Duration
	retries           int
	connects          int
	disconnects       int
	reconnectAttempts int
}

// NewStatsHooks returns a ready-to-use StatsHooks.
func NewStatsHooks() *StatsHooks {
	return &StatsHooks{
		ok:            make(map[byte]int),
		err:           make(map[byte]int),
		lastErrLabel:  make(map[byte]string),
		totalDuration: make(map[byte]time.Duration),
	}
}

func (s *StatsHooks) RequestOK(functionCode byte, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ok[functionCode]++
	s.totalDuration[functionCode] += duration
}

func (s *StatsHooks) RequestErr(functionCode byte, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err[functionCode]++
	s.lastErrLabel[functionCode] = label
}

func (s *StatsHooks) Retry(functionCode byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retries++
}

func (s *StatsHooks) Connect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connects++
}

func (s *StatsHooks) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnects++
}

func (s *StatsHooks) ReconnectAttempt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnectAttempts++
}

// StatsSnapshot is a point-in-time copy of a StatsHooks' counters.
type StatsSnapshot struct {
	OK                map[byte]int
	Err               map[byte]int
	LastErrLabel      map[byte]string
	TotalDuration     map[byte]time.Duration
	Retries           int
	Connects          int
	Disconnects       int
	ReconnectAttempts int
}

// Snapshot returns a copy of the current counters, safe to read without
// racing further hook calls.
func (s *StatsHooks) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := StatsSnapshot{
		OK:                make(map[byte]int, len(s.ok)),
		Err:               make(map[byte]int, len(s.err)),
		LastErrLabel:      make(map[byte]string, len(s.lastErrLabel)),
		TotalDuration:     make(map[byte]time.Duration, len(s.totalDuration)),
		Retries:           s.retries,
		Connects:          s.connects,
		Disconnects:       s.disconnects,
		ReconnectAttempts: s.reconnectAttempts,
	}
	for k, v := range s.ok {
		snap.OK[k] = v
	}
	for k, v := range s.err {
		snap.Err[k] = v
	}
	for k, v := range s.lastErrLabel {
		snap.LastErrLabel[k] = v
	}
	for k, v := range s.totalDuration {
		snap.TotalDuration[k] = v
	}
	return snap
}
