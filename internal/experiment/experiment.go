// Package experiment holds the reconstructed object graph of a market
// experiment: Experiment → Session → Segment → Round → Period →
// Observation, with a parallel group index per segment and per-round chat
// transcripts.
//
// # Ownership
//
// Every entity is owned by exactly one parent. Groups do not point back at
// their Segment; they carry the segment name as a lookup key and the caller
// resolves it through the Session when navigation is needed.
//
// # Mutability
//
// The graph is assembled by internal/build and is read-only afterwards.
// The Add/Set mutators exist for the builder; downstream consumers use the
// nil-returning accessors and the flatten projections only.
package experiment

import "sort"

// Experiment is the top-level container of rebuilt sessions.
type Experiment struct {
	Name     string
	sessions []*Session
	byCode   map[string]*Session
}

// New creates an empty Experiment.
func New(name string) *Experiment {
	return &Experiment{Name: name, byCode: make(map[string]*Session)}
}

// AddSession appends a session. Insertion order is preserved; a session
// with a duplicate code replaces nothing and is ignored.
func (e *Experiment) AddSession(s *Session) {
	if _, ok := e.byCode[s.Code]; ok {
		return
	}
	e.sessions = append(e.sessions, s)
	e.byCode[s.Code] = s
}

// Session returns the session with the given code, or nil.
func (e *Experiment) Session(code string) *Session {
	return e.byCode[code]
}

// Sessions returns sessions in insertion order.
func (e *Experiment) Sessions() []*Session {
	return e.sessions
}

// Empty reports whether the experiment contains no observations at all.
func (e *Experiment) Empty() bool {
	for _, s := range e.sessions {
		for _, name := range s.SegmentNames() {
			seg := s.Segment(name)
			for _, r := range seg.Rounds() {
				for _, p := range r.Periods() {
					if len(p.Labels()) > 0 {
						return false
					}
				}
			}
		}
	}
	return true
}

// Session is one experimental session: a set of treatment segments plus the
// participant-id → label mapping and free-form metadata.
type Session struct {
	Code     string
	Labels   map[string]string // participant id_in_session → label
	Meta     map[string]string
	segments map[string]*Segment
}

// NewSession creates an empty session.
func NewSession(code string) *Session {
	return &Session{
		Code:     code,
		Labels:   make(map[string]string),
		Meta:     make(map[string]string),
		segments: make(map[string]*Segment),
	}
}

// Segment returns the named segment, or nil.
func (s *Session) Segment(name string) *Segment {
	return s.segments[name]
}

// EnsureSegment returns the named segment, creating it if needed.
func (s *Session) EnsureSegment(name string) *Segment {
	if seg, ok := s.segments[name]; ok {
		return seg
	}
	seg := newSegment(name)
	s.segments[name] = seg
	return seg
}

// SegmentNames returns segment names in sorted order.
func (s *Session) SegmentNames() []string {
	names := make([]string, 0, len(s.segments))
	for name := range s.segments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Round is a convenience accessor: session → segment → round, nil-safe.
func (s *Session) Round(segment string, round int) *Round {
	seg := s.Segment(segment)
	if seg == nil {
		return nil
	}
	return seg.Round(round)
}
