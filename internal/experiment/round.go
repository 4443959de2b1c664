package experiment

import (
	"fmt"
	"sort"
)

// Round is one complete trading episode within a segment: an ordered
// collection of periods, the authoritative terminal payoff per player, and
// the chat messages aligned to the round.
type Round struct {
	Index   int
	Chat    []ChatMessage
	periods map[int]*Period
	payoffs map[string]float64
}

func newRound(index int) *Round {
	return &Round{
		Index:   index,
		periods: make(map[int]*Period),
		payoffs: make(map[string]float64),
	}
}

// Period returns the period with the given 1-based index, or nil.
func (r *Round) Period(index int) *Period {
	return r.periods[index]
}

// EnsurePeriod returns the period with the given index, creating it if needed.
func (r *Round) EnsurePeriod(index int) *Period {
	if p, ok := r.periods[index]; ok {
		return p
	}
	p := &Period{Index: index, observations: make(map[string]*Observation)}
	r.periods[index] = p
	return p
}

// Periods returns all periods in ascending index order.
func (r *Round) Periods() []*Period {
	idx := make([]int, 0, len(r.periods))
	for i := range r.periods {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	out := make([]*Period, 0, len(idx))
	for _, i := range idx {
		out = append(out, r.periods[i])
	}
	return out
}

// LastPeriod returns the period with the highest index, or nil.
func (r *Round) LastPeriod() *Period {
	var last *Period
	for _, p := range r.periods {
		if last == nil || p.Index > last.Index {
			last = p
		}
	}
	return last
}

// SetTerminalPayoff records the authoritative final payoff for a label.
// A payoff of exactly zero is a meaningful value, never a missing marker.
// Setting the same label twice is a builder bug and returns an error.
func (r *Round) SetTerminalPayoff(label string, payoff float64) error {
	if _, ok := r.payoffs[label]; ok {
		return fmt.Errorf("terminal payoff for %q already set in round %d", label, r.Index)
	}
	r.payoffs[label] = payoff
	return nil
}

// TerminalPayoff returns the final payoff for a label. The second return
// value is false when no payoff was recorded for that label.
func (r *Round) TerminalPayoff(label string) (float64, bool) {
	v, ok := r.payoffs[label]
	return v, ok
}

// AppendChat appends a message to the round's transcript. Messages arrive
// from the aligner already in timestamp order.
func (r *Round) AppendChat(msg ChatMessage) {
	r.Chat = append(r.Chat, msg)
}

// SoldPeriod returns the index of the period in which label's holding
// transitioned to sold, or 0 if the player never sold in this round.
func (r *Round) SoldPeriod(label string) int {
	for _, p := range r.Periods() {
		if obs := p.Player(label); obs != nil && obs.SoldThisPeriod {
			return p.Index
		}
	}
	return 0
}

// ChatMessage is one chat line attached to a round. Seq is the message's
// position in the raw log and breaks ties between equal timestamps.
type ChatMessage struct {
	Sender          string
	Body            string
	Timestamp       float64
	ParticipantCode string
	Seq             int
}
