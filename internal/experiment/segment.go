package experiment

import "sort"

// Segment is a named treatment block: an ordered collection of rounds plus
// the groups discovered for the block. Group rosters are fixed for the
// lifetime of the segment.
type Segment struct {
	Name   string
	rounds map[int]*Round
	groups map[int]*Group
}

func newSegment(name string) *Segment {
	return &Segment{
		Name:   name,
		rounds: make(map[int]*Round),
		groups: make(map[int]*Group),
	}
}

// Round returns the round with the given 1-based index, or nil.
func (sg *Segment) Round(index int) *Round {
	return sg.rounds[index]
}

// EnsureRound returns the round with the given index, creating it if needed.
func (sg *Segment) EnsureRound(index int) *Round {
	if r, ok := sg.rounds[index]; ok {
		return r
	}
	r := newRound(index)
	sg.rounds[index] = r
	return r
}

// Rounds returns all rounds in ascending index order.
func (sg *Segment) Rounds() []*Round {
	idx := make([]int, 0, len(sg.rounds))
	for i := range sg.rounds {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	out := make([]*Round, 0, len(idx))
	for _, i := range idx {
		out = append(out, sg.rounds[i])
	}
	return out
}

// SetGroups installs the finalized group index. Called once by the builder
// after the full segment scan; rosters are immutable from then on.
func (sg *Segment) SetGroups(groups []*Group) {
	for _, g := range groups {
		sg.groups[g.ID] = g
	}
}

// Group returns the group with the given id, or nil.
func (sg *Segment) Group(id int) *Group {
	return sg.groups[id]
}

// Groups returns all groups in ascending id order.
func (sg *Segment) Groups() []*Group {
	ids := make([]int, 0, len(sg.groups))
	for id := range sg.groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]*Group, 0, len(ids))
	for _, id := range ids {
		out = append(out, sg.groups[id])
	}
	return out
}

// GroupByPlayer returns the group containing the given label, or nil.
func (sg *Segment) GroupByPlayer(label string) *Group {
	for _, g := range sg.groups {
		if g.Contains(label) {
			return g
		}
	}
	return nil
}

// Group is a fixed roster of player labels that interact together for an
// entire segment. SegmentName is a lookup key, not a back-pointer: resolve
// it through the owning Session.
type Group struct {
	ID          int
	SegmentName string
	members     []string // sorted
}

// NewGroup creates a group with a sorted copy of the member labels.
func NewGroup(id int, segmentName string, members []string) *Group {
	ms := make([]string, len(members))
	copy(ms, members)
	sort.Strings(ms)
	return &Group{ID: id, SegmentName: segmentName, members: ms}
}

// Members returns the roster in sorted order. The returned slice is shared;
// callers must not modify it.
func (g *Group) Members() []string {
	return g.members
}

// Contains reports whether label is a member of the group.
func (g *Group) Contains(label string) bool {
	for _, m := range g.members {
		if m == label {
			return true
		}
	}
	return false
}
