package build

import (
	"fmt"
	"sort"

	"github.com/calebeynon/MarketRuns-sub000/internal/experiment"
)

// groupArena is the mutable scratch structure for group discovery. Rosters
// grow during the segment scan; freeze materializes them into immutable
// Groups once the scan is complete. The arena never leaves this package.
type groupArena struct {
	members map[int]map[string]bool
	owner   map[string]int
}

func newGroupArena() *groupArena {
	return &groupArena{
		members: make(map[int]map[string]bool),
		owner:   make(map[string]int),
	}
}

// add records that label was observed in group gid. A label observed under
// two different gids within one segment is a hard integrity error.
func (a *groupArena) add(gid int, label string) error {
	if prev, ok := a.owner[label]; ok && prev != gid {
		return fmt.Errorf("%w: %q in group %d and group %d", ErrGroupConflict, label, prev, gid)
	}
	a.owner[label] = gid
	if a.members[gid] == nil {
		a.members[gid] = make(map[string]bool)
	}
	a.members[gid][label] = true
	return nil
}

// freeze converts the scratch rosters into immutable Groups with sorted
// member lists, in ascending group-id order.
func (a *groupArena) freeze(segmentName string) []*experiment.Group {
	ids := make([]int, 0, len(a.members))
	for id := range a.members {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	groups := make([]*experiment.Group, 0, len(ids))
	for _, id := range ids {
		labels := make([]string, 0, len(a.members[id]))
		for l := range a.members[id] {
			labels = append(labels, l)
		}
		groups = append(groups, experiment.NewGroup(id, segmentName, labels))
	}
	return groups
}
