package extract

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Plain per-participant columns the wide format must carry.
const (
	ColLabel       = "participant.label"
	ColIDInSession = "participant.id_in_session"
	ColSessionCode = "session.code"
	ColCode        = "participant.code"
)

// Role distinguishes the owner of a compound column.
type Role string

const (
	RolePlayer Role = "player"
	RoleGroup  Role = "group"
)

// colRef addresses one {segment}.{period}.{role}.{field} column.
type colRef struct {
	segment string
	period  int
	role    Role
	field   string
}

// Schema is the validated column map of a wide table, built once per build.
// It resolves (segment, period, role, field) to a column position and
// records which segments and period indices the header actually carries.
type Schema struct {
	table    *Table
	cols     map[colRef]int
	segments []string         // sorted, deterministic processing order
	periods  map[string][]int // per segment, ascending
}

// NewSchema scans the header of t and builds the column map. It fails when
// the required plain participant columns are missing; compound columns that
// do not match the {segment}.{period}.{player|group}.{field} pattern are
// ignored (the export carries subsession and config columns too).
func NewSchema(t *Table) (*Schema, error) {
	for _, col := range []string{ColLabel, ColIDInSession} {
		if !t.HasColumn(col) {
			return nil, fmt.Errorf("wide extract: required column %q missing", col)
		}
	}

	s := &Schema{
		table:   t,
		cols:    make(map[colRef]int),
		periods: make(map[string][]int),
	}

	segSet := make(map[string]bool)
	periodSet := make(map[string]map[int]bool)
	for i, name := range t.header {
		ref, ok := parseCompound(name)
		if !ok {
			continue
		}
		s.cols[ref] = i
		if ref.role != RolePlayer {
			continue
		}
		if !segSet[ref.segment] {
			segSet[ref.segment] = true
			periodSet[ref.segment] = make(map[int]bool)
		}
		periodSet[ref.segment][ref.period] = true
	}

	for seg := range segSet {
		s.segments = append(s.segments, seg)
		var ps []int
		for p := range periodSet[seg] {
			ps = append(ps, p)
		}
		sort.Ints(ps)
		s.periods[seg] = ps
	}
	sort.Strings(s.segments)
	return s, nil
}

// parseCompound splits "seg.3.player.id_in_group" into its parts. Fields
// may themselves contain dots; segment names and roles may not.
func parseCompound(name string) (colRef, bool) {
	parts := strings.SplitN(name, ".", 4)
	if len(parts) != 4 {
		return colRef{}, false
	}
	period, err := strconv.Atoi(parts[1])
	if err != nil || period < 1 {
		return colRef{}, false
	}
	role := Role(parts[2])
	if role != RolePlayer && role != RoleGroup {
		return colRef{}, false
	}
	return colRef{segment: parts[0], period: period, role: role, field: parts[3]}, true
}

// Segments returns segment names in sorted order.
func (s *Schema) Segments() []string {
	return s.segments
}

// Periods returns the ascending period indices present for a segment.
func (s *Schema) Periods(segment string) []int {
	return s.periods[segment]
}

// Cell returns the raw cell for (row, segment, period, role, field). The
// second return is false when the header has no such column.
func (s *Schema) Cell(row int, segment string, period int, role Role, field string) (string, bool) {
	i, ok := s.cols[colRef{segment: segment, period: period, role: role, field: field}]
	if !ok {
		return "", false
	}
	if row < 0 || row >= len(s.table.rows) || i >= len(s.table.rows[row]) {
		return "", true
	}
	return s.table.rows[row][i], true
}

// PlayerCell is Cell for the player role, returning "" for absent columns.
func (s *Schema) PlayerCell(row int, segment string, period int, field string) string {
	v, _ := s.Cell(row, segment, period, RolePlayer, field)
	return v
}

// GroupCell is Cell for the group role, returning "" for absent columns.
func (s *Schema) GroupCell(row int, segment string, period int, field string) string {
	v, _ := s.Cell(row, segment, period, RoleGroup, field)
	return v
}

// Table returns the underlying table.
func (s *Schema) Table() *Table {
	return s.table
}
