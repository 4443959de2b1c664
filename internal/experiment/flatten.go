package experiment

import "sort"

// Flatten projections. Both are pure: the same experiment yields the same
// rows in the same order on every call. Ordering is sessions in insertion
// order, segments by name, rounds and periods ascending, players by label.

// Level selects the granularity of a flatten projection.
type Level string

const (
	LevelPeriod Level = "period"
	LevelRound  Level = "round"
)

// PeriodRow is one (session, segment, round, period, player) cell with all
// scalar observation fields plus the player's resolved group id.
type PeriodRow struct {
	Session        string
	Segment        string
	Round          int
	Period         int
	Label          string
	ParticipantID  string
	GroupID        *int
	IDInGroup      int
	SoldCumulative int
	SoldThisPeriod bool
	Signal         *float64
	Price          *float64
	SellTimestamp  *float64
	State          int
	Payoff         *float64
}

// RoundRow is one (session, segment, round, player) summary: the
// authoritative terminal payoff, the period of the player's sold
// transition (0 if none), and round-level aggregates repeated per player.
type RoundRow struct {
	Session        string
	Segment        string
	Round          int
	Label          string
	GroupID        *int
	TerminalPayoff *float64
	SoldPeriod     int
	PeriodCount    int
	SellerCount    int
	MeanSalePrice  *float64
	ChatCount      int
}

// PeriodRows returns the period-level flatten of the whole experiment.
func (e *Experiment) PeriodRows() []PeriodRow {
	var rows []PeriodRow
	for _, s := range e.sessions {
		for _, name := range s.SegmentNames() {
			seg := s.Segment(name)
			for _, r := range seg.Rounds() {
				for _, p := range r.Periods() {
					for _, label := range p.Labels() {
						obs := p.Player(label)
						rows = append(rows, PeriodRow{
							Session:        s.Code,
							Segment:        seg.Name,
							Round:          r.Index,
							Period:         p.Index,
							Label:          label,
							ParticipantID:  obs.ParticipantID,
							GroupID:        groupIDOf(seg, label),
							IDInGroup:      obs.IDInGroup,
							SoldCumulative: obs.SoldCumulative,
							SoldThisPeriod: obs.SoldThisPeriod,
							Signal:         obs.Signal,
							Price:          obs.Price,
							SellTimestamp:  obs.SellTimestamp,
							State:          obs.State,
							Payoff:         obs.Payoff,
						})
					}
				}
			}
		}
	}
	return rows
}

// RoundRows returns the round-level flatten of the whole experiment. A row
// is emitted per player seen in any period of the round, so players with a
// missing terminal payoff still appear (payoff nil, never coerced to zero).
func (e *Experiment) RoundRows() []RoundRow {
	var rows []RoundRow
	for _, s := range e.sessions {
		for _, name := range s.SegmentNames() {
			seg := s.Segment(name)
			for _, r := range seg.Rounds() {
				sellers := 0
				priceSum, priceN := 0.0, 0
				for _, p := range r.Periods() {
					sellers += p.SellerCount()
					for _, label := range p.Labels() {
						obs := p.Player(label)
						if obs.SoldThisPeriod && obs.Price != nil {
							priceSum += *obs.Price
							priceN++
						}
					}
				}
				var meanPrice *float64
				if priceN > 0 {
					v := priceSum / float64(priceN)
					meanPrice = &v
				}
				for _, label := range roundLabels(r) {
					var payoff *float64
					if v, ok := r.TerminalPayoff(label); ok {
						vv := v
						payoff = &vv
					}
					rows = append(rows, RoundRow{
						Session:        s.Code,
						Segment:        seg.Name,
						Round:          r.Index,
						Label:          label,
						GroupID:        groupIDOf(seg, label),
						TerminalPayoff: payoff,
						SoldPeriod:     r.SoldPeriod(label),
						PeriodCount:    len(r.Periods()),
						SellerCount:    sellers,
						MeanSalePrice:  meanPrice,
						ChatCount:      len(r.Chat),
					})
				}
			}
		}
	}
	return rows
}

func groupIDOf(seg *Segment, label string) *int {
	if g := seg.GroupByPlayer(label); g != nil {
		id := g.ID
		return &id
	}
	return nil
}

// roundLabels collects the distinct labels observed in any period of the
// round, sorted.
func roundLabels(r *Round) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, p := range r.Periods() {
		for _, l := range p.Labels() {
			if !seen[l] {
				seen[l] = true
				labels = append(labels, l)
			}
		}
	}
	sort.Strings(labels)
	return labels
}
