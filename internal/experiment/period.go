package experiment

import "sort"

// Period is one discrete time-step within a round, holding one observation
// per active player. Derived quantities (sellers, mean sale price) are
// computed on demand, never stored.
type Period struct {
	Index        int
	observations map[string]*Observation
}

// AddObservation records a player's state for this period, replacing any
// previous observation for the same label.
func (p *Period) AddObservation(obs *Observation) {
	p.observations[obs.Label] = obs
}

// Player returns the observation for the given label, or nil.
func (p *Period) Player(label string) *Observation {
	return p.observations[label]
}

// Labels returns the labels observed this period in sorted order.
func (p *Period) Labels() []string {
	labels := make([]string, 0, len(p.observations))
	for l := range p.observations {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// Sellers returns the labels whose holding transitioned to sold this
// period, in sorted order.
func (p *Period) Sellers() []string {
	var sellers []string
	for l, obs := range p.observations {
		if obs.SoldThisPeriod {
			sellers = append(sellers, l)
		}
	}
	sort.Strings(sellers)
	return sellers
}

// SellerCount returns the number of players who sold this period.
func (p *Period) SellerCount() int {
	n := 0
	for _, obs := range p.observations {
		if obs.SoldThisPeriod {
			n++
		}
	}
	return n
}

// MeanSalePrice returns the mean price across this period's sellers.
// The second return value is false when no seller has a recorded price.
func (p *Period) MeanSalePrice() (float64, bool) {
	sum, n := 0.0, 0
	for _, obs := range p.observations {
		if obs.SoldThisPeriod && obs.Price != nil {
			sum += *obs.Price
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Observation is one player's state in one period. Immutable once built.
//
// SoldCumulative is the raw 0/1 holding flag as exported (1 persists for
// every period after the sale). SoldThisPeriod is true only at the single
// period where the transition actually happened.
type Observation struct {
	ParticipantID  string
	Label          string
	IDInGroup      int
	SoldCumulative int
	SoldThisPeriod bool
	Signal         *float64
	Price          *float64
	SellTimestamp  *float64
	State          int
	Payoff         *float64
}
