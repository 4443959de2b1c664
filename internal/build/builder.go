// Package build reconstructs the hierarchical experiment graph from the
// flat wide-format export, then optionally folds in the chat log.
//
// The builder makes one deterministic pass over the wide table. Periods
// are visited in ascending column order per segment — that ordering is
// what makes sold-transition detection correct and it is never re-sorted
// by any other key. All scan state (sold running maxima, group rosters,
// pending payoffs) lives in per-invocation accumulators, so concurrent
// builds never interfere.
package build

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/calebeynon/MarketRuns-sub000/internal/experiment"
	"github.com/calebeynon/MarketRuns-sub000/internal/extract"
	"github.com/calebeynon/MarketRuns-sub000/internal/logging"
)

// Wide-format field names under the player/group prefixes.
const (
	fieldIDInGroup     = "id_in_group"
	fieldRoundNumber   = "round_number_in_segment"
	fieldPeriodInRound = "period_in_round"
	fieldSold          = "sold"
	fieldSellClickTime = "sell_click_time"
	fieldSignal        = "signal"
	fieldPrice         = "price"
	fieldState         = "state"
	fieldPayoff        = "payoff"
	fieldGroupID       = "id_in_subsession"
)

// ErrGroupConflict marks a player observed in two different groups within
// one segment. Upstream data is inconsistent; the session build aborts.
var ErrGroupConflict = errors.New("player assigned to two groups in one segment")

// ErrSoldWithoutHolding marks a sell timestamp on a player whose cumulative
// sold flag never left zero. Upstream data is corrupt.
var ErrSoldWithoutHolding = errors.New("sell timestamp present but holding never sold")

// ErrEmptyExtract is available for callers that treat an empty (but
// structurally valid) build result as a failure. Build itself does not
// return it; it reports emptiness through Report.Empty.
var ErrEmptyExtract = errors.New("wide extract produced no observations")

// Options configures a Builder.
type Options struct {
	// ExperimentName names the resulting Experiment.
	ExperimentName string

	// DefaultSessionCode keys the single session when the wide table has
	// no session.code column.
	DefaultSessionCode string

	// ChannelsPerRound is the number of chat rooms per round of a segment
	// (one per group). Zero means the standard four.
	ChannelsPerRound int
}

// Builder turns a wide table (plus optional chat log) into an Experiment.
// A Builder is cheap and single-use state free; one instance can run many
// builds.
type Builder struct {
	opts Options

	// warnEvery throttles per-cell fallback warnings so a broadly
	// triggering fallback is loud in the log without printing one line
	// per cell. Exact counts always land in the Report.
	warnEvery *rate.Limiter
}

// New creates a Builder.
func New(opts Options) *Builder {
	if opts.ExperimentName == "" {
		opts.ExperimentName = "experiment"
	}
	if opts.DefaultSessionCode == "" {
		opts.DefaultSessionCode = "session"
	}
	if opts.ChannelsPerRound <= 0 {
		opts.ChannelsPerRound = 4
	}
	return &Builder{
		opts:      opts,
		warnEvery: rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

// Build reconstructs the experiment graph. Rows are partitioned into
// sessions by session.code (first-appearance order). A fatal error in one
// session aborts only that session: it is recorded in the Report and the
// remaining sessions still build. Chat may be nil for chat-free builds.
func (b *Builder) Build(table *extract.Table, chat []extract.ChatRow) (*experiment.Experiment, *Report, error) {
	rep := NewReport()

	schema, err := extract.NewSchema(table)
	if err != nil {
		return nil, rep, err
	}

	exp := experiment.New(b.opts.ExperimentName)
	for _, part := range b.partition(table) {
		sess, err := b.buildSession(schema, part.code, part.rows, rep)
		if err != nil {
			rep.SessionErrors[part.code] = err
			logging.Error("session build failed", "session", part.code, "error", err)
			continue
		}
		if chat != nil {
			b.alignChat(sess, chat, rep)
		}
		exp.AddSession(sess)
		rep.Sessions++
	}

	rep.Empty = exp.Empty()
	if rep.Empty {
		logging.Warn("build produced an empty experiment", "build", rep.BuildID)
	}
	return exp, rep, nil
}

// partition splits table rows into per-session row sets, keyed by
// session.code in first-appearance order. Without a session.code column
// every row belongs to the configured default session.
type sessionRows struct {
	code string
	rows []int
}

func (b *Builder) partition(table *extract.Table) []sessionRows {
	var parts []sessionRows
	index := make(map[string]int)
	for i := 0; i < table.Len(); i++ {
		code := table.Cell(i, extract.ColSessionCode)
		if code == "" {
			code = b.opts.DefaultSessionCode
		}
		j, ok := index[code]
		if !ok {
			j = len(parts)
			index[code] = j
			parts = append(parts, sessionRows{code: code})
		}
		parts[j].rows = append(parts[j].rows, i)
	}
	return parts
}

// soldKey scopes the sold-transition accumulator to one (player, segment,
// round). Round numbers only increase along the column order, so the
// running max resets naturally at round boundaries.
type soldKey struct {
	label   string
	segment string
	round   int
}

func (b *Builder) buildSession(schema *extract.Schema, code string, rows []int, rep *Report) (*experiment.Session, error) {
	sess := experiment.NewSession(code)

	soldMax := make(map[soldKey]int)
	transitioned := make(map[soldKey]bool)
	arenas := make(map[string]*groupArena)
	for _, seg := range schema.Segments() {
		arenas[seg] = newGroupArena()
	}

	for _, row := range rows {
		label := schema.Table().Cell(row, extract.ColLabel)
		if label == "" {
			rep.SkippedRows++
			b.warnf("participant row without label skipped", "session", code, "row", row)
			continue
		}
		if pid := schema.Table().Cell(row, extract.ColIDInSession); pid != "" {
			sess.Labels[pid] = label
		}

		for _, segName := range schema.Segments() {
			if err := b.scanParticipantSegment(schema, sess, segName, row, label, soldMax, transitioned, arenas[segName], rep); err != nil {
				return nil, fmt.Errorf("session %s, segment %s, player %s: %w", code, segName, label, err)
			}
		}
	}

	for _, segName := range schema.Segments() {
		if seg := sess.Segment(segName); seg != nil {
			seg.SetGroups(arenas[segName].freeze(segName))
		}
	}

	if meta := schema.Table().Cell(rows[0], extract.ColSessionCode); meta != "" {
		sess.Meta["session.code"] = meta
	}
	return sess, nil
}

// scanParticipantSegment walks every column-period of one segment for one
// participant row, in ascending period order.
func (b *Builder) scanParticipantSegment(
	schema *extract.Schema,
	sess *experiment.Session,
	segName string,
	row int,
	label string,
	soldMax map[soldKey]int,
	transitioned map[soldKey]bool,
	arena *groupArena,
	rep *Report,
) error {
	// Terminal payoff per round, overwritten at every period so the value
	// standing after the scan is the one from the structurally last period
	// of the round for this player. Never read from a fixed period index.
	pend := make(map[int]*float64)
	participated := false

	for _, period := range schema.Periods(segName) {
		idg, ok := extract.Int(schema.PlayerCell(row, segName, period, fieldIDInGroup))
		if !ok {
			// This column-period does not exist for the participant
			// (variable round/period counts across histories).
			rep.SkippedCells++
			continue
		}
		participated = true

		round, ok := extract.Int(schema.PlayerCell(row, segName, period, fieldRoundNumber))
		if !ok {
			round = 1
			rep.FallbackRound++
			b.warnf("round_number_in_segment missing, defaulting to 1",
				"session", sess.Code, "segment", segName, "player", label, "period", period)
		}
		periodInRound, ok := extract.Int(schema.PlayerCell(row, segName, period, fieldPeriodInRound))
		if !ok {
			periodInRound = 1
			rep.FallbackPeriod++
			b.warnf("period_in_round missing, defaulting to 1",
				"session", sess.Code, "segment", segName, "player", label, "period", period)
		}

		soldCum, _ := extract.Int(schema.PlayerCell(row, segName, period, fieldSold))
		sellTS := extract.Float(schema.PlayerCell(row, segName, period, fieldSellClickTime))

		if sellTS != nil && soldCum == 0 {
			return fmt.Errorf("round %d period %d: %w", round, periodInRound, ErrSoldWithoutHolding)
		}

		key := soldKey{label: label, segment: segName, round: round}
		soldThis := !transitioned[key] && (sellTS != nil || soldCum > soldMax[key])
		if soldThis {
			transitioned[key] = true
		}
		if soldCum > soldMax[key] {
			soldMax[key] = soldCum
		}

		state, _ := extract.Int(schema.PlayerCell(row, segName, period, fieldState))

		obs := &experiment.Observation{
			ParticipantID:  schema.Table().Cell(row, extract.ColIDInSession),
			Label:          label,
			IDInGroup:      idg,
			SoldCumulative: soldCum,
			SoldThisPeriod: soldThis,
			Signal:         extract.Float(schema.PlayerCell(row, segName, period, fieldSignal)),
			Price:          extract.Float(schema.PlayerCell(row, segName, period, fieldPrice)),
			SellTimestamp:  sellTS,
			State:          state,
			Payoff:         extract.Float(schema.PlayerCell(row, segName, period, fieldPayoff)),
		}
		sess.EnsureSegment(segName).EnsureRound(round).EnsurePeriod(periodInRound).AddObservation(obs)

		payoffField := fmt.Sprintf("round_%d_payoff", round)
		pend[round] = extract.Float(schema.PlayerCell(row, segName, period, payoffField))

		if gid, ok := extract.Int(schema.GroupCell(row, segName, period, fieldGroupID)); ok {
			if err := arena.add(gid, label); err != nil {
				return err
			}
		}
	}

	if !participated {
		rep.SegmentSkips++
		return nil
	}

	seg := sess.Segment(segName)
	for round, v := range pend {
		if v == nil {
			rep.MissingPayoffs++
			continue
		}
		if err := seg.Round(round).SetTerminalPayoff(label, *v); err != nil {
			return err
		}
	}
	return nil
}

// warnf logs a warning subject to the builder's rate limit.
func (b *Builder) warnf(msg string, keyvals ...interface{}) {
	if b.warnEvery.Allow() {
		logging.Warn(msg, keyvals...)
	}
}
