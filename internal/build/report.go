package build

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Report aggregates the data-quality accounting of one build. Warnings are
// counted here and summarized once at the end instead of interleaved one
// line per row, so a reviewer can judge the extract in one place. The
// BuildID ties exported tables and log lines back to this build.
type Report struct {
	BuildID string

	Sessions int
	Empty    bool

	// Missing-data warnings (recoverable).
	SkippedRows    int // participant rows without a label
	SkippedCells   int // column-periods with no id_in_group for the participant
	SegmentSkips   int // (participant, segment) pairs with no data at all
	FallbackRound  int // round_number_in_segment missing, defaulted to 1
	FallbackPeriod int // period_in_round missing, defaulted to 1
	MissingPayoffs int // terminal payoff absent at the round's last period

	// Chat alignment.
	AttachedMessages     int
	DroppedMessages      map[string]int // per segment
	UnattributedChannels int
	ChannelGaps          int // breaks in the contiguous channel-number assumption

	// Fatal per-session errors; these sessions are absent from the result.
	SessionErrors map[string]error
}

// NewReport creates an empty report with a fresh build id.
func NewReport() *Report {
	return &Report{
		BuildID:         uuid.NewString(),
		DroppedMessages: make(map[string]int),
		SessionErrors:   make(map[string]error),
	}
}

// DroppedTotal returns the total dropped chat messages across segments.
func (r *Report) DroppedTotal() int {
	n := 0
	for _, c := range r.DroppedMessages {
		n += c
	}
	return n
}

// FallbacksBroad reports whether the round/period default policy triggered
// often enough to suggest the extract is missing structural fields rather
// than having the occasional hole.
func (r *Report) FallbacksBroad() bool {
	return r.FallbackRound+r.FallbackPeriod > 10
}

// String renders the end-of-build summary.
func (r *Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "build %s: %d session(s)", r.BuildID, r.Sessions)
	if r.Empty {
		sb.WriteString(" (EMPTY RESULT)")
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "  skipped: %d unlabeled row(s), %d absent column-period(s), %d participant-segment(s) without data\n",
		r.SkippedRows, r.SkippedCells, r.SegmentSkips)
	fmt.Fprintf(&sb, "  fallback defaults: round=%d period=%d", r.FallbackRound, r.FallbackPeriod)
	if r.FallbacksBroad() {
		sb.WriteString("  << BROAD: structural fields likely missing from extract")
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "  payoffs missing at final period: %d\n", r.MissingPayoffs)

	fmt.Fprintf(&sb, "  chat: %d attached, %d dropped, %d unattributed channel(s), %d channel gap(s)\n",
		r.AttachedMessages, r.DroppedTotal(), r.UnattributedChannels, r.ChannelGaps)
	if len(r.DroppedMessages) > 0 {
		segs := make([]string, 0, len(r.DroppedMessages))
		for s := range r.DroppedMessages {
			segs = append(segs, s)
		}
		sort.Strings(segs)
		for _, s := range segs {
			fmt.Fprintf(&sb, "    %s: %d dropped\n", s, r.DroppedMessages[s])
		}
	}

	if len(r.SessionErrors) > 0 {
		codes := make([]string, 0, len(r.SessionErrors))
		for c := range r.SessionErrors {
			codes = append(codes, c)
		}
		sort.Strings(codes)
		for _, c := range codes {
			fmt.Fprintf(&sb, "  FAILED session %s: %v\n", c, r.SessionErrors[c])
		}
	}
	return sb.String()
}
