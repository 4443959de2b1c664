package build

import (
	"sort"
	"strings"

	"github.com/calebeynon/MarketRuns-sub000/internal/experiment"
	"github.com/calebeynon/MarketRuns-sub000/internal/extract"
	"github.com/calebeynon/MarketRuns-sub000/internal/logging"
)

// alignChat attaches chat messages to rounds. The log carries no round
// number, only a channel string "<const>-<segment>-<n>", so the round is
// inferred: channel numbers are assigned contiguously in round order, one
// channel per group per round, and (n − min) / channelsPerRound + 1 is the
// round. The owning group of a channel is whichever group the first writer
// on it belongs to.
//
// The contiguity assumption is a known fragility: gaps in the observed
// channel sequence shift round attribution. Gaps are counted and surfaced
// in the Report rather than silently trusted.
func (b *Builder) alignChat(sess *experiment.Session, chat []extract.ChatRow, rep *Report) {
	for _, segName := range sess.SegmentNames() {
		b.alignSegmentChat(sess, segName, chat, rep)
	}
}

func (b *Builder) alignSegmentChat(sess *experiment.Session, segName string, chat []extract.ChatRow, rep *Report) {
	seg := sess.Segment(segName)

	// Pass 1: filter to this segment, collect channel numbers, resolve
	// channel ownership first-writer-wins. Input order is file order, so
	// the first resolvable sender on a channel decides.
	var rows []extract.ChatRow
	numbers := make(map[int]bool)
	chanGroup := make(map[int]int)
	dropped := 0
	for _, row := range chat {
		if row.SessionCode != "" && row.SessionCode != sess.Code {
			continue
		}
		if !strings.Contains(row.Channel, segName) {
			continue
		}
		n, ok := extract.ChannelNumber(row.Channel)
		if !ok {
			dropped++
			continue
		}
		rows = append(rows, row)
		numbers[n] = true
		if _, have := chanGroup[n]; !have {
			if g := seg.GroupByPlayer(row.Nickname); g != nil {
				chanGroup[n] = g.ID
			}
		}
	}
	if len(numbers) == 0 {
		// Chat-free segment, or all of its traffic had malformed channels.
		if dropped > 0 {
			rep.DroppedMessages[segName] += dropped
			logging.Warn("chat messages dropped: no parseable channel numbers for segment",
				"session", sess.Code, "segment", segName, "dropped", dropped)
		}
		return
	}

	sorted := make([]int, 0, len(numbers))
	for n := range numbers {
		sorted = append(sorted, n)
	}
	sort.Ints(sorted)
	minChannel := sorted[0]
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1]+1 {
			rep.ChannelGaps++
		}
	}
	for _, n := range sorted {
		if _, ok := chanGroup[n]; !ok {
			rep.UnattributedChannels++
		}
	}

	// Pass 2: resolve each message to its round and collect per-round.
	perRound := make(map[int][]experiment.ChatMessage)
	for _, row := range rows {
		n, _ := extract.ChannelNumber(row.Channel)
		if _, owned := chanGroup[n]; !owned {
			dropped++
			continue
		}
		round := (n-minChannel)/b.opts.ChannelsPerRound + 1
		perRound[round] = append(perRound[round], experiment.ChatMessage{
			Sender:          row.Nickname,
			Body:            row.Body,
			Timestamp:       row.Timestamp,
			ParticipantCode: row.ParticipantCode,
			Seq:             row.Seq,
		})
	}

	attached := 0
	roundIdx := make([]int, 0, len(perRound))
	for r := range perRound {
		roundIdx = append(roundIdx, r)
	}
	sort.Ints(roundIdx)
	for _, r := range roundIdx {
		msgs := perRound[r]
		sort.SliceStable(msgs, func(i, j int) bool {
			if msgs[i].Timestamp != msgs[j].Timestamp {
				return msgs[i].Timestamp < msgs[j].Timestamp
			}
			return msgs[i].Seq < msgs[j].Seq
		})
		round := seg.EnsureRound(r)
		for _, m := range msgs {
			round.AppendChat(m)
			attached++
		}
	}

	rep.AttachedMessages += attached
	if dropped > 0 {
		rep.DroppedMessages[segName] += dropped
		logging.Warn("chat messages dropped: channel not attributable to any group",
			"session", sess.Code, "segment", segName, "dropped", dropped)
	}
}
