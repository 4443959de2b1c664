package build

import (
	"fmt"
	"testing"

	"github.com/calebeynon/MarketRuns-sub000/internal/extract"
)

// chatFixture builds a two-group, one-round wide table so that chat
// alignment has groups to attribute channels to.
func chatFixture(t *testing.T) *extract.Table {
	t.Helper()
	f := newFixture("market", 1, 1)
	for _, who := range []struct{ label, id, gid string }{
		{"A", "1", "1"}, {"B", "2", "1"}, {"C", "3", "2"}, {"D", "4", "2"},
	} {
		f.addRow(t, merge(
			map[string]string{"participant.label": who.label, "participant.id_in_session": who.id, "session.code": "s1"},
			playerCells("market", 1, 1, 1, "0"),
			map[string]string{"market.1.group.id_in_subsession": who.gid},
		))
	}
	return f.table(t)
}

func chatRow(channel, nick string, ts float64, seq int) extract.ChatRow {
	return extract.ChatRow{
		SessionCode: "s1",
		Channel:     channel,
		Nickname:    nick,
		Body:        fmt.Sprintf("msg %d", seq),
		Timestamp:   ts,
		Seq:         seq,
	}
}

func TestChatRoundInference(t *testing.T) {
	// Channels 5..12, four rooms per round: 5-8 are round 1, 9-12 round 2.
	// The numbering base is the minimum observed, not a fixed origin.
	var chat []extract.ChatRow
	for n := 5; n <= 12; n++ {
		chat = append(chat, chatRow(fmt.Sprintf("729376-market-%d", n), "A", float64(n), n-5))
	}

	exp, rep, err := New(Options{}).Build(chatFixture(t), chat)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	seg := exp.Session("s1").Segment("market")
	if got := len(seg.Round(1).Chat); got != 4 {
		t.Errorf("round 1: want 4 messages, got %d", got)
	}
	r2 := seg.Round(2)
	if r2 == nil {
		t.Fatal("round 2 should exist for inferred chat even without observations")
	}
	if got := len(r2.Chat); got != 4 {
		t.Errorf("round 2: want 4 messages, got %d", got)
	}
	if rep.AttachedMessages != 8 {
		t.Errorf("want 8 attached, got %d", rep.AttachedMessages)
	}
	if rep.DroppedTotal() != 0 {
		t.Errorf("want 0 dropped, got %d", rep.DroppedTotal())
	}
}

func TestChatUnattributedChannelDropped(t *testing.T) {
	chat := []extract.ChatRow{
		chatRow("729376-market-5", "A", 1, 0),
		// Unknown nickname: channel 6 never gets an owner, its traffic drops.
		chatRow("729376-market-6", "ghost", 2, 1),
		chatRow("729376-market-6", "ghost", 3, 2),
	}

	_, rep, err := New(Options{}).Build(chatFixture(t), chat)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if rep.UnattributedChannels != 1 {
		t.Errorf("want 1 unattributed channel, got %d", rep.UnattributedChannels)
	}
	if rep.AttachedMessages != 1 || rep.DroppedMessages["market"] != 2 {
		t.Errorf("want 1 attached / 2 dropped, got %d / %d",
			rep.AttachedMessages, rep.DroppedMessages["market"])
	}
	// Partition completeness: every filtered message is attached or counted.
	if rep.AttachedMessages+rep.DroppedTotal() != len(chat) {
		t.Error("attached + dropped must cover every message")
	}
}

func TestChatTimestampOrdering(t *testing.T) {
	// Out-of-order timestamps plus a tie broken by file order.
	chat := []extract.ChatRow{
		chatRow("729376-market-5", "A", 30, 0),
		chatRow("729376-market-5", "B", 10, 1),
		chatRow("729376-market-5", "A", 20, 2),
		chatRow("729376-market-5", "B", 20, 3),
	}

	exp, _, err := New(Options{}).Build(chatFixture(t), chat)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	msgs := exp.Session("s1").Round("market", 1).Chat
	if len(msgs) != 4 {
		t.Fatalf("want 4 messages, got %d", len(msgs))
	}
	wantSeq := []int{1, 2, 3, 0}
	for i, w := range wantSeq {
		if msgs[i].Seq != w {
			t.Errorf("position %d: want seq %d, got %d", i, w, msgs[i].Seq)
		}
	}
}

func TestChatChannelGapCounted(t *testing.T) {
	chat := []extract.ChatRow{
		chatRow("729376-market-5", "A", 1, 0),
		chatRow("729376-market-6", "B", 2, 1),
		chatRow("729376-market-8", "C", 3, 2),
	}

	_, rep, err := New(Options{}).Build(chatFixture(t), chat)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if rep.ChannelGaps != 1 {
		t.Errorf("want 1 channel gap, got %d", rep.ChannelGaps)
	}
}

func TestChatFiltersOtherSessionsAndSegments(t *testing.T) {
	chat := []extract.ChatRow{
		chatRow("729376-market-5", "A", 1, 0),
		{SessionCode: "s9", Channel: "729376-market-5", Nickname: "A", Body: "other session", Timestamp: 2, Seq: 1},
		chatRow("729376-forecast-5", "A", 3, 2),
	}

	exp, rep, err := New(Options{}).Build(chatFixture(t), chat)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if rep.AttachedMessages != 1 {
		t.Errorf("want 1 attached, got %d", rep.AttachedMessages)
	}
	msgs := exp.Session("s1").Round("market", 1).Chat
	if len(msgs) != 1 || msgs[0].Body != "msg 0" {
		t.Errorf("unexpected transcript: %+v", msgs)
	}
}

func TestChatMalformedChannelDropped(t *testing.T) {
	chat := []extract.ChatRow{
		chatRow("729376-market-5", "A", 1, 0),
		chatRow("market-broken-", "B", 2, 1),
	}

	_, rep, err := New(Options{}).Build(chatFixture(t), chat)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if rep.DroppedMessages["market"] != 1 {
		t.Errorf("want 1 dropped for malformed channel, got %d", rep.DroppedMessages["market"])
	}
}

func TestChatAllChannelsMalformed(t *testing.T) {
	// Every message for the segment carries an unparseable channel: the
	// aligner must drop and count them all, never crash.
	chat := []extract.ChatRow{
		chatRow("market-broken-", "A", 1, 0),
		chatRow("market-alsobad-x", "B", 2, 1),
	}

	exp, rep, err := New(Options{}).Build(chatFixture(t), chat)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if rep.DroppedMessages["market"] != 2 {
		t.Errorf("want 2 dropped, got %d", rep.DroppedMessages["market"])
	}
	if rep.AttachedMessages != 0 {
		t.Errorf("want 0 attached, got %d", rep.AttachedMessages)
	}
	if got := len(exp.Session("s1").Round("market", 1).Chat); got != 0 {
		t.Errorf("no messages should attach, got %d", got)
	}
}
