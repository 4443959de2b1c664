package extract

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ChatRow is one raw line of the chat log export. Seq is the row's position
// in the file and is the tiebreaker for equal timestamps downstream.
type ChatRow struct {
	SessionCode     string
	Channel         string
	Nickname        string
	Body            string
	Timestamp       float64
	ParticipantCode string
	IDInSession     string
	Seq             int
}

// LoadChat reads the chat log CSV from r. Rows without a parseable
// timestamp are kept with a zero timestamp rather than dropped; alignment
// decides what to do with them.
func LoadChat(r io.Reader) ([]ChatRow, error) {
	t, err := LoadTable(r)
	if err != nil {
		return nil, fmt.Errorf("chat log: %w", err)
	}
	for _, col := range []string{"channel", "body"} {
		if !t.HasColumn(col) {
			return nil, fmt.Errorf("chat log: required column %q missing", col)
		}
	}

	rows := make([]ChatRow, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		ts, _ := strconv.ParseFloat(t.Cell(i, "timestamp"), 64)
		rows = append(rows, ChatRow{
			SessionCode:     t.Cell(i, "session_code"),
			Channel:         t.Cell(i, "channel"),
			Nickname:        t.Cell(i, "nickname"),
			Body:            t.Cell(i, "body"),
			Timestamp:       ts,
			ParticipantCode: t.Cell(i, "participant_code"),
			IDInSession:     t.Cell(i, "id_in_session"),
			Seq:             i,
		})
	}
	return rows, nil
}

// LoadChatFile reads the chat log CSV from disk.
func LoadChatFile(path string) ([]ChatRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return LoadChat(f)
}

// ChannelNumber extracts the trailing integer of a channel string of the
// shape "<const>-<segment>-<int>". The second return is false when the
// channel has no trailing number.
func ChannelNumber(channel string) (int, bool) {
	i := strings.LastIndex(channel, "-")
	if i < 0 || i == len(channel)-1 {
		return 0, false
	}
	n, err := strconv.Atoi(channel[i+1:])
	if err != nil {
		return 0, false
	}
	return n, true
}
