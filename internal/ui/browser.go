// Package ui is a read-only terminal browser over a built experiment:
// sessions → segments → rounds → periods → observations, with the round
// chat transcript in a scrollable viewport. It navigates the graph through
// its public accessors and never mutates it.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/calebeynon/MarketRuns-sub000/internal/experiment"
)

type level int

const (
	levelSessions level = iota
	levelSegments
	levelRounds
	levelPeriods
	levelPlayers
)

// Model is the drill-down browser state.
type Model struct {
	exp *experiment.Experiment

	lvl     level
	cursors [levelPlayers + 1]int

	// Resolved path for levels above the current one.
	session string
	segment string
	round   int
	period  int

	chat     viewport.Model
	showChat bool

	width, height int
}

// New creates a browser over exp.
func New(exp *experiment.Experiment) Model {
	return Model{exp: exp, chat: viewport.New(0, 0)}
}

// Run opens the browser full-screen and blocks until the user quits.
func Run(exp *experiment.Experiment) error {
	_, err := tea.NewProgram(New(exp), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.chat.Width = msg.Width - 4
		m.chat.Height = msg.Height - 6
		return m, nil

	case tea.KeyMsg:
		if m.showChat {
			switch msg.String() {
			case "q", "esc", "c":
				m.showChat = false
				return m, nil
			}
			var cmd tea.Cmd
			m.chat, cmd = m.chat.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.cursors[m.lvl] > 0 {
				m.cursors[m.lvl]--
			}
		case "down", "j":
			if m.cursors[m.lvl] < len(m.items())-1 {
				m.cursors[m.lvl]++
			}
		case "enter", "l", "right":
			m.descend()
		case "esc", "h", "left", "backspace":
			m.ascend()
		case "c":
			if m.lvl == levelRounds {
				m.openChat()
			}
		}
	}
	return m, nil
}

func (m *Model) descend() {
	items := m.items()
	if len(items) == 0 || m.lvl == levelPlayers {
		return
	}
	switch m.lvl {
	case levelSessions:
		m.session = items[m.cursors[m.lvl]]
	case levelSegments:
		m.segment = items[m.cursors[m.lvl]]
	case levelRounds:
		fmt.Sscanf(items[m.cursors[m.lvl]], "round %d", &m.round)
	case levelPeriods:
		fmt.Sscanf(items[m.cursors[m.lvl]], "period %d", &m.period)
	}
	m.lvl++
	m.cursors[m.lvl] = 0
}

func (m *Model) ascend() {
	if m.lvl > levelSessions {
		m.lvl--
	}
}

func (m *Model) openChat() {
	r := m.currentRound()
	if r == nil {
		return
	}
	var sb strings.Builder
	for _, msg := range r.Chat {
		sb.WriteString(ChatSender.Render(msg.Sender))
		fmt.Fprintf(&sb, "  %s\n", msg.Body)
	}
	if len(r.Chat) == 0 {
		sb.WriteString(DetailLabel.Render("no chat messages for this round"))
	}
	m.chat.SetContent(sb.String())
	m.chat.GotoTop()
	m.showChat = true
}

func (m Model) currentSession() *experiment.Session {
	return m.exp.Session(m.session)
}

func (m Model) currentSegment() *experiment.Segment {
	if s := m.currentSession(); s != nil {
		return s.Segment(m.segment)
	}
	return nil
}

func (m Model) currentRound() *experiment.Round {
	if m.lvl == levelRounds {
		items := m.items()
		if len(items) == 0 {
			return nil
		}
		var idx int
		fmt.Sscanf(items[m.cursors[m.lvl]], "round %d", &idx)
		if sg := m.currentSegment(); sg != nil {
			return sg.Round(idx)
		}
		return nil
	}
	if sg := m.currentSegment(); sg != nil {
		return sg.Round(m.round)
	}
	return nil
}

func (m Model) currentPeriod() *experiment.Period {
	if r := m.currentRound(); r != nil {
		return r.Period(m.period)
	}
	return nil
}

// items lists the entries at the current level.
func (m Model) items() []string {
	switch m.lvl {
	case levelSessions:
		var out []string
		for _, s := range m.exp.Sessions() {
			out = append(out, s.Code)
		}
		return out
	case levelSegments:
		if s := m.currentSession(); s != nil {
			return s.SegmentNames()
		}
	case levelRounds:
		if sg := m.currentSegment(); sg != nil {
			var out []string
			for _, r := range sg.Rounds() {
				out = append(out, fmt.Sprintf("round %d  (%d periods, %d chat)", r.Index, len(r.Periods()), len(r.Chat)))
			}
			return out
		}
	case levelPeriods:
		if r := m.currentRound(); r != nil {
			var out []string
			for _, p := range r.Periods() {
				out = append(out, fmt.Sprintf("period %d  (%d players, %d sold)", p.Index, len(p.Labels()), p.SellerCount()))
			}
			return out
		}
	case levelPlayers:
		if p := m.currentPeriod(); p != nil {
			return p.Labels()
		}
	}
	return nil
}

func (m Model) View() string {
	if m.showChat {
		title := Breadcrumb.Render(fmt.Sprintf("%s / %s / round %d — chat", m.session, m.segment, m.round))
		help := HelpBar.Render("[↑/↓]scroll  [c/esc]back")
		return title + "\n" + m.chat.View() + "\n" + help
	}

	var sb strings.Builder
	sb.WriteString(Breadcrumb.Render(m.breadcrumb()) + "\n\n")

	items := m.items()
	if len(items) == 0 {
		sb.WriteString(DetailLabel.Render("  (empty)") + "\n")
	}
	for i, it := range items {
		if i == m.cursors[m.lvl] {
			sb.WriteString(SelectedItem.Render(it) + "\n")
		} else {
			sb.WriteString(NormalItem.Render(it) + "\n")
		}
	}

	if m.lvl == levelPlayers && len(items) > 0 {
		sb.WriteString("\n" + m.playerDetail(items[m.cursors[m.lvl]]))
	}

	sb.WriteString("\n" + HelpBar.Render(m.helpText()))
	return sb.String()
}

func (m Model) breadcrumb() string {
	parts := []string{m.exp.Name}
	if m.lvl > levelSessions {
		parts = append(parts, m.session)
	}
	if m.lvl > levelSegments {
		parts = append(parts, m.segment)
	}
	if m.lvl > levelRounds {
		parts = append(parts, fmt.Sprintf("round %d", m.round))
	}
	if m.lvl > levelPeriods {
		parts = append(parts, fmt.Sprintf("period %d", m.period))
	}
	return strings.Join(parts, " / ")
}

func (m Model) helpText() string {
	base := "[↑/↓]move  [enter]open  [esc]back  [q]quit"
	if m.lvl == levelRounds {
		return base + "  [c]chat"
	}
	return base
}

// playerDetail renders one observation plus the player's group and the
// round's terminal payoff.
func (m Model) playerDetail(label string) string {
	p := m.currentPeriod()
	if p == nil {
		return ""
	}
	obs := p.Player(label)
	if obs == nil {
		return ""
	}

	var sb strings.Builder
	line := func(name, value string) {
		sb.WriteString("  " + DetailLabel.Render(name+":") + " " + value + "\n")
	}

	line("participant", obs.ParticipantID)
	line("id_in_group", fmt.Sprintf("%d", obs.IDInGroup))
	if sg := m.currentSegment(); sg != nil {
		if g := sg.GroupByPlayer(label); g != nil {
			line("group", fmt.Sprintf("%d %v", g.ID, g.Members()))
		}
	}
	sold := fmt.Sprintf("%d", obs.SoldCumulative)
	if obs.SoldThisPeriod {
		sold += "  " + SoldMarker.Render("← sold this period")
	}
	line("sold", sold)
	line("signal", floatText(obs.Signal))
	line("price", floatText(obs.Price))
	line("sell_timestamp", floatText(obs.SellTimestamp))
	line("state", fmt.Sprintf("%d", obs.State))
	line("payoff", floatText(obs.Payoff))
	if r := m.currentRound(); r != nil {
		if v, ok := r.TerminalPayoff(label); ok {
			line("round payoff", fmt.Sprintf("%.2f", v))
		} else {
			line("round payoff", "—")
		}
	}
	return sb.String()
}

func floatText(p *float64) string {
	if p == nil {
		return "—"
	}
	return fmt.Sprintf("%g", *p)
}
