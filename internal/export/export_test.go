package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/calebeynon/MarketRuns-sub000/internal/experiment"
)

func fptr(v float64) *float64 { return &v }

func testExperiment(t *testing.T) *experiment.Experiment {
	t.Helper()
	exp := experiment.New("test")

	sess := experiment.NewSession("s1")
	seg := sess.EnsureSegment("market")
	r := seg.EnsureRound(1)

	r.EnsurePeriod(1).AddObservation(&experiment.Observation{
		Label: "A", IDInGroup: 1, SoldCumulative: 0, Signal: fptr(0.8),
	})
	r.EnsurePeriod(2).AddObservation(&experiment.Observation{
		Label: "A", IDInGroup: 1, SoldCumulative: 1, SoldThisPeriod: true, Price: fptr(55),
	})
	r.EnsurePeriod(2).AddObservation(&experiment.Observation{
		Label: "B", IDInGroup: 2, SoldCumulative: 0,
	})

	if err := r.SetTerminalPayoff("A", 42.5); err != nil {
		t.Fatal(err)
	}
	if err := r.SetTerminalPayoff("B", 0); err != nil {
		t.Fatal(err)
	}
	seg.SetGroups([]*experiment.Group{experiment.NewGroup(1, "market", []string{"A", "B"})})

	r.AppendChat(experiment.ChatMessage{Sender: "A", Body: "selling now", Timestamp: 10, Seq: 0})
	r.AppendChat(experiment.ChatMessage{Sender: "B", Body: "holding", Timestamp: 11, Seq: 1})

	exp.AddSession(sess)
	return exp
}

func TestSaveExperiment(t *testing.T) {
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	exp := testExperiment(t)
	if err := st.SaveExperiment(exp, "build-1"); err != nil {
		t.Fatalf("SaveExperiment failed: %v", err)
	}

	if n, err := st.PeriodRowCount(); err != nil || n != 3 {
		t.Errorf("period rows: want 3, got %d (%v)", n, err)
	}
	if n, err := st.RoundRowCount(); err != nil || n != 2 {
		t.Errorf("round rows: want 2, got %d (%v)", n, err)
	}
	if n, err := st.ChatCount(); err != nil || n != 2 {
		t.Errorf("chat rows: want 2, got %d (%v)", n, err)
	}
}

func TestSaveExperimentIdempotent(t *testing.T) {
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	exp := testExperiment(t)
	if err := st.SaveExperiment(exp, "build-1"); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := st.SaveExperiment(exp, "build-2"); err != nil {
		t.Fatalf("second save: %v", err)
	}

	// Upsert on the natural keys: counts unchanged after a re-export.
	if n, _ := st.PeriodRowCount(); n != 3 {
		t.Errorf("period rows after re-save: want 3, got %d", n)
	}
	if n, _ := st.RoundRowCount(); n != 2 {
		t.Errorf("round rows after re-save: want 2, got %d", n)
	}
	if n, _ := st.ChatCount(); n != 2 {
		t.Errorf("chat rows after re-save: want 2, got %d", n)
	}
}

func TestWritePeriodCSV(t *testing.T) {
	exp := testExperiment(t)

	var buf bytes.Buffer
	if err := WritePeriodCSV(&buf, exp.PeriodRows(), DefaultCSVConfig()); err != nil {
		t.Fatalf("WritePeriodCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("want header + 3 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "session,segment,round,period,label") {
		t.Errorf("unexpected header: %s", lines[0])
	}

	// Period 2, player A: sold TRUE with price; missing floats render NA.
	if !strings.Contains(lines[2], "TRUE") || !strings.Contains(lines[2], "55") {
		t.Errorf("A's period-2 row wrong: %s", lines[2])
	}
	if !strings.Contains(lines[1], "NA") {
		t.Errorf("missing price should render as NA: %s", lines[1])
	}
}

func TestWriteRoundCSVZeroPayoff(t *testing.T) {
	exp := testExperiment(t)

	var buf bytes.Buffer
	if err := WriteRoundCSV(&buf, exp.RoundRows(), DefaultCSVConfig()); err != nil {
		t.Fatalf("WriteRoundCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("want header + 2 rows, got %d lines", len(lines))
	}

	// B's payoff is exactly zero: "0", never NA.
	var bRow string
	for _, l := range lines[1:] {
		if strings.HasPrefix(l, "s1,market,1,B") {
			bRow = l
		}
	}
	if bRow == "" {
		t.Fatal("B's round row missing")
	}
	fields := strings.Split(bRow, ",")
	if fields[5] != "0" {
		t.Errorf("zero payoff must export as 0, got %q", fields[5])
	}
}

func TestCSVDeterministic(t *testing.T) {
	exp := testExperiment(t)
	cfg := DefaultCSVConfig()

	var a, b bytes.Buffer
	if err := WritePeriodCSV(&a, exp.PeriodRows(), cfg); err != nil {
		t.Fatal(err)
	}
	if err := WritePeriodCSV(&b, exp.PeriodRows(), cfg); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("repeated export must be byte-identical")
	}
}
