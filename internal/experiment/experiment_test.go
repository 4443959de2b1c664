package experiment

import (
	"reflect"
	"testing"
)

func fptr(v float64) *float64 { return &v }

// sampleExperiment builds a small two-session graph by hand: session s1 has
// a market segment with one two-period round and two players, s2 is minimal.
func sampleExperiment(t *testing.T) *Experiment {
	t.Helper()
	exp := New("sample")

	s1 := NewSession("s1")
	seg := s1.EnsureSegment("market")
	r := seg.EnsureRound(1)

	p1 := r.EnsurePeriod(1)
	p1.AddObservation(&Observation{Label: "A", IDInGroup: 1, SoldCumulative: 0})
	p1.AddObservation(&Observation{Label: "B", IDInGroup: 2, SoldCumulative: 0})

	p2 := r.EnsurePeriod(2)
	p2.AddObservation(&Observation{Label: "A", IDInGroup: 1, SoldCumulative: 1, SoldThisPeriod: true, Price: fptr(55)})
	p2.AddObservation(&Observation{Label: "B", IDInGroup: 2, SoldCumulative: 0})

	if err := r.SetTerminalPayoff("A", 42.5); err != nil {
		t.Fatalf("SetTerminalPayoff: %v", err)
	}
	if err := r.SetTerminalPayoff("B", 0); err != nil {
		t.Fatalf("SetTerminalPayoff: %v", err)
	}
	seg.SetGroups([]*Group{NewGroup(1, "market", []string{"B", "A"})})

	s2 := NewSession("s2")
	s2.EnsureSegment("market").EnsureRound(1).EnsurePeriod(1).
		AddObservation(&Observation{Label: "C", IDInGroup: 1})

	exp.AddSession(s1)
	exp.AddSession(s2)
	return exp
}

func TestNavigationNilSafety(t *testing.T) {
	exp := sampleExperiment(t)

	if exp.Session("missing") != nil {
		t.Error("unknown session must be nil")
	}
	if exp.Session("s1").Segment("forecast") != nil {
		t.Error("unknown segment must be nil")
	}
	if exp.Session("s1").Round("forecast", 1) != nil {
		t.Error("round through unknown segment must be nil")
	}
	if exp.Session("s1").Round("market", 9) != nil {
		t.Error("unknown round must be nil")
	}
	if exp.Session("s1").Round("market", 1).Period(9) != nil {
		t.Error("unknown period must be nil")
	}
	if exp.Session("s1").Round("market", 1).Period(1).Player("Z") != nil {
		t.Error("unknown player must be nil")
	}
}

func TestAddSessionDedupes(t *testing.T) {
	exp := New("x")
	exp.AddSession(NewSession("s1"))
	exp.AddSession(NewSession("s1"))
	if len(exp.Sessions()) != 1 {
		t.Errorf("duplicate code should be ignored, have %d sessions", len(exp.Sessions()))
	}
}

func TestGroupRoster(t *testing.T) {
	g := sampleExperiment(t).Session("s1").Segment("market").Group(1)
	if g == nil {
		t.Fatal("group 1 missing")
	}
	if got := g.Members(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("members not sorted: %v", got)
	}
	if !g.Contains("A") || g.Contains("Z") {
		t.Error("Contains misbehaving")
	}
}

func TestSetTerminalPayoffTwiceFails(t *testing.T) {
	r := newRound(1)
	if err := r.SetTerminalPayoff("A", 1); err != nil {
		t.Fatalf("first set: %v", err)
	}
	if err := r.SetTerminalPayoff("A", 2); err == nil {
		t.Fatal("second set for the same label must fail")
	}
	if v, _ := r.TerminalPayoff("A"); v != 1 {
		t.Errorf("failed set must not overwrite; got %v", v)
	}
}

func TestSoldPeriodAndSellers(t *testing.T) {
	r := sampleExperiment(t).Session("s1").Round("market", 1)
	if got := r.SoldPeriod("A"); got != 2 {
		t.Errorf("A sold in period 2, got %d", got)
	}
	if got := r.SoldPeriod("B"); got != 0 {
		t.Errorf("B never sold, got %d", got)
	}
	if got := r.Period(2).Sellers(); !reflect.DeepEqual(got, []string{"A"}) {
		t.Errorf("period 2 sellers: %v", got)
	}
	if mean, ok := r.Period(2).MeanSalePrice(); !ok || mean != 55 {
		t.Errorf("mean sale price: got %v,%v", mean, ok)
	}
	if _, ok := r.Period(1).MeanSalePrice(); ok {
		t.Error("period without sellers has no mean price")
	}
}

func TestPeriodRowsOrderingAndContent(t *testing.T) {
	exp := sampleExperiment(t)
	rows := exp.PeriodRows()
	if len(rows) != 5 {
		t.Fatalf("want 5 period rows, got %d", len(rows))
	}

	// s1 before s2 (insertion order), periods ascending, labels sorted.
	want := []struct {
		sess  string
		per   int
		label string
	}{
		{"s1", 1, "A"}, {"s1", 1, "B"}, {"s1", 2, "A"}, {"s1", 2, "B"}, {"s2", 1, "C"},
	}
	for i, w := range want {
		if rows[i].Session != w.sess || rows[i].Period != w.per || rows[i].Label != w.label {
			t.Errorf("row %d: got (%s,%d,%s), want (%s,%d,%s)",
				i, rows[i].Session, rows[i].Period, rows[i].Label, w.sess, w.per, w.label)
		}
	}

	if rows[2].GroupID == nil || *rows[2].GroupID != 1 {
		t.Error("A's group id should resolve to 1")
	}
	if rows[4].GroupID != nil {
		t.Error("C has no group; id must stay nil")
	}
	if !rows[2].SoldThisPeriod || rows[3].SoldThisPeriod {
		t.Error("sold flags misplaced in period rows")
	}
}

func TestRoundRowsAggregates(t *testing.T) {
	exp := sampleExperiment(t)
	rows := exp.RoundRows()
	if len(rows) != 3 {
		t.Fatalf("want 3 round rows, got %d", len(rows))
	}

	a := rows[0]
	if a.Label != "A" || a.SoldPeriod != 2 || a.PeriodCount != 2 || a.SellerCount != 1 {
		t.Errorf("unexpected A round row: %+v", a)
	}
	if a.TerminalPayoff == nil || *a.TerminalPayoff != 42.5 {
		t.Errorf("A terminal payoff: %v", a.TerminalPayoff)
	}
	if a.MeanSalePrice == nil || *a.MeanSalePrice != 55 {
		t.Errorf("mean sale price: %v", a.MeanSalePrice)
	}

	b := rows[1]
	if b.TerminalPayoff == nil || *b.TerminalPayoff != 0 {
		t.Errorf("B's zero payoff must be a value, got %v", b.TerminalPayoff)
	}

	c := rows[2]
	if c.TerminalPayoff != nil {
		t.Errorf("C has no payoff recorded; must be nil, got %v", c.TerminalPayoff)
	}
}

func TestFlattenDeterministic(t *testing.T) {
	exp := sampleExperiment(t)
	first := exp.PeriodRows()
	second := exp.PeriodRows()
	if !reflect.DeepEqual(first, second) {
		t.Error("PeriodRows must be identical across calls")
	}
	if !reflect.DeepEqual(exp.RoundRows(), exp.RoundRows()) {
		t.Error("RoundRows must be identical across calls")
	}
}

func TestEmpty(t *testing.T) {
	exp := New("x")
	if !exp.Empty() {
		t.Error("new experiment is empty")
	}
	// A session with structure but no observations is still empty.
	s := NewSession("s1")
	s.EnsureSegment("market").EnsureRound(1).EnsurePeriod(1)
	exp.AddSession(s)
	if !exp.Empty() {
		t.Error("observation-free graph is still empty")
	}

	if sampleExperiment(t).Empty() {
		t.Error("populated experiment is not empty")
	}
}
