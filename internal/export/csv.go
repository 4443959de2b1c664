package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/calebeynon/MarketRuns-sub000/internal/experiment"
)

// CSVConfig controls the tabular output format.
type CSVConfig struct {
	// NAString marks missing values. "NA" reads cleanly in R and pandas.
	NAString string

	// Precision is the number of decimal places for floats; -1 uses the
	// shortest exact representation.
	Precision int
}

// DefaultCSVConfig returns the standard export format.
func DefaultCSVConfig() CSVConfig {
	return CSVConfig{NAString: "NA", Precision: -1}
}

var periodHeader = []string{
	"session", "segment", "round", "period", "label", "participant_id", "group_id",
	"id_in_group", "sold_cumulative", "sold_this_period", "signal", "price",
	"sell_timestamp", "state", "payoff",
}

var roundHeader = []string{
	"session", "segment", "round", "label", "group_id", "terminal_payoff",
	"sold_period", "period_count", "seller_count", "mean_sale_price", "chat_count",
}

// WritePeriodCSV writes the period-level flatten to w. The projection is
// pure, so writing the same experiment twice yields byte-identical output.
func WritePeriodCSV(w io.Writer, rows []experiment.PeriodRow, cfg CSVConfig) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(periodHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			r.Session,
			r.Segment,
			strconv.Itoa(r.Round),
			strconv.Itoa(r.Period),
			r.Label,
			naString(r.ParticipantID, cfg),
			intOrNA(r.GroupID, cfg),
			strconv.Itoa(r.IDInGroup),
			strconv.Itoa(r.SoldCumulative),
			boolString(r.SoldThisPeriod),
			floatOrNA(r.Signal, cfg),
			floatOrNA(r.Price, cfg),
			floatOrNA(r.SellTimestamp, cfg),
			strconv.Itoa(r.State),
			floatOrNA(r.Payoff, cfg),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRoundCSV writes the round-level flatten to w.
func WriteRoundCSV(w io.Writer, rows []experiment.RoundRow, cfg CSVConfig) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(roundHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			r.Session,
			r.Segment,
			strconv.Itoa(r.Round),
			r.Label,
			intOrNA(r.GroupID, cfg),
			floatOrNA(r.TerminalPayoff, cfg),
			strconv.Itoa(r.SoldPeriod),
			strconv.Itoa(r.PeriodCount),
			strconv.Itoa(r.SellerCount),
			floatOrNA(r.MeanSalePrice, cfg),
			strconv.Itoa(r.ChatCount),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func floatOrNA(p *float64, cfg CSVConfig) string {
	if p == nil {
		return cfg.NAString
	}
	return strconv.FormatFloat(*p, 'f', cfg.Precision, 64)
}

func intOrNA(p *int, cfg CSVConfig) string {
	if p == nil {
		return cfg.NAString
	}
	return strconv.Itoa(*p)
}

func naString(s string, cfg CSVConfig) string {
	if s == "" {
		return cfg.NAString
	}
	return s
}

// boolString renders booleans the way R and pandas parse natively.
func boolString(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}
