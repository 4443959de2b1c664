// Package export persists the flatten projections of a built experiment:
// a sqlite database for downstream query tooling and CSV for
// regression-ready tabular analysis. Exporters read the graph through its
// public projections only and never mutate it.
package export

import (
	"database/sql"
	"fmt"

	"github.com/calebeynon/MarketRuns-sub000/internal/experiment"
	"github.com/calebeynon/MarketRuns-sub000/internal/logging"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// Store writes built experiments to a sqlite database.
type Store struct {
	db *sql.DB
}

// Open creates (or opens) the database at path and applies migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS period_obs (
		session TEXT NOT NULL,
		segment TEXT NOT NULL,
		round INTEGER NOT NULL,
		period INTEGER NOT NULL,
		label TEXT NOT NULL,
		participant_id TEXT,
		group_id INTEGER,
		id_in_group INTEGER,
		sold_cumulative INTEGER NOT NULL,
		sold_this_period INTEGER NOT NULL,
		signal REAL,
		price REAL,
		sell_timestamp REAL,
		state INTEGER,
		payoff REAL,
		build_id TEXT,
		PRIMARY KEY (session, segment, round, period, label)
	);

	CREATE INDEX IF NOT EXISTS idx_period_obs_player ON period_obs(session, label);
	CREATE INDEX IF NOT EXISTS idx_period_obs_group ON period_obs(session, segment, group_id);

	CREATE TABLE IF NOT EXISTS round_summary (
		session TEXT NOT NULL,
		segment TEXT NOT NULL,
		round INTEGER NOT NULL,
		label TEXT NOT NULL,
		group_id INTEGER,
		terminal_payoff REAL,
		sold_period INTEGER NOT NULL,
		period_count INTEGER NOT NULL,
		seller_count INTEGER NOT NULL,
		mean_sale_price REAL,
		chat_count INTEGER NOT NULL,
		build_id TEXT,
		PRIMARY KEY (session, segment, round, label)
	);

	CREATE TABLE IF NOT EXISTS chat_messages (
		session TEXT NOT NULL,
		segment TEXT NOT NULL,
		round INTEGER NOT NULL,
		seq INTEGER NOT NULL,
		sender TEXT,
		body TEXT,
		timestamp REAL,
		participant_code TEXT,
		build_id TEXT,
		PRIMARY KEY (session, segment, round, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_chat_round ON chat_messages(session, segment, round);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveExperiment writes the period rows, round rows, and chat transcripts
// of exp in one transaction. Re-exporting the same keys upserts, so the
// export is idempotent per experiment.
func (s *Store) SaveExperiment(exp *experiment.Experiment, buildID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := savePeriodRows(tx, exp.PeriodRows(), buildID); err != nil {
		return fmt.Errorf("period rows: %w", err)
	}
	if err := saveRoundRows(tx, exp.RoundRows(), buildID); err != nil {
		return fmt.Errorf("round rows: %w", err)
	}
	if err := saveChat(tx, exp, buildID); err != nil {
		return fmt.Errorf("chat: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logging.Info("experiment exported", "name", exp.Name, "build", buildID)
	return nil
}

func savePeriodRows(tx *sql.Tx, rows []experiment.PeriodRow, buildID string) error {
	stmt, err := tx.Prepare(`
		INSERT INTO period_obs (session, segment, round, period, label, participant_id, group_id,
			id_in_group, sold_cumulative, sold_this_period, signal, price, sell_timestamp, state, payoff, build_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session, segment, round, period, label) DO UPDATE SET
			participant_id = excluded.participant_id,
			group_id = excluded.group_id,
			id_in_group = excluded.id_in_group,
			sold_cumulative = excluded.sold_cumulative,
			sold_this_period = excluded.sold_this_period,
			signal = excluded.signal,
			price = excluded.price,
			sell_timestamp = excluded.sell_timestamp,
			state = excluded.state,
			payoff = excluded.payoff,
			build_id = excluded.build_id
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		sold := 0
		if r.SoldThisPeriod {
			sold = 1
		}
		if _, err := stmt.Exec(
			r.Session, r.Segment, r.Round, r.Period, r.Label, r.ParticipantID, intPtr(r.GroupID),
			r.IDInGroup, r.SoldCumulative, sold, floatPtr(r.Signal), floatPtr(r.Price),
			floatPtr(r.SellTimestamp), r.State, floatPtr(r.Payoff), buildID,
		); err != nil {
			return err
		}
	}
	return nil
}

func saveRoundRows(tx *sql.Tx, rows []experiment.RoundRow, buildID string) error {
	stmt, err := tx.Prepare(`
		INSERT INTO round_summary (session, segment, round, label, group_id, terminal_payoff,
			sold_period, period_count, seller_count, mean_sale_price, chat_count, build_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session, segment, round, label) DO UPDATE SET
			group_id = excluded.group_id,
			terminal_payoff = excluded.terminal_payoff,
			sold_period = excluded.sold_period,
			period_count = excluded.period_count,
			seller_count = excluded.seller_count,
			mean_sale_price = excluded.mean_sale_price,
			chat_count = excluded.chat_count,
			build_id = excluded.build_id
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(
			r.Session, r.Segment, r.Round, r.Label, intPtr(r.GroupID), floatPtr(r.TerminalPayoff),
			r.SoldPeriod, r.PeriodCount, r.SellerCount, floatPtr(r.MeanSalePrice), r.ChatCount, buildID,
		); err != nil {
			return err
		}
	}
	return nil
}

func saveChat(tx *sql.Tx, exp *experiment.Experiment, buildID string) error {
	stmt, err := tx.Prepare(`
		INSERT INTO chat_messages (session, segment, round, seq, sender, body, timestamp, participant_code, build_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session, segment, round, seq) DO UPDATE SET
			sender = excluded.sender,
			body = excluded.body,
			timestamp = excluded.timestamp,
			participant_code = excluded.participant_code,
			build_id = excluded.build_id
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, sess := range exp.Sessions() {
		for _, name := range sess.SegmentNames() {
			seg := sess.Segment(name)
			for _, round := range seg.Rounds() {
				for _, m := range round.Chat {
					if _, err := stmt.Exec(
						sess.Code, seg.Name, round.Index, m.Seq,
						m.Sender, m.Body, m.Timestamp, m.ParticipantCode, buildID,
					); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// PeriodRowCount returns the number of exported period observations.
func (s *Store) PeriodRowCount() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM period_obs").Scan(&n)
	return n, err
}

// RoundRowCount returns the number of exported round summaries.
func (s *Store) RoundRowCount() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM round_summary").Scan(&n)
	return n, err
}

// ChatCount returns the number of exported chat messages.
func (s *Store) ChatCount() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM chat_messages").Scan(&n)
	return n, err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// intPtr and floatPtr pass nil through to SQL NULL.
func intPtr(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func floatPtr(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
