package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"SignalDesk/internal/domain/models"
)

var csvHeader = []string{
	"trade_id", "symbol", "tf", "setup", "status",
	"entry_min", "entry_max", "sl", "tp1", "tp2", "rr", "risk_pct",
	"tp1_price", "tp2_price", "fill_price", "exit_price", "pnl",
	"decision", "why", "risk_note",
	"created_at", "updated_at",
}

// Persister is the durable backend for the journal ledger.
type Persister interface {
	// Persist writes the full ledger snapshot, one row per trade id.
	Persist(entries []*models.JournalEntry) error
	// Load rebuilds the ledger from the durable copy, if any.
	Load() ([]*models.JournalEntry, error)
}

// CSVPersister stores the ledger as a CSV file. Each persist rewrites the
// whole table to a temp file and renames it over the old one, so a crash
// mid-write never leaves a truncated ledger behind.
type CSVPersister struct {
	path string
}

// NewCSVPersister creates the parent directory if needed.
func NewCSVPersister(path string) (*CSVPersister, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("journal dir: %w", err)
		}
	}
	return &CSVPersister{path: path}, nil
}

func (p *CSVPersister) Persist(entries []*models.JournalEntry) error {
	tmp, err := os.CreateTemp(filepath.Dir(p.path), ".journal-*.csv")
	if err != nil {
		return fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeCSV(tmp, entries); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func (p *CSVPersister) Load() ([]*models.JournalEntry, error) {
	f, err := os.Open(p.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	entries := make([]*models.JournalEntry, 0, len(records)-1)
	for _, rec := range records[1:] {
		e, err := rowToEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("ledger row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func writeCSV(w io.Writer, entries []*models.JournalEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range entries {
		if err := cw.Write(entryToRow(e)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func entryToRow(e *models.JournalEntry) []string {
	return []string{
		e.TradeID, e.Symbol, e.Timeframe, e.Setup, string(e.Status),
		floatCol(e.EntryMin), floatCol(e.EntryMax), floatCol(e.SL),
		floatCol(e.TP1), floatCol(e.TP2), floatCol(e.RR), floatCol(e.RiskPct),
		floatCol(e.TP1Price), floatCol(e.TP2Price), floatCol(e.FillPrice),
		floatCol(e.ExitPrice), floatCol(e.PnL),
		e.Decision, e.Why, e.RiskNote,
		e.CreatedAt.UTC().Format(time.RFC3339),
		e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func rowToEntry(rec []string) (*models.JournalEntry, error) {
	if len(rec) != len(csvHeader) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(rec))
	}
	e := &models.JournalEntry{
		TradeID:   rec[0],
		Symbol:    rec[1],
		Timeframe: rec[2],
		Setup:     rec[3],
		Status:    models.Status(rec[4]),
		Decision:  rec[17],
		Why:       rec[18],
		RiskNote:  rec[19],
	}
	e.EntryMin = colFloat(rec[5])
	e.EntryMax = colFloat(rec[6])
	e.SL = colFloat(rec[7])
	e.TP1 = colFloat(rec[8])
	e.TP2 = colFloat(rec[9])
	e.RR = colFloat(rec[10])
	e.RiskPct = colFloat(rec[11])
	e.TP1Price = colFloat(rec[12])
	e.TP2Price = colFloat(rec[13])
	e.FillPrice = colFloat(rec[14])
	e.ExitPrice = colFloat(rec[15])
	e.PnL = colFloat(rec[16])

	var err error
	if e.CreatedAt, err = time.Parse(time.RFC3339, rec[20]); err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	if e.UpdatedAt, err = time.Parse(time.RFC3339, rec[21]); err != nil {
		return nil, fmt.Errorf("updated_at: %w", err)
	}
	return e, nil
}

func floatCol(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func colFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
