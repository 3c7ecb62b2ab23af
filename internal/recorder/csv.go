package recorder

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"SignalSentinel/internal/model"
)

var (
	recommendationHeader = []string{"run_id", "ticker", "date", "close", "rsi", "trend", "signal", "confidence", "kept"}
	runLogHeader         = []string{"date", "start_time", "end_time", "status",
		"tickers_processed", "tickers_skipped", "tickers_error", "run_id", "notes"}
)

// CSVRecorder exports each daily table to recommendations/YYYYMMDD.csv and
// appends run log rows to runlog.csv under Dir.
type CSVRecorder struct {
	Dir string
	mu  sync.Mutex
	now func() time.Time
}

// NewCSVRecorder creates the export directory layout.
func NewCSVRecorder(dir string) (*CSVRecorder, error) {
	if err := os.MkdirAll(filepath.Join(dir, "recommendations"), 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	return &CSVRecorder{Dir: dir, now: time.Now}, nil
}

// formatFloat writes undefined values as empty cells.
func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RecordSignals overwrites the table for the current day.
func (c *CSVRecorder) RecordSignals(runID string, rows, kept []model.ScoredRow) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	accepted := keptSet(kept)
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(recommendationHeader)
	for _, r := range rows {
		w.Write([]string{
			runID,
			r.Ticker,
			r.Time.Format("2006-01-02"),
			formatFloat(r.Close),
			formatFloat(r.RSI),
			r.TrendSide.String(),
			r.Signal.String(),
			formatFloat(r.Confidence),
			strconv.FormatBool(accepted[r.Ticker]),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode recommendations: %w", err)
	}

	name := filepath.Join(c.Dir, "recommendations", c.now().Format("20060102")+".csv")
	return writeFileAtomic(name, buf.Bytes())
}

// RecordRun reads the existing run log, appends one row and writes it back.
// The header is written only when the log is new or empty.
func (c *CSVRecorder) RecordRun(run *model.RunLog) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := filepath.Join(c.Dir, "runlog.csv")
	existing, err := os.ReadFile(name)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read run log: %w", err)
	}

	buf := bytes.NewBuffer(existing)
	if buf.Len() > 0 && !bytes.HasSuffix(existing, []byte("\n")) {
		buf.WriteByte('\n')
	}
	w := csv.NewWriter(buf)
	if len(existing) == 0 {
		w.Write(runLogHeader)
	}
	w.Write([]string{
		run.Date,
		run.StartTime.Format(time.RFC3339),
		run.EndTime.Format(time.RFC3339),
		run.Status,
		strconv.Itoa(run.TickersProcessed),
		strconv.Itoa(run.TickersSkipped),
		strconv.Itoa(run.TickersError),
		run.RunID,
		run.Notes,
	})
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode run log: %w", err)
	}
	return writeFileAtomic(name, buf.Bytes())
}

func (c *CSVRecorder) Close() error { return nil }

func writeFileAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(name), filepath.Base(name)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), name)
}
