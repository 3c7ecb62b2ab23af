package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"SignalSentinel/internal/model"
	"SignalSentinel/internal/scanner"
)

func sideIcon(s model.Signal) string {
	switch s {
	case model.SignalBuy:
		return "🟢"
	case model.SignalSell:
		return "🔴"
	default:
		return "⚪"
	}
}

func formatRSI(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", v)
}

// FormatDailyReport formats a scan report into a Telegram message.
func FormatDailyReport(r *scanner.Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>SignalSentinel daily scan</b> | %s\n", r.End.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Run %s: %d tickers, %d trades, %d kept\n\n",
		r.RunID, len(r.Rows), r.Stats.Trades, r.Stats.Kept))

	if len(r.Kept) == 0 {
		b.WriteString("No trade passed the guardrails today.\n")
	} else {
		b.WriteString("💡 <b>Recommendations:</b>\n")
		for i, row := range r.Kept {
			b.WriteString(fmt.Sprintf("%d. %s <b>%s</b> %s @ %.4g | RSI %s | trend %s | conf %.2f\n",
				i+1, sideIcon(row.Signal), html.EscapeString(row.Ticker), row.Signal,
				row.Close, formatRSI(row.RSI), row.TrendSide, row.Confidence))
		}
	}

	if dropped := r.Stats.DroppedByThreshold + r.Stats.DroppedByCap; dropped > 0 {
		b.WriteString(fmt.Sprintf("\n🛡 Filtered: %d below confidence, %d over daily cap\n",
			r.Stats.DroppedByThreshold, r.Stats.DroppedByCap))
	}

	if len(r.Errors) > 0 {
		b.WriteString("\n⚠️ <b>Left out:</b>\n")
		for _, e := range r.Errors {
			b.WriteString(fmt.Sprintf("  %s\n", html.EscapeString(e.Error())))
		}
	}
	return b.String()
}

// FormatRunStatus formats a run log entry for display.
func FormatRunStatus(run *model.RunLog) string {
	if run == nil {
		return "No scan has run yet."
	}
	icon := "✅"
	switch run.Status {
	case model.RunPartial:
		icon = "⚠️"
	case model.RunFailed:
		icon = "❌"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>Last run</b> %s\n\n", icon, run.RunID))
	b.WriteString(fmt.Sprintf("Status: %s\n", run.Status))
	b.WriteString(fmt.Sprintf("Started: %s\n", run.StartTime.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("Took: %s\n", run.EndTime.Sub(run.StartTime).Round(time.Millisecond)))
	b.WriteString(fmt.Sprintf("Processed: %d | Skipped: %d | Errors: %d\n",
		run.TickersProcessed, run.TickersSkipped, run.TickersError))
	if run.Notes != "" {
		b.WriteString(fmt.Sprintf("Notes: %s\n", html.EscapeString(run.Notes)))
	}
	return b.String()
}

// FormatSignal formats a single ticker evaluation.
func FormatSignal(row model.ScoredRow) string {
	return fmt.Sprintf("%s <b>%s</b> %s | close %.4g | RSI %s | trend %s | conf %.2f\nbar %s",
		sideIcon(row.Signal), html.EscapeString(row.Ticker), row.Signal, row.Close,
		formatRSI(row.RSI), row.TrendSide, row.Confidence, row.Time.Format("2006-01-02"))
}

// FormatHelp lists the available commands.
func FormatHelp() string {
	var b strings.Builder
	b.WriteString("🤖 <b>SignalSentinel commands</b>\n\n")
	b.WriteString("/scan - run a scan now\n")
	b.WriteString("/last - status of the last run\n")
	b.WriteString("/signal TICKER - evaluate one ticker\n")
	b.WriteString("/help - this message\n")
	return b.String()
}
