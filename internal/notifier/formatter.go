package notifier

import (
	"fmt"
	"html"
	"strings"

	"Buffetology/internal/model"
	"Buffetology/internal/recorder"
)

// labelOrder is the display order of the recommendation summary.
var labelOrder = []model.Recommendation{
	model.StrongBuy, model.Buy, model.Hold, model.Sell, model.StrongSell,
	model.InsufficientData, model.Failed,
}

// FormatRankedReport formats the top results of a run into a Telegram HTML message.
func FormatRankedReport(run *recorder.Run, top int) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>Buffetology screen</b> | %s\n", run.FinishedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Provider: %s | Tickers: %d | %s\n\n",
		html.EscapeString(run.Provider), len(run.Results), run.Trigger))

	results := run.Results
	if top > 0 && len(results) > top {
		results = results[:top]
	}
	if len(results) == 0 {
		b.WriteString("No results.\n")
	} else {
		b.WriteString(fmt.Sprintf("🏆 <b>Top %d</b>\n", len(results)))
		b.WriteString("<pre>")
		for i, r := range results {
			b.WriteString(fmt.Sprintf("%2d. %-6s %6.2f  Q%3.0f V%3.0f G%3.0f  %s\n",
				i+1, html.EscapeString(r.Ticker), r.OverallScore,
				r.QualityScore, r.ValueScore, r.GrowthScore, r.Recommendation))
		}
		b.WriteString("</pre>\n")
	}

	counts := run.Counts()
	b.WriteString("\n📈 <b>Summary</b>\n")
	for _, label := range labelOrder {
		if n := counts[label]; n > 0 {
			b.WriteString(fmt.Sprintf("  %s: %d\n", label, n))
		}
	}
	return b.String()
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	var b strings.Builder
	b.WriteString("🤖 <b>Buffetology bot</b>\n\n")
	b.WriteString("/screen - run a screening pass now\n")
	b.WriteString("/last - show the latest recorded run\n")
	b.WriteString("/help - show this message\n")
	return b.String()
}
