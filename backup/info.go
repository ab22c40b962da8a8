package backup

import (
	"strconv"
	"strings"
	"time"

	"github.com/stratts/vaultbak/ascii"
	"github.com/stratts/vaultbak/telemetry/metrics"
)

// column is one field of the info table, the ordinal, time, file count, or
// size of a single version.
type column struct {
	header string
	values []string
}

// InfoTable renders the archive's version history as the aligned, header-
// underlined table a terminal front end prints: one row per version,
// oldest first, with columns No., Time, Files and Size (rounded to whole
// kilobytes). Column widths account for the display width of each cell
// rather than its byte length, so the table stays aligned even if a
// version somehow carries wide characters.
func (b *Backup) InfoTable() string {
	start := time.Now()
	defer func() { b.emitOperationMetric(metrics.OpInfo, time.Since(start), nil) }()

	columns := []*column{
		{header: "No."},
		{header: "Time"},
		{header: "Files"},
		{header: "Size"},
	}

	for _, v := range b.sortedVersions() {
		columns[0].values = append(columns[0].values, strconv.Itoa(v.Num))
		columns[1].values = append(columns[1].values, time.Unix(v.Time, 0).Local().Format("2006/01/02 15:04:05"))
		columns[2].values = append(columns[2].values, strconv.Itoa(len(v.Files)))
		columns[3].values = append(columns[3].values, strconv.FormatInt(roundToKB(v.Size), 10))
	}

	const pad = 2
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = ascii.StringWidth(c.header)
		for _, v := range c.values {
			if w := ascii.StringWidth(v); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var sb strings.Builder
	writeRow(&sb, headers(columns), widths, pad)
	writeRow(&sb, rules(widths), widths, pad)
	rows := len(columns[0].values)
	for r := 0; r < rows; r++ {
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = c.values[r]
		}
		writeRow(&sb, row, widths, pad)
	}
	return sb.String()
}

func headers(columns []*column) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.header
	}
	return out
}

func rules(widths []int) []string {
	out := make([]string, len(widths))
	for i, w := range widths {
		out[i] = strings.Repeat("-", w)
	}
	return out
}

func writeRow(b *strings.Builder, cells []string, widths []int, pad int) {
	for i, cell := range cells {
		b.WriteString(cell)
		gap := widths[i] - ascii.StringWidth(cell) + pad
		if i == len(cells)-1 {
			gap = 0
		}
		b.WriteString(strings.Repeat(" ", gap))
	}
	b.WriteString("\n")
}

func roundToKB(size int64) int64 {
	kb := float64(size) / 1000
	return int64(kb + 0.5)
}

// VersionSummaries returns every version sorted oldest to newest, for
// callers that want the raw data behind InfoTable (e.g. a future JSON
// output mode) rather than its rendered text.
func (b *Backup) VersionSummaries() []*Version {
	return b.sortedVersions()
}
