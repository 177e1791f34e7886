package google

import (
	"fmt"
	"strings"
	"time"

	"dailymeow/internal/core"
)

func financeRow(f core.Finance, synced time.Time) []any {
	return []any{
		f.ID,
		f.UserID,
		f.Date.UTC().Format(time.RFC3339),
		f.Title,
		string(f.Type),
		f.Amount,
		core.SignedRupiah(f.Type, f.Amount),
		synced.UTC().Format(time.RFC3339),
	}
}

func firstColumn(values [][]any) []string {
	out := make([]string, len(values))
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		out[i] = strings.TrimSpace(fmt.Sprint(row[0]))
	}
	return out
}

// findRow returns the 1-based sheet row holding id, or 0. Row 1 is the header.
func findRow(ids []string, id string) int {
	for i, v := range ids {
		if i == 0 {
			continue
		}
		if v == id {
			return i + 1
		}
	}
	return 0
}

func rowRange(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:H%d", sheet, row, row)
}
