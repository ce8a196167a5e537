package sources

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/models"
)

// ParsePaste accepts what a user copies out of a PMS report page: either an
// HTML table or tab separated text.
func ParsePaste(text string) ([]models.RawRecord, error) {
	if strings.Contains(strings.ToLower(text), "<table") {
		return parseHTMLTable(text)
	}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) > 0 && !strings.Contains(lines[0], "\t") {
		return ParseCSV(strings.NewReader(text))
	}

	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, strings.Split(line, "\t"))
	}
	return RowsToRecords(rows)
}

func parseHTMLTable(html string) ([]models.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var lastErr error = ErrNoHeader
	var out []models.RawRecord
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		var rows [][]string
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			var row []string
			tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				row = append(row, strings.Join(strings.Fields(cell.Text()), " "))
			})
			if len(row) > 0 {
				rows = append(rows, row)
			}
		})

		recs, err := RowsToRecords(rows)
		if err != nil {
			lastErr = err
			return true
		}
		out = recs
		return false
	})

	if out == nil {
		return nil, lastErr
	}
	return out, nil
}
