// Package sheets reads booking exports from and writes weekly summaries to Google Sheets.
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

type Client struct {
	service       *sheets.Service
	spreadsheetID string
	lg            *log.Logger
}

// NewClient builds a service-account client. creds is either the path of a
// credentials file or the JSON itself.
func NewClient(ctx context.Context, spreadsheetID, creds string, lg *log.Logger) (*Client, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("sheets: spreadsheet id is empty")
	}

	credsJSON, err := loadCredentials(creds)
	if err != nil {
		return nil, err
	}

	service, err := sheets.NewService(ctx, option.WithCredentialsJSON(credsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{service: service, spreadsheetID: spreadsheetID, lg: lg}, nil
}

func loadCredentials(creds string) ([]byte, error) {
	creds = strings.TrimSpace(creds)
	if creds == "" {
		return nil, fmt.Errorf("credentials not found: GOOGLE_SHEETS_CREDENTIALS is empty")
	}

	var credsJSON []byte
	if strings.HasPrefix(creds, "{") {
		credsJSON = []byte(creds)
	} else {
		b, err := os.ReadFile(creds)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		credsJSON = b
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(credsJSON, &parsed); err != nil {
		return nil, fmt.Errorf("invalid credentials JSON: %w", err)
	}
	if parsed["type"] != "service_account" {
		return nil, fmt.Errorf("credentials must be a service account JSON file (type: service_account), got type: %v", parsed["type"])
	}
	return credsJSON, nil
}

// ReadValues returns the unformatted cell values of rng, so dates come back
// as serial numbers and prices as numbers.
func (c *Client) ReadValues(ctx context.Context, rng string) ([][]any, error) {
	resp, err := c.service.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rng, err)
	}

	return resp.Values, nil
}

// WriteTab replaces the content of tab with values, creating the tab if needed.
func (c *Client) WriteTab(ctx context.Context, tab string, values [][]any) error {
	tab = SanitizeSheetName(tab)

	if err := c.ensureTab(ctx, tab); err != nil {
		return err
	}

	rng := fmt.Sprintf("'%s'!A1", tab)
	if _, err := c.service.Spreadsheets.Values.Clear(c.spreadsheetID, fmt.Sprintf("'%s'", tab), &sheets.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil && c.lg != nil {
		c.lg.Printf("⚠️ sheets: failed to clear tab %q: %v", tab, err)
	}

	_, err := c.service.Spreadsheets.Values.Update(c.spreadsheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write tab %q: %w", tab, err)
	}

	if c.lg != nil {
		c.lg.Printf("✅ sheets: wrote %d rows to tab %q", len(values), tab)
	}
	return nil
}

func (c *Client) ensureTab(ctx context.Context, tab string) error {
	ss, err := c.service.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == tab {
			return nil
		}
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: tab}}},
		},
	}
	if _, err := c.service.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to create tab %q: %w", tab, err)
	}
	return nil
}

// SanitizeSheetName strips characters Google Sheets rejects in tab titles.
func SanitizeSheetName(name string) string {
	result := name
	for _, char := range []string{"/", "\\", "?", "*", "[", "]", "'"} {
		result = strings.ReplaceAll(result, char, "_")
	}
	result = strings.TrimSpace(result)
	if result == "" {
		result = "Sheet1"
	}
	if len(result) > 100 {
		result = result[:100]
	}
	return result
}

// ExtractSpreadsheetID accepts a full spreadsheet URL or a bare id.
func ExtractSpreadsheetID(url string) string {
	parts := strings.Split(url, "/d/")
	if len(parts) < 2 {
		return strings.TrimSpace(url)
	}

	idPart := parts[1]
	if idx := strings.Index(idPart, "/"); idx != -1 {
		idPart = idPart[:idx]
	}
	if idx := strings.Index(idPart, "?"); idx != -1 {
		idPart = idPart[:idx]
	}
	return strings.TrimSpace(idPart)
}
