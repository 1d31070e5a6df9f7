package client

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// CaseFilter narrows the cached catalog. Theme and Difficulty match
// exactly; Query matches the title or case id as a case-insensitive
// substring. Empty fields match everything.
type CaseFilter struct {
	Theme      string
	Difficulty string
	Query      string
}

// FilterCases applies the filter to the catalog cached by the last
// ListCases call. All set fields must match.
func (c *Client) FilterCases(filter CaseFilter) []CaseRecord {
	c.mu.Lock()
	history := c.history
	c.mu.Unlock()

	query := strings.ToLower(filter.Query)
	var out []CaseRecord
	for _, record := range history {
		if filter.Theme != "" && record.Theme != filter.Theme {
			continue
		}
		if filter.Difficulty != "" && record.Difficulty != filter.Difficulty {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(record.Title), query) &&
			!strings.Contains(strings.ToLower(record.CaseID), query) {
			continue
		}
		out = append(out, record)
	}
	return out
}

// ExportJSON writes the given cases as indented JSON
func (c *Client) ExportJSON(w io.Writer, records []CaseRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("export json: %w", err)
	}
	return nil
}

// ExportCSV writes the given cases as CSV with a header row
func (c *Client) ExportCSV(w io.Writer, records []CaseRecord) error {
	cw := csv.NewWriter(w)
	header := []string{"case_id", "title", "theme", "difficulty", "rating", "tags", "questions", "created_at"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}
	for _, record := range records {
		row := []string{
			record.CaseID,
			record.Title,
			record.Theme,
			record.Difficulty,
			fmt.Sprintf("%d", record.Rating),
			strings.Join(record.Tags, ";"),
			fmt.Sprintf("%d", len(record.Payload.Questions)),
			record.CreatedAt,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}
	return nil
}
