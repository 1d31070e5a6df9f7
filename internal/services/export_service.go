package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExportService renders the case catalog in portable formats
type ExportService interface {
	ExportJSON(ctx context.Context, req ListCasesRequest) ([]byte, error)
	ExportCSV(ctx context.Context, req ListCasesRequest) ([]byte, error)
	ExportExcel(ctx context.Context, req ListCasesRequest) ([]byte, error)
}

type exportService struct {
	cases  CaseService
	logger *slog.Logger
}

func NewExportService(cases CaseService, logger *slog.Logger) ExportService {
	return &exportService{
		cases:  cases,
		logger: logger,
	}
}

var exportHeaders = []string{
	"Case ID", "Title", "Theme", "Difficulty", "Rating", "Tags", "Notes",
	"Questions", "Created At",
}

func (s *exportService) ExportJSON(ctx context.Context, req ListCasesRequest) ([]byte, error) {
	list, err := s.listAll(ctx, req)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return data, nil
}

func (s *exportService) ExportCSV(ctx context.Context, req ListCasesRequest) ([]byte, error) {
	list, err := s.listAll(ctx, req)
	if err != nil {
		return nil, err
	}

	var buf strings.Builder
	writer := csv.NewWriter(&buf)

	if err := writer.Write(exportHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, c := range list.Cases {
		if err := writer.Write(caseToExportRow(c)); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return []byte(buf.String()), nil
}

func (s *exportService) ExportExcel(ctx context.Context, req ListCasesRequest) ([]byte, error) {
	list, err := s.listAll(ctx, req)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheetName := "Cases"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	for i, header := range exportHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, c := range list.Cases {
		row := caseToExportRow(c)
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	return buf.Bytes(), nil
}

// listAll pulls every matching case; exports ignore client pagination.
func (s *exportService) listAll(ctx context.Context, req ListCasesRequest) (*CaseListResponse, error) {
	req.Limit = 500
	req.Offset = 0

	out := &CaseListResponse{}
	for {
		page, err := s.cases.List(ctx, req)
		if err != nil {
			return nil, err
		}
		out.Cases = append(out.Cases, page.Cases...)
		out.Total = page.Total
		if len(page.Cases) < req.Limit {
			break
		}
		req.Offset += req.Limit
	}
	return out, nil
}

func caseToExportRow(c *CaseResponse) []string {
	return []string{
		c.CaseID,
		c.Title,
		c.Theme,
		c.Difficulty,
		strconv.Itoa(c.Rating),
		strings.Join(c.Tags, ";"),
		c.Notes,
		strconv.Itoa(len(c.Payload.Questions)),
		c.CreatedAt,
	}
}
