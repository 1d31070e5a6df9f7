package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/simts-edu/casesim-service/internal/models"
)

// MockCaseService is a mock implementation of CaseService
type MockCaseService struct {
	mock.Mock
}

func (m *MockCaseService) Save(ctx context.Context, payload *models.CasePayload, theme, difficulty string, createdBy *uint) (*CaseResponse, error) {
	args := m.Called(ctx, payload, theme, difficulty, createdBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CaseResponse), args.Error(1)
}

func (m *MockCaseService) GetByID(ctx context.Context, caseID string) (*CaseResponse, error) {
	args := m.Called(ctx, caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CaseResponse), args.Error(1)
}

func (m *MockCaseService) List(ctx context.Context, req ListCasesRequest) (*CaseListResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CaseListResponse), args.Error(1)
}

func (m *MockCaseService) Update(ctx context.Context, caseID string, req UpdateCaseRequest) (*CaseResponse, error) {
	args := m.Called(ctx, caseID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CaseResponse), args.Error(1)
}

func (m *MockCaseService) Delete(ctx context.Context, caseID string) error {
	args := m.Called(ctx, caseID)
	return args.Error(0)
}

func exportFixture() *CaseListResponse {
	return &CaseListResponse{
		Cases: []*CaseResponse{
			{
				CaseID:     "case-aa11bb22",
				Title:      "Familia en crisis",
				Theme:      "Familia y dinámicas familiares",
				Difficulty: "intermedio",
				Rating:     4,
				Tags:       []string{"familia", "crisis"},
				Payload: models.CasePayload{
					Title:     "Familia en crisis",
					Questions: []models.Question{{Text: "¿Primera acción?"}},
				},
				CreatedAt: "2026-03-01T10:00:00Z",
			},
			{
				CaseID:     "case-cc33dd44",
				Title:      "Adulto mayor en aislamiento",
				Theme:      "Adulto mayor",
				Difficulty: "basico",
				CreatedAt:  "2026-03-02T11:30:00Z",
			},
		},
		Total: 2,
	}
}

func TestExportService_CSV(t *testing.T) {
	cases := &MockCaseService{}
	cases.On("List", mock.Anything, mock.Anything).Return(exportFixture(), nil)

	svc := NewExportService(cases, testLogger())
	data, err := svc.ExportCSV(context.Background(), ListCasesRequest{})
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, exportHeaders, records[0])
	assert.Equal(t, "case-aa11bb22", records[1][0])
	assert.Equal(t, "familia;crisis", records[1][5])
	assert.Equal(t, "1", records[1][7])
	assert.Equal(t, "Adulto mayor", records[2][2])
}

func TestExportService_JSON(t *testing.T) {
	cases := &MockCaseService{}
	cases.On("List", mock.Anything, mock.Anything).Return(exportFixture(), nil)

	svc := NewExportService(cases, testLogger())
	data, err := svc.ExportJSON(context.Background(), ListCasesRequest{})
	require.NoError(t, err)

	var decoded CaseListResponse
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, int64(2), decoded.Total)
	require.Len(t, decoded.Cases, 2)
	assert.Equal(t, "Familia en crisis", decoded.Cases[0].Title)
}

func TestExportService_Excel(t *testing.T) {
	cases := &MockCaseService{}
	cases.On("List", mock.Anything, mock.Anything).Return(exportFixture(), nil)

	svc := NewExportService(cases, testLogger())
	data, err := svc.ExportExcel(context.Background(), ListCasesRequest{})
	require.NoError(t, err)
	// xlsx files are zip archives
	assert.Equal(t, []byte{'P', 'K'}, data[:2])

	// the workbook carries only the Cases sheet, not the excelize
	// default one
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Cases"}, f.GetSheetList())

	header, err := f.GetRows("Cases")
	require.NoError(t, err)
	require.NotEmpty(t, header)
	assert.Equal(t, exportHeaders, header[0])
}

func TestExportService_PaginatesThroughCatalog(t *testing.T) {
	fullPage := &CaseListResponse{Total: 501}
	for i := 0; i < 500; i++ {
		fullPage.Cases = append(fullPage.Cases, &CaseResponse{CaseID: "case-full"})
	}
	lastPage := &CaseListResponse{
		Cases: []*CaseResponse{{CaseID: "case-last"}},
		Total: 501,
	}

	cases := &MockCaseService{}
	cases.On("List", mock.Anything, mock.MatchedBy(func(r ListCasesRequest) bool {
		return r.Offset == 0
	})).Return(fullPage, nil).Once()
	cases.On("List", mock.Anything, mock.MatchedBy(func(r ListCasesRequest) bool {
		return r.Offset == 500
	})).Return(lastPage, nil).Once()

	svc := NewExportService(cases, testLogger())
	data, err := svc.ExportJSON(context.Background(), ListCasesRequest{})
	require.NoError(t, err)

	var decoded CaseListResponse
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded.Cases, 501)
	cases.AssertExpectations(t)
}
