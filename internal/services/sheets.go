package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// GradeRow is one line of the exported gradebook.
type GradeRow struct {
	Course   string
	Task     string
	Team     string
	Score    *int
	Points   int
	GradedBy string
	GradedAt time.Time
}

func (r GradeRow) values() []interface{} {
	score := ""
	if r.Score != nil {
		score = fmt.Sprintf("%d", *r.Score)
	}
	return []interface{}{
		r.Course,
		r.Task,
		r.Team,
		score,
		r.Points,
		r.GradedBy,
		r.GradedAt.Format("2006-01-02 15:04:05"),
	}
}

// SheetsGradebook appends saved grades to a Google spreadsheet.
type SheetsGradebook struct {
	srv       *sheets.Service
	sheetID   string
	sheetName string
}

func NewSheetsGradebook(ctx context.Context, sheetID string, opts ...option.ClientOption) (*SheetsGradebook, error) {
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create sheets service")
	}
	return &SheetsGradebook{srv: srv, sheetID: sheetID, sheetName: "Grades"}, nil
}

// NewSheetsGradebookFromFile authenticates with a service account key file.
func NewSheetsGradebookFromFile(ctx context.Context, credentialsFile, sheetID string) (*SheetsGradebook, error) {
	return NewSheetsGradebook(ctx, sheetID, option.WithCredentialsFile(credentialsFile))
}

// AppendGrade adds the row below the last one and returns its row number.
func (s *SheetsGradebook) AppendGrade(ctx context.Context, row GradeRow) (int, error) {
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{row.values()},
	}

	resp, err := s.srv.Spreadsheets.Values.Append(
		s.sheetID,
		s.sheetName+"!A:G",
		valueRange,
	).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return 0, errors.Wrap(err, "append grade row")
	}
	if resp.Updates == nil {
		return 0, nil
	}
	return parseRowNumber(resp.Updates.UpdatedRange), nil
}

// parseRowNumber reads the row out of a range such as "Grades!A5:G5".
func parseRowNumber(rangeStr string) int {
	var row int
	for i := len(rangeStr) - 1; i >= 0; i-- {
		if rangeStr[i] >= '0' && rangeStr[i] <= '9' {
			continue
		}
		fmt.Sscanf(rangeStr[i+1:], "%d", &row)
		break
	}
	return row
}
