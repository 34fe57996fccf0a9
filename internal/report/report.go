// Package report renders payroll cycles and the audit trail as xlsx workbooks.
package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/spec-kit/payroll-desk/internal/domain"
	"github.com/spec-kit/payroll-desk/internal/payroll"
)

// ContentType is the MIME type of every workbook produced here.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	cycleSheet = "Cycle"
	auditSheet = "Audit"
	timeLayout = "2006-01-02 15:04"
)

var (
	cycleHeader = []string{"Stage", "Stage Status", "Task", "Assigned Role", "Requires File", "Completed", "Completed By", "Completed At", "Evidence"}
	auditHeader = []string{"Timestamp", "User", "Role", "Action", "Details", "Related Entity"}
)

// CycleWorkbook writes one row per task of the cycle, preceded by a summary
// line. names resolves user ids for the Completed By column; unknown ids are
// written as is.
func CycleWorkbook(cycle domain.PayrollCycle, names map[string]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", cycleSheet); err != nil {
		return nil, err
	}

	progress := payroll.CycleProgress(cycle)
	summary := []interface{}{
		"Period", cycle.Period,
		"Status", string(cycle.Status),
		"Progress", fmt.Sprintf("%d/%d (%d%%)", progress.Completed, progress.Total, progress.Percent),
	}
	if err := f.SetSheetRow(cycleSheet, "A1", &summary); err != nil {
		return nil, err
	}
	if err := writeHeader(f, cycleSheet, 3, cycleHeader); err != nil {
		return nil, err
	}

	row := 4
	for _, stage := range cycle.Stages {
		for _, task := range stage.Tasks {
			completedBy := task.CompletedBy
			if name, ok := names[completedBy]; ok {
				completedBy = name
			}
			evidence := ""
			if task.EvidenceFile != nil {
				evidence = task.EvidenceFile.Name
			}
			values := []interface{}{
				stage.Name,
				string(stage.Status),
				task.Title,
				string(task.AssignedRole),
				yesNo(task.RequiresFile),
				yesNo(task.Completed),
				completedBy,
				formatTime(task.CompletedAt),
				evidence,
			}
			if err := setRow(f, cycleSheet, row, values); err != nil {
				return nil, err
			}
			row++
		}
	}
	return finish(f, cycleSheet)
}

// AuditWorkbook writes the given entries in order, one per row.
func AuditWorkbook(entries []domain.AuditLogEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", auditSheet); err != nil {
		return nil, err
	}
	if err := writeHeader(f, auditSheet, 1, auditHeader); err != nil {
		return nil, err
	}
	for i, e := range entries {
		at := e.Timestamp
		values := []interface{}{
			formatTime(&at),
			e.UserName,
			string(e.UserRole),
			e.Action,
			e.Details,
			e.RelatedEntityID,
		}
		if err := setRow(f, auditSheet, i+2, values); err != nil {
			return nil, err
		}
	}
	return finish(f, auditSheet)
}

func writeHeader(f *excelize.File, sheet string, row int, header []string) error {
	values := make([]interface{}, len(header))
	for i, h := range header {
		values[i] = h
	}
	if err := setRow(f, sheet, row, values); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(header), row)
	return f.SetCellStyle(sheet, first, last, style)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func finish(f *excelize.File, sheet string) ([]byte, error) {
	if err := f.SetColWidth(sheet, "A", "I", 22); err != nil {
		return nil, err
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}
