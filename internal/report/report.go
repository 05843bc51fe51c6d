// Package report produces compliance exports over the intake population.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/caseflow-ai/caseflow/internal/intake"
)

var clientHeader = []string{
	"client_id", "name", "needs", "urgency", "status", "caseworker_id", "created_at",
}

// ComplianceReport is a point-in-time snapshot of the intake population,
// ready to serialize.
type ComplianceReport struct {
	GeneratedAt time.Time
	Clients     []intake.Client
	Summary     *intake.AnalyticsSummary
}

// Build assembles a report from the store. Clients are ordered by creation
// time so repeated exports diff cleanly.
func Build(store intake.Store) (*ComplianceReport, error) {
	clients, err := store.ListClients(intake.ClientFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	sort.Slice(clients, func(i, j int) bool {
		if clients[i].CreatedAt.Equal(clients[j].CreatedAt) {
			return clients[i].ID < clients[j].ID
		}
		return clients[i].CreatedAt.Before(clients[j].CreatedAt)
	})

	summary, err := store.Analytics()
	if err != nil {
		return nil, fmt.Errorf("aggregating: %w", err)
	}

	return &ComplianceReport{
		GeneratedAt: time.Now(),
		Clients:     clients,
		Summary:     summary,
	}, nil
}

// WriteCSV writes the client roster as CSV.
func (r *ComplianceReport) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(clientHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, c := range r.Clients {
		row := []string{
			c.ID,
			c.Name,
			strings.Join(c.Needs, ";"),
			c.Urgency,
			c.Status,
			c.CaseworkerID,
			c.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a workbook with a Clients sheet and a Summary sheet.
func (r *ComplianceReport) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const clientsSheet = "Clients"
	if err := f.SetSheetName("Sheet1", clientsSheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}

	header := make([]interface{}, len(clientHeader))
	for i, h := range clientHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(clientsSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, c := range r.Clients {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			c.ID,
			c.Name,
			strings.Join(c.Needs, ";"),
			c.Urgency,
			c.Status,
			c.CaseworkerID,
			c.CreatedAt.Format(time.RFC3339),
		}
		if err := f.SetSheetRow(clientsSheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	if err := r.writeSummarySheet(f); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func (r *ComplianceReport) writeSummarySheet(f *excelize.File) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}

	rows := [][]interface{}{
		{"generated_at", r.GeneratedAt.Format(time.RFC3339)},
		{"total_clients", r.Summary.TotalClients},
		{"open_cases", r.Summary.OpenCases},
		{"upcoming_appointments", r.Summary.UpcomingAppointments},
	}
	rows = append(rows, countRows("status", r.Summary.ByStatus)...)
	rows = append(rows, countRows("urgency", r.Summary.ByUrgency)...)
	rows = append(rows, countRows("need", r.Summary.ByNeed)...)

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing summary row %d: %w", i+1, err)
		}
	}
	return nil
}

// countRows flattens a counter map into sorted label/count rows.
func countRows(prefix string, counts map[string]int) [][]interface{} {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]interface{}, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []interface{}{prefix + ":" + k, counts[k]})
	}
	return rows
}
