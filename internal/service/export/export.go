// Package export renders appointment lists as XLSX workbooks.
package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/pawcare/vetclinic_backend/internal/repo"
	"github.com/pawcare/vetclinic_backend/internal/service/appointment"
)

const (
	sheetName = "Appointments"
	// maxRows bounds a single export.
	maxRows = 10000
)

var columns = []string{"Date", "Time", "Status", "Customer", "Phone", "Pets", "Services", "Notes"}

type Request struct {
	CustomerID *uuid.UUID
	Status     *repo.AppointmentStatus
	DateFrom   string
	DateTo     string
}

type Service interface {
	// Appointments returns an XLSX workbook with one row per appointment.
	Appointments(ctx context.Context, actor appointment.Actor, req Request) ([]byte, error)
}

type exportService struct {
	store repo.Queries
}

func New(store repo.Queries) Service {
	return &exportService{store: store}
}

func (s *exportService) Appointments(ctx context.Context, actor appointment.Actor, req Request) ([]byte, error) {
	if !actor.Role.IsStaff() {
		return nil, appointment.ErrForbidden
	}

	appts, err := s.store.ListAppointments(ctx, repo.AppointmentFilter{
		CustomerID: req.CustomerID,
		Status:     req.Status,
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
		Limit:      maxRows,
	})
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeHeader(f); err != nil {
		return nil, err
	}
	for i := range appts {
		if err := writeRow(f, i+2, &appts[i]); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File) error {
	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, col); err != nil {
			return err
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		end, _ := excelize.CoordinatesToCellName(len(columns), 1)
		_ = f.SetCellStyle(sheetName, "A1", end, style)
	}
	return f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeRow(f *excelize.File, row int, a *repo.Appointment) error {
	var name, phone string
	if a.Customer != nil {
		name, phone = a.Customer.FullName(), a.Customer.Phone
	}

	pets := make([]string, 0, len(a.Pets))
	for _, p := range a.Pets {
		pets = append(pets, fmt.Sprintf("%s (%s)", p.Name, p.Type))
	}
	services := make([]string, 0, len(a.Services))
	for _, sv := range a.Services {
		services = append(services, sv.Name)
	}

	values := []any{
		a.Date,
		a.Time,
		string(a.Status),
		name,
		phone,
		strings.Join(pets, ", "),
		strings.Join(services, ", "),
		a.Notes,
	}

	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}
