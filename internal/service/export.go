package service

import (
	"bytes"
	"context"
	"fmt"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	ExportRoleBooker = "booker"
	ExportRoleOwner  = "owner"

	exportTimeLayout = "2006-01-02 15:04"
)

var exportHeaders = []string{"ID", "Item", "Booker", "Start", "End", "Status"}

// ExportBookings renders the user's bookings in the given state as an xlsx workbook.
func (s *BookingService) ExportBookings(ctx context.Context, userID int64, role, rawState, sheetName string) ([]byte, error) {
	state, err := ParseBookingState(rawState)
	if err != nil {
		return nil, err
	}

	var load func(ctx context.Context, userID int64) ([]*models.Booking, error)
	switch role {
	case ExportRoleBooker, "":
		load = s.repo.ListBookingsByBooker
	case ExportRoleOwner:
		load = s.repo.ListBookingsByOwner
	default:
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}

	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	all, err := load(ctx, userID)
	if err != nil {
		return nil, err
	}

	data, err := renderBookings(FilterBookings(all, state, s.now()), sheetName)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", userID).Str("role", role).Str("state", string(state)).Msg("bookings exported")
	return data, nil
}

func renderBookings(bookings []*models.Booking, sheetName string) ([]byte, error) {
	if sheetName == "" {
		sheetName = "Bookings"
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if sheetName != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}
	_ = f.SetColWidth(sheetName, "B", "C", 25)
	_ = f.SetColWidth(sheetName, "D", "E", 18)

	for i, b := range bookings {
		row := i + 2
		itemName, bookerName := "", ""
		if b.Item != nil {
			itemName = b.Item.Name
		}
		if b.Booker != nil {
			bookerName = b.Booker.Name
		}
		values := []interface{}{
			b.ID,
			itemName,
			bookerName,
			b.Start.Format(exportTimeLayout),
			b.End.Format(exportTimeLayout),
			string(b.Status),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
