package export

import (
	"fmt"
	"io"

	"hoteldesk/internal/models"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

var headers = []string{
	"Name", "Booking Type", "Mobile",
	"Check-In", "Check-Out",
	"Double", "Triple", "Four",
	"Total Amount", "Advance", "Balance",
	"Submitted At",
}

// Workbook renders the booking table as an xlsx workbook.
func Workbook(bookings []models.Booking) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("error removing default sheet: %w", err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(sheetName, cell, header)
	}

	for row, b := range bookings {
		values := []any{
			b.Name, b.BookingType, b.Mobile,
			b.CheckInDate, b.CheckOutDate,
			b.Rooms.Double, b.Rooms.Triple, b.Rooms.Four,
			b.TotalAmount, b.AdvanceAmount, b.BalanceAmount,
			b.SubmittedAt.Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			_ = f.SetCellValue(sheetName, cell, value)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 25)
	_ = f.SetColWidth(sheetName, "B", "E", 15)
	_ = f.SetColWidth(sheetName, "L", "L", 20)

	return f, nil
}

// Write streams the rendered workbook to w.
func Write(w io.Writer, bookings []models.Booking) error {
	f, err := Workbook(bookings)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}
