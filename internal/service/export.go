package service

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"dropngo/internal/domain"
)

const (
	bookingsSheet = "Bookings"
	summarySheet  = "Summary"
)

var bookingExportHeaders = []string{
	"Booking Number", "Status", "Customer ID", "Porter ID", "Pickup Location",
	"Delivery Location", "Pickup Time", "Delivery Time", "Bags", "Storage Hours",
	"Distance (km)", "Storage Fee", "Delivery Fee", "Insurance Fee", "Total",
	"Porter Commission", "Created At",
}

// WriteBookingsXLSX writes bookings as an Excel workbook with a per-booking
// sheet and a status summary sheet.
func WriteBookingsXLSX(w io.Writer, bookings []*domain.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", bookingsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, h := range bookingExportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(bookingsSheet, cell, h)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(bookingExportHeaders), 1)
	f.SetCellStyle(bookingsSheet, "A1", lastHeader, headerStyle)

	counts := make(map[domain.BookingStatus]int)
	totals := make(map[domain.BookingStatus]float64)

	for i, b := range bookings {
		row := i + 2
		values := []interface{}{
			b.BookingNumber,
			string(b.Status),
			b.UserID,
			b.PorterID,
			b.PickupLocation,
			b.DeliveryLocation,
			formatExportTime(b.PickupTime),
			formatExportTime(b.DeliveryTime),
			b.TotalBags(),
			b.StorageHours,
			b.DistanceKm,
			b.StorageFee,
			b.DeliveryFee,
			b.InsuranceFee,
			b.TotalAmount,
			b.PorterCommission,
			formatExportTime(b.CreatedAt),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(bookingsSheet, cell, v)
		}
		counts[b.Status]++
		totals[b.Status] += b.TotalAmount
	}
	f.SetColWidth(bookingsSheet, "A", "Q", 18)

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	f.SetCellValue(summarySheet, "A1", "Status")
	f.SetCellValue(summarySheet, "B1", "Bookings")
	f.SetCellValue(summarySheet, "C1", "Amount")
	f.SetCellStyle(summarySheet, "A1", "C1", headerStyle)

	row := 2
	for _, status := range domain.BookingStatuses {
		f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), string(status))
		f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), counts[status])
		f.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), roundMoney(totals[status]))
		row++
	}
	f.SetColWidth(summarySheet, "A", "C", 20)
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func formatExportTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
