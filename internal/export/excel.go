package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"joblet/internal/domain"
	"joblet/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Exporter renders booking reports to xlsx files for the admin download
// endpoint.
type Exporter struct {
	repo   domain.Repository
	path   string
	logger *zerolog.Logger
}

func NewExporter(repo domain.Repository, path string, logger *zerolog.Logger) *Exporter {
	return &Exporter{repo: repo, path: path, logger: logger}
}

// BookingReport writes bookings scheduled in [startDate, endDate] to a new
// xlsx file and returns its path.
func (e *Exporter) BookingReport(ctx context.Context, startDate, endDate time.Time) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	bookings, err := e.repo.GetBookingsByDateRange(ctx, startDate, endDate)
	if err != nil {
		return "", fmt.Errorf("error getting bookings: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Бронирования"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Период: %s - %s",
		startDate.Format("02.01.2006"), endDate.Format("02.01.2006")))
	_ = f.MergeCell(sheetName, "A1", "H1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	writeHeaderRow(f, sheetName)
	writeBookingRows(f, sheetName, bookings)

	_ = f.SetColWidth(sheetName, "A", "A", 38)
	_ = f.SetColWidth(sheetName, "B", "H", 20)
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("bookings_%s_%s_%s.xlsx",
		startDate.Format("2006-01-02"),
		endDate.Format("2006-01-02"),
		uuid.NewString()[:8])
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("bookings", len(bookings)).Msg("Excel file created")
	return filePath, nil
}

func writeHeaderRow(f *excelize.File, sheetName string) {
	headers := []string{"Reference", "Service", "Customer", "Provider", "Price", "Scheduled", "Status", "Completed"}

	style, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, style)
	}
}

func writeBookingRows(f *excelize.File, sheetName string, bookings []*models.Booking) {
	for i, b := range bookings {
		row := i + 3
		completed := ""
		if b.CompletedAt != nil {
			completed = b.CompletedAt.Format("02.01.2006 15:04")
		}
		values := []interface{}{
			b.Reference,
			b.ServiceName,
			b.CustomerID,
			b.ProviderID,
			fmt.Sprintf("%d.%02d", b.PriceCents/100, b.PriceCents%100),
			b.ScheduledAt.Format("02.01.2006 15:04"),
			b.Status,
			completed,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, value)
		}
	}
}
