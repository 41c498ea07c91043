package report

import (
	"fmt"

	"mandira-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

var statusLabels = map[models.BalanceStatus]string{
	models.BalanceStatusNoSales: "Satış yok",
	models.BalanceStatusPaid:    "Ödendi",
	models.BalanceStatusPending: "Bekliyor",
}

// GET /api/reports/monthly/export?year=&month= — aylık raporun XLSX çıktısı
func ExportMonthlyReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := parsePeriod(c)
		if err != nil {
			return err
		}

		rep, err := buildMonthlyReport(p)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rapor hazırlanamadı")
		}

		f := excelize.NewFile()
		defer f.Close()

		sheet := "Aylik Rapor"
		f.SetSheetName("Sheet1", sheet)

		f.SetCellValue(sheet, "A1", fmt.Sprintf("Aylık Rapor %02d/%d", p.Month, p.Year))

		headers := []string{"Müşteri", "Bölge", "Litre", "Satış (TL)", "Tahsilat (TL)", "Bakiye (TL)", "Durum"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 3)
			f.SetCellValue(sheet, cell, h)
		}

		for i, row := range rep.Rows {
			r := i + 4
			f.SetCellValue(sheet, fmt.Sprintf("A%d", r), row.CustomerName)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", r), row.AreaName)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", r), row.Quantity.InexactFloat64())
			f.SetCellValue(sheet, fmt.Sprintf("D%d", r), row.SalesAmount.InexactFloat64())
			f.SetCellValue(sheet, fmt.Sprintf("E%d", r), row.PaymentAmount.InexactFloat64())
			f.SetCellValue(sheet, fmt.Sprintf("F%d", r), row.Balance.InexactFloat64())
			f.SetCellValue(sheet, fmt.Sprintf("G%d", r), statusLabels[row.Status])
		}

		totalRow := len(rep.Rows) + 5
		f.SetCellValue(sheet, fmt.Sprintf("A%d", totalRow), "TOPLAM")
		f.SetCellValue(sheet, fmt.Sprintf("C%d", totalRow), rep.TotalQuantity.InexactFloat64())
		f.SetCellValue(sheet, fmt.Sprintf("D%d", totalRow), rep.TotalSales.InexactFloat64())
		f.SetCellValue(sheet, fmt.Sprintf("E%d", totalRow), rep.TotalPayments.InexactFloat64())
		f.SetCellValue(sheet, fmt.Sprintf("F%d", totalRow), rep.TotalPending.InexactFloat64())

		f.SetColWidth(sheet, "A", "A", 28)
		f.SetColWidth(sheet, "B", "G", 14)

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Excel dosyası oluşturulamadı")
		}

		filename := fmt.Sprintf("aylik-rapor-%d-%02d.xlsx", p.Year, p.Month)
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
		return c.Send(buf.Bytes())
	}
}
