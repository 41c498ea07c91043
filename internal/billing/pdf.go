package billing

import (
	"bytes"
	"fmt"

	"mandira-backend/internal/balance"
	"mandira-backend/internal/config"
	"mandira-backend/internal/models"

	"github.com/jung-kurt/gofpdf"
)

type BillData struct {
	Reference string
	Dairy     *config.Config
	Customer  *models.Customer
	Period    balance.Period
	Balance   *models.MonthlyBalance
	Sales     []models.Sale
}

var monthNames = [...]string{"", "Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran",
	"Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık"}

// RenderBill: aylık hesap özetini PDF olarak üretir. Tutarlar
// MonthlyBalance kaydından gelir; satış satırları sadece döküm içindir.
func RenderBill(data *BillData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("cp1254") // Türkçe karakterler
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr(data.Dairy.DairyName))
	pdf.Ln(7)

	pdf.SetFont("Arial", "", 10)
	if data.Dairy.DairyPhone != "" {
		pdf.Cell(0, 6, tr("Tel: "+data.Dairy.DairyPhone))
		pdf.Ln(6)
	}
	pdf.Cell(0, 6, tr("Fatura No: "+data.Reference))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 7, tr(fmt.Sprintf("%s %d Hesap Özeti", monthNames[data.Period.Month], data.Period.Year)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 6, tr("Müşteri: "+data.Customer.Name))
	pdf.Ln(6)
	if data.Customer.Address != "" {
		pdf.Cell(0, 6, tr("Adres: "+data.Customer.Address))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	// satış dökümü
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(30, 7, tr("Tarih"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(55, 7, tr("Süt Çeşidi"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 7, tr("Litre"), "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 7, tr("Fiyat"), "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 7, tr("Tutar"), "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, s := range data.Sales {
		pdf.CellFormat(30, 6, s.Date.Format("02.01.2006"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(55, 6, tr(s.MilkType.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, s.Quantity.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, s.Rate.StringFixed(2)+" TL", "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, s.Amount.StringFixed(2)+" TL", "1", 1, "R", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(60, 7, tr("Toplam Satış:"))
	pdf.Cell(0, 7, data.Balance.SalesAmount.StringFixed(2)+" TL")
	pdf.Ln(7)
	pdf.Cell(60, 7, tr("Toplam Tahsilat:"))
	pdf.Cell(0, 7, data.Balance.PaymentAmount.StringFixed(2)+" TL")
	pdf.Ln(7)
	pdf.Cell(60, 7, tr("Kalan Bakiye:"))
	pdf.Cell(0, 7, data.Balance.Balance.StringFixed(2)+" TL")
	pdf.Ln(10)

	if data.Balance.Status == models.BalanceStatusPaid {
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(0, 6, tr("Bu dönemin borcu kapanmıştır, teşekkür ederiz."))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
