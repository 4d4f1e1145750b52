package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/assetflow/internal/server/models"
	"github.com/go-pdf/fpdf"
)

var csvHeader = []string{
	"Asset ID", "Name", "Category", "Status", "Purchase Date",
	"Purchase Value", "Current Value", "Serial Number", "Manufacturer",
	"Warranty Expiry", "Assigned To", "Owner", "Location", "Created Date",
}

var csvFields = []string{
	"asset_id", "name", "category", "status", "purchase_date",
	"purchase_value", "current_value", "serial_number", "manufacturer",
	"warranty_expiry", "assigned_to_email", "owner_email", "location", "created_date",
}

// ReportService renders the asset reports from the records visible to the
// caller.
type ReportService struct {
	records *RecordService
	now     func() time.Time
}

func NewReportService(records *RecordService) *ReportService {
	return &ReportService{records: records, now: time.Now}
}

// AssetsCSV writes one row per visible asset.
func (s *ReportService) AssetsCSV(ctx context.Context, user models.Document, w io.Writer) error {
	assets, err := s.records.List(ctx, user, "assets")
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	row := make([]string, len(csvFields))
	for _, a := range assets {
		for i, f := range csvFields {
			row[i] = a.String(f)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// AssetsPDF writes a summary with an assets table and a properties table.
func (s *ReportService) AssetsPDF(ctx context.Context, user models.Document, w io.Writer) error {
	assets, err := s.records.List(ctx, user, "assets")
	if err != nil {
		return err
	}
	properties, err := s.records.List(ctx, user, "properties")
	if err != nil {
		return err
	}

	var assetValue, propertyValue float64
	for _, a := range assets {
		assetValue += a.Float("current_value")
	}
	for _, p := range properties {
		propertyValue += propertyPrice(p)
	}

	who := user.String("full_name")
	if who == "" {
		who = user.String("email")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "Asset & Property Management Report", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	for _, line := range []string{
		"Generated on: " + s.now().Format("2006-01-02 15:04:05"),
		fmt.Sprintf("Total Assets: %d | Total Properties: %d", len(assets), len(properties)),
		fmt.Sprintf("Total Asset Value: %.0f | Total Property Value: %.0f", assetValue, propertyValue),
		"Report for: " + who,
	} {
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	if len(assets) > 0 {
		rows := make([][]string, 0, len(assets))
		for _, a := range assets {
			rows = append(rows, []string{
				truncate(a.String("asset_id"), 15),
				truncate(a.String("name"), 25),
				truncate(a.String("category"), 15),
				truncate(a.String("status"), 12),
				fmt.Sprintf("%.0f", a.Float("current_value")),
			})
		}
		pdfTable(pdf, "Assets", []string{"Asset ID", "Name", "Category", "Status", "Value"}, rows)
	}

	if len(properties) > 0 {
		if len(assets) > 0 {
			pdf.AddPage()
		}
		rows := make([][]string, 0, len(properties))
		for _, p := range properties {
			price := fmt.Sprintf("%.0f", propertyPrice(p))
			if p.Float("price") == 0 && p.Float("monthly_cost") != 0 {
				price += "/mo"
			}
			rows = append(rows, []string{
				truncate(p.String("property_name"), 25),
				truncate(p.String("property_type"), 15),
				truncate(p.String("city")+", "+p.String("state"), 20),
				truncate(p.String("status"), 12),
				price,
			})
		}
		pdfTable(pdf, "Properties", []string{"Property Name", "Type", "Location", "Status", "Price/Monthly"}, rows)
	}

	if len(assets) == 0 && len(properties) == 0 {
		pdf.CellFormat(0, 6, "No assets or properties to display.", "", 1, "L", false, 0, "")
	}

	return pdf.Output(w)
}

func pdfTable(pdf *fpdf.Fpdf, title string, header []string, rows [][]string) {
	widths := []float64{30, 55, 35, 30, 35}

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(128, 128, 128)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(0, 0, 0)
	for n, row := range rows {
		if n%2 == 0 {
			pdf.SetFillColor(255, 255, 255)
		} else {
			pdf.SetFillColor(211, 211, 211)
		}
		for i, cell := range row {
			pdf.CellFormat(widths[i], 6, cell, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(6)
}

// propertyPrice is the sale price, or the monthly cost when there is none.
func propertyPrice(p models.Document) float64 {
	if v := p.Float("price"); v != 0 {
		return v
	}
	return p.Float("monthly_cost")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
