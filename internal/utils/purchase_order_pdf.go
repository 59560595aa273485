package utils

import (
	"bytes"
	"fmt"
	"time"

	"github.com/phpdave11/gofpdf"
)

type PurchaseOrderData struct {
	NotificationID  int64
	ItemName        string
	Unit            string
	QuantityNeeded  float64
	CurrentQuantity float64
	ReorderPoint    float64
	SupplierName    string
	SupplierContact string
	SupplierEmail   string
	SupplierPhone   string
	Notes           string
	OrderedAt       time.Time
}

// BuildPurchaseOrderPDF renders the supplier purchase order generated
// when a reorder notification is marked ORDERED.
func BuildPurchaseOrderPDF(data PurchaseOrderData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, "Purchase Order", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 5, fmt.Sprintf("PO-%06d", data.NotificationID), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, data.OrderedAt.Format("2006-01-02 15:04"), "", 1, "C", false, 0, "")

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, "Supplier", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	if data.SupplierName != "" {
		pdf.CellFormat(0, 5, data.SupplierName, "", 1, "L", false, 0, "")
	}
	if data.SupplierContact != "" {
		pdf.CellFormat(0, 5, fmt.Sprintf("Attn: %s", data.SupplierContact), "", 1, "L", false, 0, "")
	}
	if data.SupplierEmail != "" {
		pdf.CellFormat(0, 5, data.SupplierEmail, "", 1, "L", false, 0, "")
	}
	if data.SupplierPhone != "" {
		pdf.CellFormat(0, 5, data.SupplierPhone, "", 1, "L", false, 0, "")
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, "Order", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("%s - %.2f %s", data.ItemName, data.QuantityNeeded, data.Unit), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Current stock: %.2f %s", data.CurrentQuantity, data.Unit), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Reorder point: %.2f %s", data.ReorderPoint, data.Unit), "", 1, "L", false, 0, "")
	if data.Notes != "" {
		pdf.Ln(2)
		pdf.MultiCell(0, 4, fmt.Sprintf("Notes: %s", data.Notes), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
