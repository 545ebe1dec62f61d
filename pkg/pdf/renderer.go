package pdf

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"

	"github.com/chat-invoicing-microservice/pkg/invoice"
)

// ErrRender reports a document assembly failure. No partial document is
// ever returned alongside it.
var ErrRender = errors.New("invoice render failed")

// Layout palette, dark navy theme.
var (
	colorPrimary  = rgb{44, 62, 80}
	colorDarkText = rgb{33, 37, 41}
	colorGrayText = rgb{108, 117, 125}
	colorLightBG  = rgb{248, 249, 250}
	colorBorder   = rgb{222, 226, 230}
)

type rgb struct{ r, g, b int }

const (
	pageMargin   = 15.0
	contentWidth = 180.0 // A4 width minus margins
)

// Renderer lays out invoice PDFs. It holds no per-invoice state; the
// clock is injectable so identical input renders byte-identical output.
type Renderer struct {
	now func() time.Time
}

// NewRenderer returns a renderer stamping documents with the wall clock.
func NewRenderer() *Renderer {
	return &Renderer{now: time.Now}
}

func formatCurrency(amount float64) string {
	return fmt.Sprintf("Rs. %.2f", amount)
}

func formatDate(t time.Time) string {
	return t.Format("02 January 2006")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// Render produces the finished PDF for the given invoice.
func (r *Renderer) Render(inv invoice.Invoice) ([]byte, error) {
	qrPNG, err := decodeDataURI(inv.QRCodeDataURI)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(r.now())
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	r.header(pdf, inv)
	r.fromAndInfo(pdf, inv)
	r.billTo(pdf, inv)
	r.itemsTable(pdf, inv)
	r.totalsBlock(pdf, inv)
	r.paymentBlock(pdf, inv, qrPNG)
	r.termsBlock(pdf, inv)
	r.footer(pdf, inv)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(ErrRender, err.Error())
	}
	return buf.Bytes(), nil
}

func decodeDataURI(uri string) ([]byte, error) {
	payload := uri
	if i := strings.Index(uri, ","); i != -1 {
		payload = uri[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errors.Wrapf(ErrRender, "malformed qr payload: %v", err)
	}
	if len(raw) == 0 {
		return nil, errors.Wrap(ErrRender, "empty qr payload")
	}
	return raw, nil
}

func setText(pdf *gofpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }
func setFill(pdf *gofpdf.Fpdf, c rgb) { pdf.SetFillColor(c.r, c.g, c.b) }
func setDraw(pdf *gofpdf.Fpdf, c rgb) { pdf.SetDrawColor(c.r, c.g, c.b) }

// header prints the business name and the INVOICE title side by side.
func (r *Renderer) header(pdf *gofpdf.Fpdf, inv invoice.Invoice) {
	y := pdf.GetY()

	pdf.SetFont("Helvetica", "B", 18)
	setText(pdf, colorDarkText)
	pdf.CellFormat(contentWidth/2, 10, inv.Business.Name, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 24)
	setText(pdf, colorPrimary)
	pdf.CellFormat(contentWidth/2, 10, "INVOICE", "", 1, "R", false, 0, "")

	pdf.SetY(y + 14)
}

// fromAndInfo prints the business details on the left and the invoice
// info box (number, dates, amount due) on the right.
func (r *Renderer) fromAndInfo(pdf *gofpdf.Fpdf, inv invoice.Invoice) {
	top := pdf.GetY()

	pdf.SetFont("Helvetica", "B", 8)
	setText(pdf, colorGrayText)
	pdf.CellFormat(100, 4, "FROM:", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 10)
	setText(pdf, colorDarkText)
	pdf.CellFormat(100, 5, inv.Business.Name, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	setText(pdf, colorGrayText)
	pdf.MultiCell(95, 4, inv.Business.Address, "", "L", false)
	pdf.CellFormat(100, 4, "Phone: "+orNA(inv.Business.Phone), "", 1, "L", false, 0, "")
	pdf.CellFormat(100, 4, "Email: "+orNA(inv.Business.Email), "", 1, "L", false, 0, "")
	pdf.CellFormat(100, 4, "GST No: "+orNA(inv.Business.GSTNumber), "", 1, "L", false, 0, "")
	fromBottom := pdf.GetY()

	// Info box on the right.
	boxX := pageMargin + contentWidth - 75
	boxW := 75.0
	rowH := 8.0
	rows := [][2]string{
		{"INVOICE NO:", inv.Number},
		{"DATE:", formatDate(inv.IssueDate)},
		{"DUE DATE:", formatDate(inv.DueDate)},
		{"AMOUNT DUE:", formatCurrency(inv.Totals.Total)},
	}

	setFill(pdf, colorLightBG)
	setDraw(pdf, colorBorder)
	pdf.Rect(boxX, top, boxW, rowH*float64(len(rows)), "FD")

	for i, row := range rows {
		y := top + rowH*float64(i)
		pdf.SetXY(boxX+3, y+2)
		pdf.SetFont("Helvetica", "B", 8)
		setText(pdf, colorGrayText)
		pdf.CellFormat(27, 4, row[0], "", 0, "L", false, 0, "")

		if i == len(rows)-1 {
			pdf.SetFont("Helvetica", "B", 11)
			setText(pdf, colorPrimary)
		} else {
			pdf.SetFont("Helvetica", "", 9)
			setText(pdf, colorDarkText)
		}
		pdf.CellFormat(boxW-33, 4, row[1], "", 0, "R", false, 0, "")

		if i < len(rows)-1 {
			pdf.Line(boxX, y+rowH, boxX+boxW, y+rowH)
		}
	}

	infoBottom := top + rowH*float64(len(rows))
	if fromBottom > infoBottom {
		pdf.SetY(fromBottom + 8)
	} else {
		pdf.SetY(infoBottom + 8)
	}
}

// billTo prints the customer block with a primary accent line on top.
func (r *Renderer) billTo(pdf *gofpdf.Fpdf, inv invoice.Invoice) {
	top := pdf.GetY()
	boxH := 24.0

	setDraw(pdf, colorBorder)
	pdf.Rect(pageMargin, top, contentWidth, boxH, "D")
	setDraw(pdf, colorPrimary)
	pdf.SetLineWidth(1)
	pdf.Line(pageMargin, top, pageMargin+contentWidth, top)
	pdf.SetLineWidth(0.2)

	pdf.SetXY(pageMargin+4, top+3)
	pdf.SetFont("Helvetica", "B", 9)
	setText(pdf, colorGrayText)
	pdf.CellFormat(100, 4, "BILL TO:", "", 2, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 12)
	setText(pdf, colorDarkText)
	pdf.CellFormat(100, 6, inv.Customer.Name, "", 2, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	setText(pdf, colorGrayText)
	pdf.CellFormat(100, 4, "Phone: "+orNA(inv.Customer.Phone), "", 2, "L", false, 0, "")
	pdf.CellFormat(100, 4, "Email: "+orNA(inv.Customer.Email), "", 2, "L", false, 0, "")

	pdf.SetY(top + boxH + 8)
}

// itemsTable prints the line items with a dark header row and subtle
// alternating row fill. Order is the extraction order.
func (r *Renderer) itemsTable(pdf *gofpdf.Fpdf, inv invoice.Invoice) {
	colW := []float64{90, 20, 35, 35}
	heads := []string{"ITEM", "QTY", "RATE", "AMOUNT"}
	aligns := []string{"L", "C", "R", "R"}

	pdf.SetFont("Helvetica", "B", 9)
	setFill(pdf, colorPrimary)
	pdf.SetTextColor(255, 255, 255)
	setDraw(pdf, colorBorder)
	for i, head := range heads {
		last := 0
		if i == len(heads)-1 {
			last = 1
		}
		pdf.CellFormat(colW[i], 9, head, "1", last, aligns[i], true, 0, "")
	}

	pdf.SetFont("Helvetica", "", 9)
	for i, item := range inv.Items {
		fill := i%2 == 1
		setFill(pdf, colorLightBG)
		setText(pdf, colorDarkText)

		cells := []string{
			item.Name,
			fmt.Sprintf("%d", item.Quantity),
			formatCurrency(item.UnitPrice),
			formatCurrency(item.LineAmount()),
		}
		for c, text := range cells {
			last := 0
			if c == len(cells)-1 {
				last = 1
			}
			pdf.CellFormat(colW[c], 8, text, "1", last, aligns[c], fill, 0, "")
		}
	}

	pdf.Ln(6)
}

// totalsBlock prints subtotal, tax and grand total right-aligned.
func (r *Renderer) totalsBlock(pdf *gofpdf.Fpdf, inv invoice.Invoice) {
	labelW, valueW := 45.0, 38.0
	x := pageMargin + contentWidth - labelW - valueW

	setDraw(pdf, colorBorder)

	pdf.SetX(x)
	pdf.SetFont("Helvetica", "", 9)
	setText(pdf, colorGrayText)
	pdf.CellFormat(labelW, 8, "Subtotal:", "LT", 0, "R", false, 0, "")
	setText(pdf, colorDarkText)
	pdf.CellFormat(valueW, 8, formatCurrency(inv.Totals.Subtotal), "TR", 1, "R", false, 0, "")

	pdf.SetX(x)
	setText(pdf, colorGrayText)
	pdf.CellFormat(labelW, 8, fmt.Sprintf("GST (%.0f%%):", inv.Totals.TaxRatePercent), "LB", 0, "R", false, 0, "")
	setText(pdf, colorDarkText)
	pdf.CellFormat(valueW, 8, formatCurrency(inv.Totals.TaxAmount), "BR", 1, "R", false, 0, "")

	pdf.SetX(x)
	pdf.SetFont("Helvetica", "B", 11)
	setFill(pdf, colorPrimary)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(labelW, 10, "TOTAL AMOUNT", "1", 0, "R", true, 0, "")
	pdf.CellFormat(valueW, 10, formatCurrency(inv.Totals.Total), "1", 1, "R", true, 0, "")

	pdf.Ln(8)
}

// paymentBlock prints the QR code next to the UPI payment details.
func (r *Renderer) paymentBlock(pdf *gofpdf.Fpdf, inv invoice.Invoice, qrPNG []byte) {
	pdf.SetFont("Helvetica", "B", 11)
	setText(pdf, colorDarkText)
	pdf.CellFormat(contentWidth, 6, "Payment Information", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	top := pdf.GetY()
	qrBoxW, boxH := 55.0, 55.0

	setFill(pdf, colorLightBG)
	setDraw(pdf, colorBorder)
	pdf.Rect(pageMargin, top, qrBoxW, boxH, "FD")

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("upi-qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("upi-qr", pageMargin+5, top+3, 45, 45, false, opts, 0, "")

	pdf.SetXY(pageMargin, top+boxH-6)
	pdf.SetFont("Helvetica", "", 7)
	setText(pdf, colorGrayText)
	pdf.CellFormat(qrBoxW, 4, "Scan to Pay via UPI", "", 0, "C", false, 0, "")

	detailX := pageMargin + qrBoxW + 6
	detailW := contentWidth - qrBoxW - 6
	pdf.Rect(detailX, top, detailW, boxH, "D")

	pdf.SetXY(detailX+5, top+5)
	pdf.SetFont("Helvetica", "B", 10)
	setText(pdf, colorDarkText)
	pdf.CellFormat(detailW-10, 5, "Pay via UPI", "", 2, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetX(detailX + 5)
	setText(pdf, colorGrayText)
	pdf.CellFormat(20, 5, "UPI ID:", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 9)
	setText(pdf, colorDarkText)
	pdf.CellFormat(detailW-30, 5, inv.UPIID, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetX(detailX + 5)
	setText(pdf, colorGrayText)
	pdf.CellFormat(20, 5, "Payee:", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 9)
	setText(pdf, colorDarkText)
	pdf.CellFormat(detailW-30, 5, inv.PayeeName, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetX(detailX + 5)
	setText(pdf, colorGrayText)
	pdf.CellFormat(20, 5, "Amount:", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 9)
	setText(pdf, colorDarkText)
	pdf.CellFormat(detailW-30, 5, formatCurrency(inv.Totals.Total), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	pdf.SetX(detailX + 5)
	pdf.SetFont("Helvetica", "", 7)
	setText(pdf, colorGrayText)
	pdf.MultiCell(detailW-10, 3.5, "Scan the QR code using any UPI app\n(GooglePay, PhonePe, Paytm, etc.)", "", "L", false)

	pdf.SetY(top + boxH + 8)
}

// termsBlock prints the fixed boilerplate terms.
func (r *Renderer) termsBlock(pdf *gofpdf.Fpdf, inv invoice.Invoice) {
	pdf.SetFont("Helvetica", "B", 10)
	setText(pdf, colorDarkText)
	pdf.CellFormat(contentWidth, 5, "Terms & Conditions", "", 1, "L", false, 0, "")
	pdf.Ln(1)

	terms := fmt.Sprintf(
		"- Payment is due within 7 days from the invoice date.\n"+
			"- Please include the invoice number when making payment.\n"+
			"- Late payments may incur additional charges.\n"+
			"- For any queries regarding this invoice, please contact us at %s or %s.",
		orNA(inv.Business.Email), orNA(inv.Business.Phone))

	top := pdf.GetY()
	setFill(pdf, colorLightBG)
	setDraw(pdf, colorBorder)

	pdf.SetFont("Helvetica", "", 8)
	setText(pdf, colorGrayText)
	pdf.SetXY(pageMargin+4, top+3)
	pdf.MultiCell(contentWidth-8, 4, terms, "", "L", false)
	boxBottom := pdf.GetY() + 3
	pdf.Rect(pageMargin, top, contentWidth, boxBottom-top, "D")

	pdf.SetY(boxBottom + 8)
}

// footer prints the thank-you line and the generation stamp.
func (r *Renderer) footer(pdf *gofpdf.Fpdf, inv invoice.Invoice) {
	pdf.SetFont("Helvetica", "B", 13)
	setText(pdf, colorPrimary)
	pdf.CellFormat(contentWidth, 8, "Thank You for Your Business!", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	setDraw(pdf, colorBorder)
	y := pdf.GetY()
	pdf.Line(pageMargin, y, pageMargin+contentWidth, y)
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(173, 181, 189)
	pdf.CellFormat(contentWidth, 3.5, "This is a computer-generated invoice and does not require a physical signature.", "", 1, "C", false, 0, "")
	pdf.CellFormat(contentWidth, 3.5, "Generated on "+r.now().Format("January 02, 2006 at 3:04 PM"), "", 1, "C", false, 0, "")
	pdf.CellFormat(contentWidth, 3.5,
		fmt.Sprintf("%s | %s | %s", inv.Business.Name, orNA(inv.Business.Email), orNA(inv.Business.Phone)),
		"", 1, "C", false, 0, "")
}
