package upiqr

import (
	"encoding/base64"
	"fmt"

	"github.com/pkg/errors"
	qrcode "github.com/skip2/go-qrcode"
)

// qrSize is the rendered QR image edge in pixels. The symbol version
// itself grows with content length.
const qrSize = 256

// Params describe one UPI payment request.
type Params struct {
	UPIID         string
	PayeeName     string
	Amount        float64
	Currency      string
	InvoiceNumber string
	// Note overrides the default transaction note
	// "Payment for Invoice {number}".
	Note string
}

// DeepLink builds the upi://pay link with parameters in the fixed order
// pa, pn, am, cu, tn and the amount formatted to exactly two decimals.
// Values are deliberately not URL-encoded; UPI apps accept the raw text
// and some reject percent-encoded notes.
func DeepLink(p Params) string {
	note := p.Note
	if note == "" {
		note = fmt.Sprintf("Payment for Invoice %s", p.InvoiceNumber)
	}
	return fmt.Sprintf("upi://pay?pa=%s&pn=%s&am=%.2f&cu=%s&tn=%s",
		p.UPIID, p.PayeeName, p.Amount, p.Currency, note)
}

// ReferenceString is the short payment string shown alongside the QR
// code for manual entry.
func ReferenceString(upiID string, amount float64, invoiceNumber string) string {
	return fmt.Sprintf("upi://pay?pa=%s&am=%.2f&tn=Invoice-%s", upiID, amount, invoiceNumber)
}

// GenerateDataURI encodes the deep link into a PNG QR code at low error
// correction and returns it as a data:image/png;base64 payload suitable
// for embedding.
func GenerateDataURI(p Params) (string, error) {
	png, err := qrcode.Encode(DeepLink(p), qrcode.Low, qrSize)
	if err != nil {
		return "", errors.Wrap(err, "encode upi qr code")
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
