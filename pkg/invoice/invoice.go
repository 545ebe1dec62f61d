package invoice

import "time"

// LineItem represents one purchased item extracted from chat text.
// The JSON field names mirror the extraction schema.
type LineItem struct {
	Name      string  `json:"item"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"price"`
}

// Business holds the issuing party details printed on the invoice.
type Business struct {
	Name      string
	Address   string
	Phone     string
	Email     string
	GSTNumber string
}

// Customer holds the billed party details.
type Customer struct {
	Name  string
	Phone string
	Email string
}

// Invoice is the fully assembled invoice record handed to the renderer.
// It lives for the duration of one request and is never persisted.
type Invoice struct {
	Number    string
	IssueDate time.Time
	DueDate   time.Time

	Business Business
	Customer Customer

	UPIID     string
	PayeeName string

	Items  []LineItem
	Totals Totals

	// QRCodeDataURI is the UPI payment QR image as a
	// data:image/png;base64 payload.
	QRCodeDataURI string
}
