package pdf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chat-invoicing-microservice/pkg/invoice"
	"github.com/chat-invoicing-microservice/pkg/upiqr"
)

func sampleInvoice(t *testing.T) invoice.Invoice {
	t.Helper()

	issue := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	items := []invoice.LineItem{
		{Name: "Pen", Quantity: 2, UnitPrice: 10},
		{Name: "Notebook", Quantity: 1, UnitPrice: 55.50},
	}
	totals, err := invoice.CalculateTotals(items, 0.18)
	require.NoError(t, err)

	qr, err := upiqr.GenerateDataURI(upiqr.Params{
		UPIID:         "shop@bank",
		PayeeName:     "Sharma Stationery",
		Amount:        totals.Total,
		Currency:      "INR",
		InvoiceNumber: "INV-202501-0001",
	})
	require.NoError(t, err)

	return invoice.Invoice{
		Number:    "INV-202501-0001",
		IssueDate: issue,
		DueDate:   issue.AddDate(0, 0, 7),
		Business: invoice.Business{
			Name:      "Sharma Stationery",
			Address:   "12 MG Road, Bengaluru",
			Phone:     "+91-9876543210",
			Email:     "billing@sharma.example",
			GSTNumber: "29ABCDE1234F1Z5",
		},
		Customer: invoice.Customer{
			Name:  "John Doe",
			Phone: "+91-9000000000",
			Email: "john@example.com",
		},
		UPIID:         "shop@bank",
		PayeeName:     "Sharma Stationery",
		Items:         items,
		Totals:        totals,
		QRCodeDataURI: qr,
	}
}

func TestRender(t *testing.T) {
	t.Run("produces a pdf document", func(t *testing.T) {
		r := NewRenderer()
		out, err := r.Render(sampleInvoice(t))
		require.NoError(t, err)
		require.NotEmpty(t, out)
		assert.Equal(t, "%PDF", string(out[:4]))
	})

	t.Run("identical input and clock render byte-identical output", func(t *testing.T) {
		inv := sampleInvoice(t)
		clock := func() time.Time {
			return time.Date(2025, time.January, 15, 10, 30, 0, 0, time.UTC)
		}

		a := NewRenderer()
		a.now = clock
		b := NewRenderer()
		b.now = clock

		first, err := a.Render(inv)
		require.NoError(t, err)
		second, err := b.Render(inv)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("malformed qr payload fails with no partial output", func(t *testing.T) {
		inv := sampleInvoice(t)
		inv.QRCodeDataURI = "data:image/png;base64,!!!not-base64!!!"

		out, err := NewRenderer().Render(inv)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRender)
		assert.Nil(t, out)
	})

	t.Run("empty qr payload fails", func(t *testing.T) {
		inv := sampleInvoice(t)
		inv.QRCodeDataURI = ""

		_, err := NewRenderer().Render(inv)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRender)
	})

	t.Run("many items flow onto further pages", func(t *testing.T) {
		inv := sampleInvoice(t)
		for i := 0; i < 60; i++ {
			inv.Items = append(inv.Items, invoice.LineItem{Name: "Bulk item", Quantity: 1, UnitPrice: 5})
		}
		totals, err := invoice.CalculateTotals(inv.Items, 0.18)
		require.NoError(t, err)
		inv.Totals = totals

		out, err := NewRenderer().Render(inv)
		require.NoError(t, err)
		assert.NotEmpty(t, out)
	})
}
