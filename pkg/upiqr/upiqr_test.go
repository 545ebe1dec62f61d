package upiqr

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeepLink(t *testing.T) {
	t.Run("fixed parameter order and two-decimal amount", func(t *testing.T) {
		link := DeepLink(Params{
			UPIID:         "shop@bank",
			PayeeName:     "Shop",
			Amount:        123.4,
			Currency:      "INR",
			InvoiceNumber: "INV-202501-0001",
		})
		assert.Equal(t, "upi://pay?pa=shop@bank&pn=Shop&am=123.40&cu=INR&tn=Payment for Invoice INV-202501-0001", link)
	})

	t.Run("explicit note overrides default", func(t *testing.T) {
		link := DeepLink(Params{
			UPIID:     "shop@bank",
			PayeeName: "Shop",
			Amount:    10,
			Currency:  "INR",
			Note:      "Order 42",
		})
		assert.True(t, strings.HasSuffix(link, "&tn=Order 42"))
	})

	t.Run("values are not url-encoded", func(t *testing.T) {
		link := DeepLink(Params{
			UPIID:         "shop@bank",
			PayeeName:     "Sharma & Sons",
			Amount:        10,
			Currency:      "INR",
			InvoiceNumber: "INV-202501-0002",
		})
		assert.Contains(t, link, "pn=Sharma & Sons")
		assert.NotContains(t, link, "%20")
	})
}

func TestReferenceString(t *testing.T) {
	s := ReferenceString("shop@bank", 99.5, "INV-202501-0003")
	assert.Equal(t, "upi://pay?pa=shop@bank&am=99.50&tn=Invoice-INV-202501-0003", s)
}

func TestGenerateDataURI(t *testing.T) {
	uri, err := GenerateDataURI(Params{
		UPIID:         "shop@bank",
		PayeeName:     "Shop",
		Amount:        123.40,
		Currency:      "INR",
		InvoiceNumber: "INV-202501-0001",
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG\r\n\x1a\n"), raw[:8])
}
