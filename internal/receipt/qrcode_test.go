package receipt_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/food-delivery/internal/receipt"
)

func TestQRGenerator_Link(t *testing.T) {
	g := receipt.NewQRGenerator("http://localhost:8080/")

	assert.Equal(t, "http://localhost:8080/api/orders/42", g.Link(42))
}

func TestQRGenerator_Generate_ReturnsPNG(t *testing.T) {
	g := receipt.NewQRGenerator("http://localhost:8080")

	png, err := g.Generate(42)

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")), "expected PNG signature")
}
