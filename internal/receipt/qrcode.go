package receipt

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

const qrSize = 256

type Generator interface {
	Generate(orderID int) ([]byte, error)
}

// QRGenerator renders a PNG QR code that links to the order resource.
type QRGenerator struct {
	BaseURL string
}

func NewQRGenerator(baseURL string) QRGenerator {
	return QRGenerator{BaseURL: strings.TrimRight(baseURL, "/")}
}

func (g QRGenerator) Link(orderID int) string {
	return fmt.Sprintf("%s/api/orders/%d", g.BaseURL, orderID)
}

func (g QRGenerator) Generate(orderID int) ([]byte, error) {
	png, err := qrcode.Encode(g.Link(orderID), qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code for order %d: %w", orderID, err)
	}
	return png, nil
}
