package utils

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// QRISPayload builds the string encoded into a QRIS payment QR code. The
// payment app on the user's phone resolves the transaction by its id.
func QRISPayload(transactionID string, amount int64) string {
	return fmt.Sprintf("onlyren://pay?txn=%s&amount=%d", transactionID, amount)
}

// QRISCodePNG renders the QRIS payload as a 256x256 PNG and returns it
// base64-encoded for embedding in a JSON response.
func QRISCodePNG(transactionID string, amount int64) (string, error) {
	png, err := qrcode.Encode(QRISPayload(transactionID, amount), qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
