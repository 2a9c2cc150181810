package qrpayload

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	dataURLPrefix = "data:image/png;base64,"
	defaultSize   = 256
)

// Render draws payload as a high error-correction PNG and returns it as a data URL.
func Render(payload string, size int) (string, error) {
	if payload == "" {
		return "", ErrEmptyPayload
	}

	if size <= 0 {
		size = defaultSize
	}

	png, err := qrcode.Encode(payload, qrcode.Highest, size)
	if err != nil {
		return "", fmt.Errorf("render qr code: %w", err)
	}

	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}
