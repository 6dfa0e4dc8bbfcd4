package otpauth

import (
	"fmt"
	"net/url"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/authkeep/go/internal/secret"
	"github.com/authkeep/go/internal/totp"
)

// DefaultQRSize is the QR code edge length in pixels, sized for reliable
// scanning by phone cameras.
const DefaultQRSize = 256

// URIParams describes an account to export as a provisioning URI.
type URIParams struct {
	Name   string // account label, may already embed an "Issuer:account" convention
	Secret string // Base32 TOTP secret
	Issuer string // optional issuer query parameter
}

// BuildURI renders a Key-Uri-Format provisioning URI for the account,
// suitable for QR display and import into any standard authenticator app.
// Algorithm, digits, and period are fixed to the values this application
// generates codes with.
func BuildURI(p URIParams) (string, error) {
	if p.Name == "" {
		return "", fmt.Errorf("account name is required")
	}
	if err := secret.Validate(p.Secret); err != nil {
		return "", err
	}

	query := url.Values{}
	query.Set("secret", secret.Clean(p.Secret))
	if p.Issuer != "" {
		query.Set("issuer", p.Issuer)
	}
	query.Set("algorithm", "SHA1")
	query.Set("digits", fmt.Sprintf("%d", totp.Digits))
	query.Set("period", fmt.Sprintf("%d", totp.Period))

	return fmt.Sprintf("%s%s?%s", totpPrefix, url.PathEscape(p.Name), query.Encode()), nil
}

// QRCode renders the account's provisioning URI as a PNG QR code. Medium
// error correction balances data capacity with scan reliability.
func QRCode(p URIParams, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}

	uri, err := BuildURI(p)
	if err != nil {
		return nil, err
	}

	png, err := qrcode.Encode(uri, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return png, nil
}
