// Package otpauth handles otpauth:// provisioning URLs: parsing them on
// import (the QR-scan flow) and building them on export.
package otpauth

import (
	"errors"
	"strings"
)

const totpPrefix = "otpauth://totp/"

var (
	// ErrNotOTPAuthURL indicates the URL does not use the otpauth scheme
	ErrNotOTPAuthURL = errors.New("URL must begin with otpauth://")

	// ErrNotTOTPType indicates an otpauth URL of a non-TOTP type (e.g. hotp)
	ErrNotTOTPType = errors.New("URL must be a TOTP provisioning URL")

	// ErrMalformedURL indicates the URL has no query string
	ErrMalformedURL = errors.New("malformed URL: missing query string")

	// ErrSecretMissing indicates the URL carries no secret parameter
	ErrSecretMissing = errors.New("secret parameter not found in URL")
)

// ImportedAccount is the account-shaped result of parsing a provisioning
// URL, ready to feed into the credential store's add path.
type ImportedAccount struct {
	Name   string
	Secret string
	Issuer string
}

// Parse extracts account data from an otpauth://totp/ provisioning URL.
//
// The label is taken verbatim as the account name; it may embed an
// "Issuer:account" convention which is deliberately not split apart.
// Query values are not percent-decoded, a known limitation carried over
// from how authenticator exports are produced in practice. Any failure
// yields a nil record, never a partially populated one.
func Parse(url string) (*ImportedAccount, error) {
	if !strings.HasPrefix(url, "otpauth://") {
		return nil, ErrNotOTPAuthURL
	}
	if !strings.HasPrefix(url, totpPrefix) {
		return nil, ErrNotTOTPType
	}

	rest := strings.TrimPrefix(url, totpPrefix)

	label, query, found := strings.Cut(rest, "?")
	if !found {
		return nil, ErrMalformedURL
	}

	params := map[string]string{}
	for _, pair := range strings.Split(query, "&") {
		// Split on the first '=' only; values may contain '=' from
		// URL-encoding.
		if key, value, ok := strings.Cut(pair, "="); ok {
			params[key] = value
		}
	}

	secret, ok := params["secret"]
	if !ok {
		return nil, ErrSecretMissing
	}

	return &ImportedAccount{
		Name:   label,
		Secret: secret,
		Issuer: params["issuer"],
	}, nil
}
