// Package totp derives RFC 6238 time-based one-time passwords from Base32
// secrets. The time step is fixed at 30 seconds and codes are always 6
// digits; both are deliberately not configurable so generated codes stay
// compatible with standard authenticator apps.
package totp

import (
	"crypto/hmac"
	"crypto/sha1"
	"errors"
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/authkeep/go/internal/secret"
)

const (
	// Period is the TOTP time step in seconds (RFC 6238 default)
	Period = 30

	// Digits is the number of digits in a generated code
	Digits = 6
)

// ErrInvalidCode indicates a candidate code is not a 6-digit string
var ErrInvalidCode = errors.New("code must be exactly 6 digits")

var codeRegex = regexp.MustCompile(`^\d{6}$`)

// Generate returns the current 6-digit code for the secret, left-padded
// with zeros. A malformed secret yields an error, never a panic; callers
// running a refresh loop render a fixed invalid state instead of crashing.
func Generate(s string) (string, error) {
	return GenerateAt(s, time.Now())
}

// GenerateAt returns the code for the 30-second window containing t.
// Identical (secret, window) pairs always yield identical codes.
func GenerateAt(s string, t time.Time) (string, error) {
	key, err := secret.Decode(s)
	if err != nil {
		return "", err
	}

	counter := t.Unix() / Period
	return fmt.Sprintf("%0*d", Digits, hotp(key, counter, Digits)), nil
}

// Verify checks a user-supplied code against the secret, accepting the
// previous, current, and next windows to tolerate small clock drift.
func Verify(s, code string) (bool, error) {
	return VerifyAt(s, code, time.Now())
}

// VerifyAt checks a code against the windows surrounding t.
func VerifyAt(s, code string, t time.Time) (bool, error) {
	if !codeRegex.MatchString(code) {
		return false, ErrInvalidCode
	}

	key, err := secret.Decode(s)
	if err != nil {
		return false, err
	}

	counter := t.Unix() / Period
	for i := int64(-1); i <= 1; i++ {
		candidate := fmt.Sprintf("%0*d", Digits, hotp(key, counter+i, Digits))
		if candidate == code {
			return true, nil
		}
	}
	return false, nil
}

// TimeRemaining returns the seconds left in the current window, in [1,30].
func TimeRemaining() int {
	return TimeRemainingAt(time.Now())
}

// TimeRemainingAt returns the seconds left in the window containing t.
// On an exact window boundary the full period is returned.
func TimeRemainingAt(t time.Time) int {
	return Period - int(t.Unix()%Period)
}

// Progress returns the elapsed fraction of the current window, in [0,1).
func Progress() float64 {
	return ProgressAt(time.Now())
}

// ProgressAt returns the elapsed fraction of the window containing t.
func ProgressAt(t time.Time) float64 {
	return float64(Period-TimeRemainingAt(t)) / Period
}

// hotp implements the RFC 4226 HMAC-based one-time password algorithm:
// HMAC-SHA1 over the big-endian counter, then dynamic truncation.
func hotp(key []byte, counter int64, digits int) int {
	counterBytes := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		counterBytes[i] = byte(counter & 0xff)
		counter >>= 8
	}

	mac := hmac.New(sha1.New, key)
	mac.Write(counterBytes)
	sum := mac.Sum(nil)

	// Last 4 bits of the hash select the truncation offset; the MSB of the
	// extracted word is cleared so the value is always positive.
	offset := sum[len(sum)-1] & 0x0f
	code := (int(sum[offset]&0x7f) << 24) |
		(int(sum[offset+1]) << 16) |
		(int(sum[offset+2]) << 8) |
		int(sum[offset+3])

	return code % int(math.Pow10(digits))
}
