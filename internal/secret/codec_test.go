package secret

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already clean", "JBSWY3DPEHPK3PXP", "JBSWY3DPEHPK3PXP"},
		{"spaces", "JBSW Y3DP EHPK 3PXP", "JBSWY3DPEHPK3PXP"},
		{"dashes and lowercase", "jbsw-y3dp-ehpk-3pxp", "JBSWY3DPEHPK3PXP"},
		{"padding stripped", "JBSWY3DPEHPK3PXP====", "JBSWY3DPEHPK3PXP"},
		{"digits outside alphabet", "JBSW01Y3DP", "JBSWY3DP"},
		{"empty", "", ""},
		{"only garbage", "!@# 018 -_", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.input))
		})
	}
}

func TestCleanIdempotent(t *testing.T) {
	inputs := []string{
		"JBSW Y3DP EHPK 3PXP",
		"jbswy3dpehpk3pxp",
		"MFRGGZDFMZTWQ2LK",
		"",
	}

	for _, in := range inputs {
		once := Clean(in)
		assert.Equal(t, once, Clean(once), "Clean should be idempotent for %q", in)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"valid clean secret", "JBSWY3DPEHPK3PXP", nil},
		{"valid with separators", "jbsw y3dp ehpk 3pxp", nil},
		{"valid rfc vector", "GEZDGNBVGEZDGNBVGEZDGNBVGEZDGNBV", nil},
		{"too short", "ABC", ErrTooShort},
		{"empty", "", ErrTooShort},
		{"empty after clean", "01 89 !!", ErrTooShort},
		{"malformed base32 block", "JBSWY3DPE", ErrNotBase32}, // length 9 is not a valid unpadded block
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.input)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateAcceptsAllCleanSecrets(t *testing.T) {
	// Any [A-Z2-7] string of length >= 8 that decodes must validate and
	// survive Clean unchanged.
	secrets := []string{
		"ABCDEFGH",
		"JBSWY3DPEHPK3PXP",
		strings.Repeat("A", 16),
	}

	for _, s := range secrets {
		assert.Equal(t, s, Clean(s))
		assert.NoError(t, Validate(s))
	}
}

func TestDecode(t *testing.T) {
	// "JBSWY3DPEHPK3PXP" is base32 for "Hello!\xde\xad\xbe\xef"
	key, err := Decode("JBSWY3DPEHPK3PXP")
	require.NoError(t, err)
	assert.Equal(t, []byte("Hello!\xde\xad\xbe\xef"), key)

	// Cleaning happens inside Decode
	key2, err := Decode("jbsw y3dp ehpk 3pxp")
	require.NoError(t, err)
	assert.Equal(t, key, key2)

	_, err = Decode("")
	assert.ErrorIs(t, err, ErrNotBase32)

	_, err = Decode("JBSWY3DPE")
	assert.ErrorIs(t, err, ErrNotBase32)
}

func TestGenerateKey(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	assert.Equal(t, 32, len(key)) // 20 bytes -> 32 base32 characters
	assert.NoError(t, Validate(key))

	key2, err := GenerateKey()
	require.NoError(t, err)
	assert.NotEqual(t, key, key2)
}
