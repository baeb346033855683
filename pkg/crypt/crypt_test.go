package crypt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/wellness360/config"
)

func TestRoundTripIsRandomised(t *testing.T) {
	config.Set("APP_KEY", "crypt-test-key")
	type claims struct {
		SID string `json:"sid"`
		IAT int64  `json:"iat"`
	}

	a, err := EncryptJSON(claims{SID: "s1", IAT: 42})
	require.NoError(t, err)
	b, err := EncryptJSON(claims{SID: "s1", IAT: 42})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	var got claims
	require.NoError(t, DecryptJSON(a, &got))
	assert.Equal(t, claims{SID: "s1", IAT: 42}, got)
}

func TestDecryptRejectsTampering(t *testing.T) {
	config.Set("APP_KEY", "crypt-test-key")
	enc, err := EncryptJSON(map[string]any{"sid": "abc", "iat": 1})
	require.NoError(t, err)

	tampered := []byte(enc)
	tampered[len(tampered)-1] ^= 'A' ^ 'B'
	var out map[string]any
	assert.ErrorIs(t, DecryptJSON(string(tampered), &out), ErrDecrypt)
	assert.ErrorIs(t, DecryptJSON("%%%", &out), ErrDecrypt)
	assert.ErrorIs(t, DecryptJSON("", &out), ErrDecrypt)

	config.Set("APP_KEY", "another-key")
	assert.ErrorIs(t, DecryptJSON(enc, &out), ErrDecrypt)
}
