package config_test

import (
	"encoding/base64"
	"net/url"
	"testing"
	"time"

	"foosball/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webToken = "00000000000000000000000000000000"

func TestSignTokenBadWebToken(t *testing.T) {
	c := config.Config{WebToken: ""}
	_, err := c.SignToken("admin", time.Hour)
	assert.Error(t, err, "expected error on empty HMAC key")
}

func TestSignToken(t *testing.T) {
	c := config.Config{WebToken: webToken}
	str, err := c.SignToken("admin", time.Hour)
	require.NoError(t, err)

	value, err := c.CheckToken(str)
	require.NoError(t, err)
	assert.Equal(t, "admin", value)
}

func TestSignTokenExpired(t *testing.T) {
	c := config.Config{WebToken: webToken}
	str, err := c.SignToken("admin", -time.Hour)
	require.NoError(t, err)

	_, err = c.CheckToken(str)
	assert.ErrorIs(t, err, config.ErrTokenExpired)
}

func TestSignTokenOtherKey(t *testing.T) {
	c := config.Config{WebToken: webToken}
	str, err := c.SignToken("admin", time.Hour)
	require.NoError(t, err)

	other := config.Config{WebToken: "11111111111111111111111111111111"}
	_, err = other.CheckToken(str)
	assert.ErrorIs(t, err, config.ErrTokenInvalid)
}

func TestSignTokenTampered(t *testing.T) {
	c := config.Config{WebToken: webToken}
	str, err := c.SignToken("admin", time.Hour)
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(str)
	require.NoError(t, err)
	q, err := url.ParseQuery(string(raw))
	require.NoError(t, err)
	q.Set("v", "root")
	tampered := base64.RawURLEncoding.EncodeToString([]byte(q.Encode()))

	_, err = c.CheckToken(tampered)
	assert.ErrorIs(t, err, config.ErrTokenInvalid)

	_, err = c.CheckToken("not base64 !")
	assert.ErrorIs(t, err, config.ErrTokenInvalid)
}
