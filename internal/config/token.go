package config

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

var (
	// ErrTokenExpired means the token is valid, but expired.
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// SignToken returns an opaque token carrying value, valid for the given
// duration.
func (c *Config) SignToken(value string, d time.Duration) (string, error) {
	q := url.Values{}
	q.Set("v", value)
	q.Set("td", strconv.FormatInt(time.Now().Add(d).Unix(), 10))

	token, err := c.sign([]byte(q.Encode()))
	if err != nil {
		return "", err
	}

	q.Set("t", token)

	return base64.RawURLEncoding.EncodeToString([]byte(q.Encode())), nil
}

// CheckToken ensures the token was signed by SignToken with the same key and
// returns the value it carries.
func (c *Config) CheckToken(str string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(str)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrTokenInvalid, err)
	}

	q, err := url.ParseQuery(string(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrTokenInvalid, err)
	}

	td, err := strconv.ParseInt(q.Get("td"), 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrTokenInvalid, err)
	}

	inputToken := q.Get("t")
	q.Del("t")

	token, err := c.sign([]byte(q.Encode()))
	if err != nil {
		return "", err
	}

	if !hmac.Equal([]byte(token), []byte(inputToken)) {
		return "", ErrTokenInvalid
	}

	// Keep this last, this error must be returned _only_ if the token is valid.
	if time.Unix(td, 0).Before(time.Now()) {
		return "", ErrTokenExpired
	}

	return q.Get("v"), nil
}

func (c *Config) sign(b []byte) (string, error) {
	if len(c.WebToken) < 32 {
		return "", errors.New("web token must be ≥ 32 chars")
	}

	mac := hmac.New(sha256.New, []byte(c.WebToken))
	if _, err := mac.Write(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(mac.Sum(nil)), nil
}
