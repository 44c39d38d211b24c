package kraken

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"net/url"
)

// sign computes the API-Sign header for a private endpoint:
// HMAC-SHA512(path + SHA256(nonce + postdata), base64-decoded secret).
func (c *Client) sign(path, nonce string, form url.Values) (string, error) {
	secret, err := base64.StdEncoding.DecodeString(c.secret)
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256([]byte(nonce + form.Encode()))
	mac := hmac.New(sha512.New, secret)
	mac.Write([]byte(path))
	mac.Write(digest[:])
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
