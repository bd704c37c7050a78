package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifyPaymentSignature checks the per-order proof the client returns
// after checkout: HMAC-SHA256 over "orderID|paymentID" keyed with the
// key secret. Comparison is constant time.
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return verifyHMAC([]byte(orderID+"|"+paymentID), signature, c.cfg.KeySecret)
}

// VerifyWebhookSignature checks the asynchronous webhook proof: HMAC over
// the raw request body with the webhook secret, which is distinct from
// the per-order signing secret.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	if c.cfg.WebhookSecret == "" {
		return false
	}
	return verifyHMAC(body, signature, c.cfg.WebhookSecret)
}

func verifyHMAC(payload []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// SignPayment produces the signature a legitimate checkout would carry.
// Exposed for sandbox flows and tests.
func (c *Client) SignPayment(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(c.cfg.KeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
