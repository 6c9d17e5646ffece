// Package payment verifies gateway payment confirmations.  The
// gateway signs the string "orderID|paymentID" with HMAC-SHA256 using
// the shared secret and sends the hex digest alongside the callback.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifySignature recomputes the expected digest and compares it to
// the one supplied by the gateway.  The comparison is constant-time so
// the endpoint cannot be used as a signature oracle.
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
