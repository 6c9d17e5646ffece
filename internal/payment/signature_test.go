package payment_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cinetick/movie-booking-api/internal/payment"
)

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	const secret = "test-secret"
	sig := sign(secret, "order-123", "pay-456")

	assert.True(t, payment.VerifySignature(secret, "order-123", "pay-456", sig))
}

func TestVerifySignatureRejectsTampering(t *testing.T) {
	const secret = "test-secret"
	sig := sign(secret, "order-123", "pay-456")

	assert.False(t, payment.VerifySignature(secret, "order-999", "pay-456", sig), "different order")
	assert.False(t, payment.VerifySignature(secret, "order-123", "pay-999", sig), "different payment")
	assert.False(t, payment.VerifySignature("other-secret", "order-123", "pay-456", sig), "wrong secret")
	assert.False(t, payment.VerifySignature(secret, "order-123", "pay-456", ""), "empty signature")
	assert.False(t, payment.VerifySignature(secret, "order-123", "pay-456", sig[:len(sig)-2]), "truncated signature")
}
