package auth

import (
	"crypto/hmac"
	"encoding/hex"
	"fmt"
)

// VerifyAdCompletion checks the signature the ad provider attaches to its
// "ad watched fully" callback. The signed payload is "<user_id>:<event_id>",
// keyed with the shared provider secret. The event id doubles as the
// idempotency key for the credit.
func VerifyAdCompletion(secret string, userID string, eventID string, signature string) bool {
	if secret == "" || eventID == "" || signature == "" {
		return false
	}
	payload := fmt.Sprintf("%s:%s", userID, eventID)
	want := hex.EncodeToString(hmacSHA256([]byte(secret), []byte(payload)))
	return hmac.Equal([]byte(want), []byte(signature))
}
