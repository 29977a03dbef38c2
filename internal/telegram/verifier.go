package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Sign computes the lowercase hex HMAC-SHA256 Telegram attaches as `hash`.
// The HMAC key is SHA-256 of the bot token.
func Sign(botToken string, p Payload) string {
	secret := sha256.Sum256([]byte(botToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(p.DataCheckString()))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether p.Hash was produced by Telegram for botToken.
func Verify(botToken string, p Payload) bool {
	return subtle.ConstantTimeCompare([]byte(Sign(botToken, p)), []byte(p.Hash)) == 1
}
