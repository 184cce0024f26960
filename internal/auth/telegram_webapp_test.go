package auth

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

const testBotToken = "123456:TEST-TOKEN"

func signInitData(t *testing.T, botToken string, vals url.Values) string {
	t.Helper()

	var pairs []string
	for key, values := range vals {
		for _, v := range values {
			pairs = append(pairs, fmt.Sprintf("%s=%s", key, v))
		}
	}
	sort.Strings(pairs)
	dataCheckString := strings.Join(pairs, "\n")

	secretKey := hmacSHA256([]byte("WebAppData"), []byte(botToken))
	hash := hex.EncodeToString(hmacSHA256(secretKey, []byte(dataCheckString)))

	vals.Set("hash", hash)
	return vals.Encode()
}

func TestValidateTelegramWebAppData(t *testing.T) {
	vals := url.Values{}
	vals.Set("user", `{"id":42,"first_name":"Test"}`)
	vals.Set("auth_date", fmt.Sprintf("%d", time.Now().Unix()))
	initData := signInitData(t, testBotToken, vals)

	got, err := ValidateTelegramWebAppData(initData, testBotToken, 5*time.Minute)
	if err != nil {
		t.Fatalf("valid initData rejected: %v", err)
	}
	if got.Get("user") == "" {
		t.Error("user field lost during validation")
	}
}

func TestValidateTelegramWebAppDataWrongToken(t *testing.T) {
	vals := url.Values{}
	vals.Set("user", `{"id":42}`)
	vals.Set("auth_date", fmt.Sprintf("%d", time.Now().Unix()))
	initData := signInitData(t, "999:OTHER-TOKEN", vals)

	if _, err := ValidateTelegramWebAppData(initData, testBotToken, 5*time.Minute); err == nil {
		t.Error("initData signed with another bot token must be rejected")
	}
}

func TestValidateTelegramWebAppDataExpired(t *testing.T) {
	vals := url.Values{}
	vals.Set("user", `{"id":42}`)
	vals.Set("auth_date", fmt.Sprintf("%d", time.Now().Add(-time.Hour).Unix()))
	initData := signInitData(t, testBotToken, vals)

	if _, err := ValidateTelegramWebAppData(initData, testBotToken, 5*time.Minute); err == nil {
		t.Error("stale auth_date must be rejected")
	}
}

func TestValidateTelegramWebAppDataTampered(t *testing.T) {
	vals := url.Values{}
	vals.Set("user", `{"id":42}`)
	vals.Set("auth_date", fmt.Sprintf("%d", time.Now().Unix()))
	initData := signInitData(t, testBotToken, vals)
	initData = strings.Replace(initData, "42", "43", 1)

	if _, err := ValidateTelegramWebAppData(initData, testBotToken, 5*time.Minute); err == nil {
		t.Error("tampered initData must be rejected")
	}
}

func TestValidateTelegramWebAppDataMissingHash(t *testing.T) {
	if _, err := ValidateTelegramWebAppData("auth_date=123", testBotToken, 5*time.Minute); err == nil {
		t.Error("initData without hash must be rejected")
	}
}

func TestJWTRoundTrip(t *testing.T) {
	userID := uuid.New()
	token, err := GenerateJWT("secret", userID, 42, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ParseJWT("secret", token)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != userID || claims.TelegramUserID != 42 {
		t.Errorf("claims mismatch: %+v", claims)
	}

	if _, err := ParseJWT("other-secret", token); err == nil {
		t.Error("token must not parse with a different secret")
	}
}

func TestVerifyAdCompletion(t *testing.T) {
	secret := "provider-secret"
	userID := uuid.New().String()
	eventID := "evt-123"
	sig := hex.EncodeToString(hmacSHA256([]byte(secret), []byte(userID+":"+eventID)))

	if !VerifyAdCompletion(secret, userID, eventID, sig) {
		t.Error("valid provider signature rejected")
	}
	if VerifyAdCompletion(secret, userID, "evt-456", sig) {
		t.Error("signature must bind to the event id")
	}
	if VerifyAdCompletion(secret, uuid.New().String(), eventID, sig) {
		t.Error("signature must bind to the user id")
	}
	if VerifyAdCompletion("", userID, eventID, sig) {
		t.Error("empty secret must never verify")
	}
}
