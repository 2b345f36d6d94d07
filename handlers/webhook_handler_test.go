package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http/httptest"
	"testing"

	"dailyGraceAPI/internal/testhelpers"
)

func signSvix(secret, id, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%s.%s.%s", id, timestamp, string(body))))
	return "v1," + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyClerkSignature(t *testing.T) {
	secret := "whsec_test_secret"
	t.Setenv("CLERK_WEBHOOK_SECRET", secret)

	body := testhelpers.MockClerkWebhookPayload("user.created", "test-clerk-id")
	svixID := "msg_123"
	svixTimestamp := "1700000000"

	r := httptest.NewRequest("POST", "/webhooks/clerk", nil)
	r.Header.Set("svix-id", svixID)
	r.Header.Set("svix-timestamp", svixTimestamp)
	r.Header.Set("svix-signature", signSvix(secret, svixID, svixTimestamp, body))

	if !verifyClerkSignature(r, body) {
		t.Error("Valid signature rejected")
	}
}

func TestVerifyClerkSignatureRejectsTampering(t *testing.T) {
	secret := "whsec_test_secret"
	t.Setenv("CLERK_WEBHOOK_SECRET", secret)

	body := testhelpers.MockClerkWebhookPayload("user.created", "test-clerk-id")
	svixID := "msg_123"
	svixTimestamp := "1700000000"
	signature := signSvix(secret, svixID, svixTimestamp, body)

	// Body altered after signing.
	tampered := testhelpers.MockClerkWebhookPayload("user.deleted", "test-clerk-id")
	r := httptest.NewRequest("POST", "/webhooks/clerk", nil)
	r.Header.Set("svix-id", svixID)
	r.Header.Set("svix-timestamp", svixTimestamp)
	r.Header.Set("svix-signature", signature)
	if verifyClerkSignature(r, tampered) {
		t.Error("Tampered body accepted")
	}

	// Wrong secret.
	r = httptest.NewRequest("POST", "/webhooks/clerk", nil)
	r.Header.Set("svix-id", svixID)
	r.Header.Set("svix-timestamp", svixTimestamp)
	r.Header.Set("svix-signature", signSvix("whsec_other", svixID, svixTimestamp, body))
	if verifyClerkSignature(r, body) {
		t.Error("Signature from wrong secret accepted")
	}

	// Missing headers.
	r = httptest.NewRequest("POST", "/webhooks/clerk", nil)
	if verifyClerkSignature(r, body) {
		t.Error("Request without signature headers accepted")
	}
}
