package security

import (
	"testing"
	"time"
)

func TestComputeSignatureDeterministic(t *testing.T) {
	date := time.Now().UTC().Format(time.RFC3339)
	bodyHash := ComputeBodyHash([]byte(`{"x":1}`))

	a := ComputeSignature("secret", "POST", "/api/v1/admin/refresh-metrics", "", bodyHash, date, "nonce-1")
	b := ComputeSignature("secret", "post", "/api/v1/admin/refresh-metrics", "", bodyHash, date, "nonce-1")
	if a != b {
		t.Fatal("method casing must not change the signature")
	}
}

func TestValidateSignature(t *testing.T) {
	body := []byte(`{"scope":"all"}`)
	date := "2026-08-31T12:00:00Z"
	sig := ComputeSignature("secret", "POST", "/api/v1/admin/refresh-metrics", "", ComputeBodyHash(body), date, "n1")

	if !ValidateSignature("secret", sig, "POST", "/api/v1/admin/refresh-metrics", "", body, date, "n1") {
		t.Fatal("valid signature rejected")
	}
	if ValidateSignature("other", sig, "POST", "/api/v1/admin/refresh-metrics", "", body, date, "n1") {
		t.Fatal("wrong secret accepted")
	}
	if ValidateSignature("secret", sig, "POST", "/api/v1/admin/refresh-metrics", "", []byte("tampered"), date, "n1") {
		t.Fatal("tampered body accepted")
	}
	if ValidateSignature("secret", sig, "POST", "/api/v1/admin/refresh-metrics", "", body, date, "n2") {
		t.Fatal("changed nonce accepted")
	}
}
