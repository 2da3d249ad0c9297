package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader carries "t=<unix>,v1=<hex hmac>" on every delivery.
const SignatureHeader = "Stripe-Signature"

const DefaultTolerance = 5 * time.Minute

var (
	ErrNotConfigured     = errors.New("payments: webhook secret not configured")
	ErrSignatureFormat   = errors.New("payments: invalid signature header format")
	ErrSignatureExpired  = errors.New("payments: webhook timestamp outside tolerance")
	ErrSignatureMismatch = errors.New("payments: signature verification failed")
)

// VerifySignature checks header against HMAC-SHA256(secret, t + "." + payload).
// Any v1 entry may match, which lets the processor roll secrets.
func VerifySignature(payload []byte, header, secret string, now time.Time, tolerance time.Duration) error {
	if secret == "" {
		return ErrNotConfigured
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return ErrSignatureFormat
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrSignatureFormat
	}
	age := now.Sub(time.Unix(ts, 0))
	if age > tolerance || age < -tolerance {
		return ErrSignatureExpired
	}

	expected := sign(payload, secret, timestamp)
	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return ErrSignatureMismatch
}

// SignatureFor builds a header value the way the processor does. Used by
// tests and the local webhook replay tool.
func SignatureFor(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	return "t=" + ts + ",v1=" + sign(payload, secret, ts)
}

func sign(payload []byte, secret, timestamp string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
