package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance bounds how stale a webhook signature timestamp may
// be before the event is rejected as a replay.
const DefaultTolerance = 5 * time.Minute

var (
	ErrMissingSignature = errors.New("stripe: missing signature header")
	ErrInvalidSignature = errors.New("stripe: signature verification failed")
	ErrStaleTimestamp   = errors.New("stripe: signature timestamp outside tolerance")
)

// ConstructEvent verifies the "t=...,v1=..." signature header against
// the raw payload and decodes the event envelope. Verification failure
// means the event must be dropped before any handler sees it.
func ConstructEvent(payload []byte, sigHeader, signingSecret string, tolerance time.Duration) (*Event, error) {
	if sigHeader == "" {
		return nil, ErrMissingSignature
	}

	var timestamp int64
	var signatures []string
	for _, part := range strings.Split(sigHeader, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("stripe: malformed signature timestamp: %w", err)
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if timestamp == 0 || len(signatures) == 0 {
		return nil, ErrInvalidSignature
	}

	if tolerance > 0 {
		age := time.Since(time.Unix(timestamp, 0))
		if age > tolerance || age < -tolerance {
			return nil, ErrStaleTimestamp
		}
	}

	expected := computeSignature(timestamp, payload, signingSecret)
	valid := false
	for _, sig := range signatures {
		provided, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(provided, expected) {
			valid = true
			break
		}
	}
	if !valid {
		return nil, ErrInvalidSignature
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("stripe: decode event: %w", err)
	}
	return &event, nil
}

func computeSignature(timestamp int64, payload []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return mac.Sum(nil)
}

// SignPayload produces a valid signature header for a payload; used by
// tests and local tooling to exercise the webhook ingress.
func SignPayload(payload []byte, signingSecret string, at time.Time) string {
	timestamp := at.Unix()
	sig := computeSignature(timestamp, payload, signingSecret)
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(sig))
}
