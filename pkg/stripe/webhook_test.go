package stripe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSigningSecret = "whsec_test_secret"

var testPayload = []byte(`{"id":"evt_1","type":"customer.subscription.updated","data":{"object":{"id":"sub_1"}}}`)

func TestConstructEventValidSignature(t *testing.T) {
	header := SignPayload(testPayload, testSigningSecret, time.Now())

	event, err := ConstructEvent(testPayload, header, testSigningSecret, DefaultTolerance)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, "customer.subscription.updated", event.Type)
	assert.JSONEq(t, `{"id":"sub_1"}`, string(event.Data.Object))
}

func TestConstructEventMissingHeader(t *testing.T) {
	_, err := ConstructEvent(testPayload, "", testSigningSecret, DefaultTolerance)
	assert.ErrorIs(t, err, ErrMissingSignature)
}

func TestConstructEventWrongSecret(t *testing.T) {
	header := SignPayload(testPayload, "whsec_other", time.Now())

	_, err := ConstructEvent(testPayload, header, testSigningSecret, DefaultTolerance)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestConstructEventTamperedPayload(t *testing.T) {
	header := SignPayload(testPayload, testSigningSecret, time.Now())
	tampered := []byte(`{"id":"evt_1","type":"customer.subscription.deleted","data":{"object":{"id":"sub_1"}}}`)

	_, err := ConstructEvent(tampered, header, testSigningSecret, DefaultTolerance)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestConstructEventStaleTimestamp(t *testing.T) {
	header := SignPayload(testPayload, testSigningSecret, time.Now().Add(-10*time.Minute))

	_, err := ConstructEvent(testPayload, header, testSigningSecret, DefaultTolerance)
	assert.ErrorIs(t, err, ErrStaleTimestamp)
}

func TestConstructEventMalformedHeader(t *testing.T) {
	_, err := ConstructEvent(testPayload, "v1=deadbeef", testSigningSecret, DefaultTolerance)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}
