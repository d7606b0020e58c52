package kafka

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloudEvent_ParseFromWire(t *testing.T) {
	type payload struct {
		BookingID string `json:"booking_id"`
		Amount    int64  `json:"amount"`
	}

	ce, err := NewCloudEvent("service-payment", "payment.received", payload{BookingID: "b-1", Amount: 1500})
	require.NoError(t, err)
	ce.Subject = "b-1"

	raw, err := json.Marshal(ce)
	require.NoError(t, err)

	parsed, err := ParseCloudEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, "payment.received", parsed.Type)
	assert.Equal(t, "1.0", parsed.SpecVersion)

	var got payload
	require.NoError(t, parsed.ParseData(&got))
	assert.Equal(t, payload{BookingID: "b-1", Amount: 1500}, got)
}

func TestParseCloudEvent_RejectsMissingType(t *testing.T) {
	_, err := ParseCloudEvent([]byte(`{"id":"x","data":{}}`))
	assert.Error(t, err)

	_, err = ParseCloudEvent([]byte(`not json`))
	assert.Error(t, err)
}
