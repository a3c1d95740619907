package caldate

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfDropsClockAndZone(t *testing.T) {
	oslo, err := time.LoadLocation("Europe/Oslo")
	if err != nil {
		t.Skip("tzdata not available")
	}
	a := Of(time.Date(2026, 6, 20, 23, 30, 0, 0, oslo))
	b := MustParse("2026-06-20")
	assert.Equal(t, b, a)
	assert.Equal(t, "2026-06-20", a.String())
}

func TestJSON(t *testing.T) {
	var payload struct {
		Date *Date `json:"date"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2026-06-20"}`), &payload))
	require.NotNil(t, payload.Date)
	assert.Equal(t, "2026-06-20", payload.Date.String())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2026-06-20"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"date":"20/06/2026"}`), &payload))
}

func TestScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2026-06-20", d.String())

	require.NoError(t, d.Scan([]byte("2026-07-01T00:00:00Z")))
	assert.Equal(t, "2026-07-01", d.String())

	assert.Error(t, d.Scan(42))
}
