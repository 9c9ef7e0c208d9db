package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
	var payload struct {
		When Date  `json:"when"`
		Nil  Date  `json:"nil"`
		Ptr  *Date `json:"ptr"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"when":"2026-10-20","nil":null,"ptr":""}`), &payload))
	assert.Equal(t, "2026-10-20", payload.When.String())
	assert.True(t, payload.Nil.IsZero())
	require.NotNil(t, payload.Ptr)
	assert.True(t, payload.Ptr.IsZero())

	out, err := json.Marshal(payload.When)
	require.NoError(t, err)
	assert.JSONEq(t, `"2026-10-20"`, string(out))

	out, err = json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"when":"20/10/2026"}`), &payload))
}

func TestNewDateTruncates(t *testing.T) {
	loc := time.FixedZone("COT", -5*3600)
	d := NewDate(time.Date(2026, 10, 20, 23, 15, 0, 0, loc))
	assert.Equal(t, time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), d.Time)
	assert.Nil(t, Date{}.Ptr())
	require.NotNil(t, d.Ptr())
}
