package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullableStringAbsent(t *testing.T) {
	var payload struct {
		Client NullableString `json:"client"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{}`), &payload))
	assert.False(t, payload.Client.Valid)
	assert.Nil(t, payload.Client.Value)
}

func TestNullableStringNull(t *testing.T) {
	var payload struct {
		Client NullableString `json:"client"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"client":null}`), &payload))
	assert.True(t, payload.Client.Valid)
	assert.Nil(t, payload.Client.Value)
}

func TestNullableStringSet(t *testing.T) {
	var payload struct {
		Client NullableString `json:"client"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"client":"ACME"}`), &payload))
	require.True(t, payload.Client.Valid)
	require.NotNil(t, payload.Client.Value)
	assert.Equal(t, "ACME", *payload.Client.Value)
}

