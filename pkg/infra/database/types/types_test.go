package types_test

import (
	"testing"

	"github.com/rimareum/gatekeeper/pkg/infra/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONMap_ValueScan(t *testing.T) {
	in := types.JSONMap{"country": "US", "risk_score": 0.9}
	v, err := in.Value()
	require.NoError(t, err)

	var out types.JSONMap
	require.NoError(t, out.Scan([]byte(v.(string))))
	assert.Equal(t, "US", out["country"])
	assert.Equal(t, 0.9, out["risk_score"])

	require.NoError(t, out.Scan(`{"a":1}`))
	assert.Equal(t, float64(1), out["a"])
}

func TestJSONMap_Nil(t *testing.T) {
	var m types.JSONMap
	v, err := m.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, m.Scan(nil))
	assert.Nil(t, m)
}

func TestJSONMap_ScanErrors(t *testing.T) {
	var m types.JSONMap
	assert.Error(t, m.Scan(42))
	assert.Error(t, m.Scan([]byte("not json")))
}
