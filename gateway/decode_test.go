package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vintari/cskeeper/types"
)

func TestDecodeISO(t *testing.T) {
	payload := map[string]any{
		"id":          "iso-1",
		"name":        "debian-12",
		"displaytext": "debian-12",
		"zonename":    "zone01",
		"isready":     true,
		"bootable":    "true", // the API flips between bool and string
		"ostypeid":    "os-42",
		"tags": []any{
			map[string]any{"key": "env", "value": "prod"},
		},
	}

	var iso types.ISO
	require.NoError(t, Decode(payload, &iso))

	assert.Equal(t, "iso-1", iso.ID)
	assert.Equal(t, "zone01", iso.Zone)
	assert.True(t, iso.IsReady)
	assert.True(t, iso.Bootable)
	assert.Equal(t, "os-42", iso.OSTypeID)
	assert.Equal(t, []types.Tag{{Key: "env", Value: "prod"}}, iso.Tags)
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	payload := map[string]any{
		"id":            "d1",
		"path":          "ROOT/sales",
		"haschild":      true,
		"networkdomain": "example.com",
	}

	var d types.Domain
	require.NoError(t, Decode(payload, &d))

	assert.Equal(t, "d1", d.ID)
	assert.Equal(t, "ROOT/sales", d.Path)
	assert.Equal(t, "example.com", d.NetworkDomain)
}
