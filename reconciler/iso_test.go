package reconciler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vintari/cskeeper/gateway"
	"github.com/vintari/cskeeper/resolve"
	"github.com/vintari/cskeeper/types"
)

func isoGateway(isos ...map[string]any) *fakeGateway {
	return newFakeGateway().
		respond("listZones", listOf("zone", map[string]any{"id": "z-1", "name": "zone01"})).
		respond("listIsos", listOf("iso", isos...))
}

func debianISO() map[string]any {
	return map[string]any{
		"id": "iso-1", "name": "debian-12", "displaytext": "debian-12",
		"zonename": "zone01", "isready": true, "checksum": "abc123",
	}
}

func newISOReconciler(t *testing.T, gw gateway.API, opts Options, spec ISOSpec, sel resolve.Selectors) *ISOReconciler {
	t.Helper()
	r, err := NewISOReconciler(gw, testLogger(), nil, opts, spec, sel)
	require.NoError(t, err)
	return r
}

func TestISORejectsUnknownFilter(t *testing.T) {
	_, err := NewISOReconciler(newFakeGateway(), testLogger(), nil, testOptions(),
		ISOSpec{Name: "debian-12", Filter: "everything"}, resolve.Selectors{})

	var missing *types.MissingRequiredField
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "iso_filter", missing.Field)
}

func TestISOBootableRequiresOSType(t *testing.T) {
	gw := isoGateway(debianISO())
	r := newISOReconciler(t, gw, testOptions(), ISOSpec{Name: "debian-12", Bootable: true}, resolve.Selectors{})

	_, err := r.Present(context.Background())

	var missing *types.MissingRequiredField
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "os_type", missing.Field)
	assert.Empty(t, gw.calls, "validation must precede any remote call")
}

func TestISOPresentInSync(t *testing.T) {
	gw := isoGateway(debianISO())
	r := newISOReconciler(t, gw, testOptions(), ISOSpec{Name: "debian-12"}, resolve.Selectors{})

	result, err := r.Present(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Changed)
	assert.Equal(t, "iso-1", result.ID)

	params := gw.lastParams(t, "listIsos")
	assert.Equal(t, "debian-12", params["name"])
	assert.Equal(t, "self", params["isofilter"])
	assert.Equal(t, "false", params["isready"])
}

func TestISOLookupByChecksum(t *testing.T) {
	gw := isoGateway(
		map[string]any{"id": "iso-old", "name": "debian-12", "checksum": "old"},
		map[string]any{"id": "iso-new", "name": "debian-12-v2", "checksum": "abc123"},
	)
	r := newISOReconciler(t, gw, testOptions(),
		ISOSpec{Name: "debian-12", Checksum: "abc123"}, resolve.Selectors{})

	result, err := r.Present(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Changed)
	assert.Equal(t, "iso-new", result.ID, "checksum match wins over name")

	params := gw.lastParams(t, "listIsos")
	assert.NotContains(t, params, "name", "checksum replaces the name in the lookup")
}

func TestISOPresentRegisters(t *testing.T) {
	gw := isoGateway().
		respond("listOsTypes", listOf("ostype",
			map[string]any{"id": "os-1", "description": "Debian GNU/Linux 12 (64-bit)"})).
		respond("registerIso", listOf("iso", map[string]any{
			"id": "iso-1", "name": "debian-12", "zonename": "zone01", "isready": false,
		}))
	r := newISOReconciler(t, gw, testOptions(), ISOSpec{
		Name:     "debian-12",
		URL:      "https://mirror/debian-12.iso",
		Bootable: true,
	}, resolve.Selectors{OSType: "Debian GNU/Linux 12 (64-bit)"})

	result, err := r.Present(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Equal(t, "iso-1", result.ID)

	params := gw.lastParams(t, "registerIso")
	assert.Equal(t, "https://mirror/debian-12.iso", params["url"])
	assert.Equal(t, "os-1", params["ostypeid"])
	assert.Equal(t, "z-1", params["zoneid"])
	assert.Equal(t, "true", params["bootable"])
	assert.Equal(t, "debian-12", params["displaytext"])
}

func TestISORegisterRequiresURL(t *testing.T) {
	gw := isoGateway()
	r := newISOReconciler(t, gw, testOptions(), ISOSpec{Name: "debian-12"}, resolve.Selectors{})

	_, err := r.Present(context.Background())

	var missing *types.MissingRequiredField
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "url", missing.Field)
}

func TestISOPresentDryRunRegister(t *testing.T) {
	opts := testOptions()
	opts.DryRun = true

	gw := isoGateway().
		respond("listOsTypes", listOf("ostype",
			map[string]any{"id": "os-1", "description": "Debian GNU/Linux 12 (64-bit)"}))
	r := newISOReconciler(t, gw, opts, ISOSpec{
		Name:     "debian-12",
		URL:      "https://mirror/debian-12.iso",
		Bootable: true,
	}, resolve.Selectors{OSType: "Debian GNU/Linux 12 (64-bit)"})

	result, err := r.Present(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Equal(t, "debian-12", result.Name)
	assert.Equal(t, "zone01", result.Zone)
	for _, call := range gw.calls {
		assert.NotEqual(t, "registerIso", call.action)
	}
}

func TestISOPresentReconcilesTags(t *testing.T) {
	existing := debianISO()
	existing["tags"] = []any{map[string]any{"key": "env", "value": "staging"}}

	gw := isoGateway(existing).
		respond("deleteTags", gateway.Response{}).
		respond("createTags", gateway.Response{}).
		respond("listTags", listOf("tag", map[string]any{"key": "env", "value": "prod"}))
	r := newISOReconciler(t, gw, testOptions(), ISOSpec{
		Name: "debian-12",
		Tags: []types.Tag{{Key: "env", Value: "prod"}},
	}, resolve.Selectors{})

	result, err := r.Present(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Equal(t, []types.Tag{{Key: "env", Value: "prod"}}, result.Tags)

	params := gw.lastParams(t, "createTags")
	assert.Equal(t, "ISO", params["resourcetype"])
	assert.Equal(t, "iso-1", params["resourceids"])
}

func TestISOAbsentDeletesAndPolls(t *testing.T) {
	gw := isoGateway(debianISO()).
		respond("deleteIso", gateway.Response{"jobid": "j1"}).
		respond("queryAsyncJobResult", gateway.Response{
			"jobstatus": float64(1),
			"jobresult": map[string]any{"success": true},
		})
	r := newISOReconciler(t, gw, testOptions(), ISOSpec{Name: "debian-12"}, resolve.Selectors{})

	result, err := r.Absent(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Equal(t, "iso-1", result.ID)

	params := gw.lastParams(t, "deleteIso")
	assert.Equal(t, "iso-1", params["id"])
	assert.Equal(t, "z-1", params["zoneid"])
}

func TestISOAbsentAlreadyGone(t *testing.T) {
	gw := isoGateway()
	r := newISOReconciler(t, gw, testOptions(), ISOSpec{Name: "debian-12"}, resolve.Selectors{})

	result, err := r.Absent(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Changed)
	assert.Empty(t, result.ID)
}
