package reconciler

import (
	"testing"

	"github.com/vintari/cskeeper/gateway"
)

func TestSchemaChanged(t *testing.T) {
	schema := Schema{
		"networkdomain": CompareExact,
		"displaytext":   CompareFold,
		"size":          CompareNumeric,
		"bootable":      CompareBool,
	}

	tests := []struct {
		name    string
		want    gateway.Params
		current gateway.Response
		changed bool
	}{
		{
			name:    "all in sync",
			want:    gateway.Params{"networkdomain": "example.com"},
			current: gateway.Response{"networkdomain": "example.com"},
			changed: false,
		},
		{
			name:    "exact field differs",
			want:    gateway.Params{"networkdomain": "example.org"},
			current: gateway.Response{"networkdomain": "example.com"},
			changed: true,
		},
		{
			name:    "absent desired field is dont-care",
			want:    gateway.Params{},
			current: gateway.Response{"networkdomain": "example.com"},
			changed: false,
		},
		{
			name:    "empty desired value is dont-care",
			want:    gateway.Params{"networkdomain": ""},
			current: gateway.Response{"networkdomain": "example.com"},
			changed: false,
		},
		{
			name:    "field the platform does not report is skipped",
			want:    gateway.Params{"networkdomain": "example.com"},
			current: gateway.Response{},
			changed: false,
		},
		{
			name:    "fold comparison ignores case",
			want:    gateway.Params{"displaytext": "Debian 12"},
			current: gateway.Response{"displaytext": "debian 12"},
			changed: false,
		},
		{
			name:    "numeric comparison ignores representation",
			want:    gateway.Params{"size": "100"},
			current: gateway.Response{"size": float64(100)},
			changed: false,
		},
		{
			name:    "numeric difference detected",
			want:    gateway.Params{"size": "200"},
			current: gateway.Response{"size": float64(100)},
			changed: true,
		},
		{
			name:    "bool comparison tolerates 1",
			want:    gateway.Params{"bootable": "true"},
			current: gateway.Response{"bootable": "1"},
			changed: false,
		},
		{
			name:    "field outside the schema is ignored",
			want:    gateway.Params{"path": "ROOT/other"},
			current: gateway.Response{"path": "ROOT/sales"},
			changed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := schema.Changed(tt.want, tt.current); got != tt.changed {
				t.Errorf("Changed() = %v, want %v", got, tt.changed)
			}
		})
	}
}
