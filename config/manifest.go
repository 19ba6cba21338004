package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vintari/cskeeper/types"
)

// Manifest declares a set of resources to reconcile in order.
type Manifest struct {
	Version   string          `yaml:"version"`
	Resources []ResourceEntry `yaml:"resources"`
}

// ResourceEntry is one declared resource. Fields not applicable to the
// entry's kind are ignored.
type ResourceEntry struct {
	Kind  string `yaml:"kind"`
	State string `yaml:"state"`

	// domain
	Path          string `yaml:"path,omitempty"`
	NetworkDomain string `yaml:"network_domain,omitempty"`
	CleanUp       bool   `yaml:"clean_up,omitempty"`

	// iso
	Name                  string `yaml:"name,omitempty"`
	URL                   string `yaml:"url,omitempty"`
	OSType                string `yaml:"os_type,omitempty"`
	Checksum              string `yaml:"checksum,omitempty"`
	Bootable              *bool  `yaml:"bootable,omitempty"`
	IsReady               bool   `yaml:"is_ready,omitempty"`
	IsPublic              bool   `yaml:"is_public,omitempty"`
	IsFeatured            bool   `yaml:"is_featured,omitempty"`
	IsDynamicallyScalable bool   `yaml:"is_dynamically_scalable,omitempty"`
	ISOFilter             string `yaml:"iso_filter,omitempty"`

	// securitygroup
	Description string `yaml:"description,omitempty"`

	// entity scope
	Domain  string `yaml:"domain,omitempty"`
	Account string `yaml:"account,omitempty"`
	Project string `yaml:"project,omitempty"`
	Zone    string `yaml:"zone,omitempty"`

	Tags []types.Tag `yaml:"tags,omitempty"`
}

// BootableOrDefault returns the bootable flag, defaulting to true the way
// the platform treats unspecified ISOs.
func (e *ResourceEntry) BootableOrDefault() bool {
	if e.Bootable == nil {
		return true
	}
	return *e.Bootable
}

// LoadManifest reads and validates a resource manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}

// Validate checks every entry names a known kind, a valid state and its
// natural key.
func (m *Manifest) Validate() error {
	if len(m.Resources) == 0 {
		return fmt.Errorf("no resources declared")
	}
	for i := range m.Resources {
		entry := &m.Resources[i]
		if entry.State == "" {
			entry.State = "present"
		}
		if entry.State != "present" && entry.State != "absent" {
			return fmt.Errorf("resource %d: state must be present or absent, got %q", i, entry.State)
		}
		switch entry.Kind {
		case "domain":
			if entry.Path == "" {
				return fmt.Errorf("resource %d: domain requires a path", i)
			}
		case "iso", "securitygroup":
			if entry.Name == "" {
				return fmt.Errorf("resource %d: %s requires a name", i, entry.Kind)
			}
		default:
			return fmt.Errorf("resource %d: unknown kind %q", i, entry.Kind)
		}
	}
	return nil
}
