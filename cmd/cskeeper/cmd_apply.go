package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vintari/cskeeper/config"
	"github.com/vintari/cskeeper/reconciler"
	"github.com/vintari/cskeeper/resolve"
)

var applyFile string

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Reconcile every resource in a manifest",
	Long: `Reconcile the resources declared in a YAML manifest, in order.
Each entry gets its own entity lookups; nothing is cached across
entries. The first failing entry stops the run.

Example manifest:

  version: "1"
  resources:
    - kind: domain
      path: sales/dev
      network_domain: dev.example.com
    - kind: iso
      name: debian-12
      url: https://mirror/debian-12.iso
      os_type: Debian GNU/Linux 12 (64-bit)
      zone: zone01
      tags:
        - key: env
          value: prod
    - kind: securitygroup
      name: web
      state: absent

Run it:
  cskeeper apply -f resources.yaml`,
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().StringVarP(&applyFile, "file", "f", "", "Manifest file (required)")
	_ = applyCmd.MarkFlagRequired("file")
}

// applyOutcome is one manifest entry's result in the apply report.
type applyOutcome struct {
	Kind    string `json:"kind"`
	Key     string `json:"key"`
	State   string `json:"state"`
	Changed bool   `json:"changed"`
	Result  any    `json:"result"`
}

func runApply(cmd *cobra.Command, args []string) error {
	manifest, err := config.LoadManifest(applyFile)
	if err != nil {
		return err
	}

	ctx, rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	outcomes := make([]applyOutcome, 0, len(manifest.Resources))
	for i := range manifest.Resources {
		entry := &manifest.Resources[i]
		outcome, err := applyEntry(ctx, rt, entry)
		if err != nil {
			return fmt.Errorf("resource %d (%s %q): %w", i, entry.Kind, entryKey(entry), err)
		}
		outcomes = append(outcomes, outcome)
	}

	return printResult(outcomes)
}

// applyEntry reconciles one manifest entry with fresh entity lookups.
func applyEntry(ctx context.Context, rt *runtime, entry *config.ResourceEntry) (applyOutcome, error) {
	outcome := applyOutcome{Kind: entry.Kind, Key: entryKey(entry), State: entry.State}

	switch entry.Kind {
	case "domain":
		r, err := reconciler.NewDomainReconciler(rt.gw, rt.log, rt.jrnl, rt.opts, reconciler.DomainSpec{
			Path:          entry.Path,
			NetworkDomain: entry.NetworkDomain,
			CleanUp:       entry.CleanUp,
		})
		if err != nil {
			return outcome, err
		}
		result, err := reconcileDomain(ctx, r, entry.State)
		if err != nil {
			return outcome, err
		}
		outcome.Changed, outcome.Result = result.Changed, result

	case "iso":
		r, err := reconciler.NewISOReconciler(rt.gw, rt.log, rt.jrnl, rt.opts, reconciler.ISOSpec{
			Name:                  entry.Name,
			URL:                   entry.URL,
			Checksum:              entry.Checksum,
			Bootable:              entry.BootableOrDefault(),
			IsReady:               entry.IsReady,
			IsPublic:              entry.IsPublic,
			IsFeatured:            entry.IsFeatured,
			IsDynamicallyScalable: entry.IsDynamicallyScalable,
			Filter:                entry.ISOFilter,
			Tags:                  entry.Tags,
		}, resolve.Selectors{
			Domain:  entry.Domain,
			Account: entry.Account,
			Project: entry.Project,
			Zone:    entry.Zone,
			OSType:  entry.OSType,
		})
		if err != nil {
			return outcome, err
		}
		result, err := reconcileISO(ctx, r, entry.State)
		if err != nil {
			return outcome, err
		}
		outcome.Changed, outcome.Result = result.Changed, result

	case "securitygroup":
		r, err := reconciler.NewSecurityGroupReconciler(rt.gw, rt.log, rt.jrnl, rt.opts, reconciler.SecurityGroupSpec{
			Name:        entry.Name,
			Description: entry.Description,
			Tags:        entry.Tags,
		}, resolve.Selectors{Project: entry.Project})
		if err != nil {
			return outcome, err
		}
		result, err := reconcileSecurityGroup(ctx, r, entry.State)
		if err != nil {
			return outcome, err
		}
		outcome.Changed, outcome.Result = result.Changed, result

	default:
		return outcome, fmt.Errorf("unknown kind %q", entry.Kind)
	}

	return outcome, nil
}

func entryKey(entry *config.ResourceEntry) string {
	if entry.Kind == "domain" {
		return entry.Path
	}
	return entry.Name
}
