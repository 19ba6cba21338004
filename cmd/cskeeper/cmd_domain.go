package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vintari/cskeeper/reconciler"
	"github.com/vintari/cskeeper/types"
)

var (
	domainPath          string
	domainNetworkDomain string
	domainCleanUp       bool
	domainState         string
)

var domainCmd = &cobra.Command{
	Use:   "domain",
	Short: "Reconcile an organizational domain",
	Long: `Reconcile one CloudStack domain, identified by its hierarchical path.

Paths are case-insensitive and anchored under ROOT, so "Sales/Dev",
"/root/sales/dev" and "ROOT/Sales/Dev" all name the same domain. The
parent domain must already exist.

Examples:
  # Ensure a domain exists
  cskeeper domain --path Sales/Dev

  # Set the network domain suffix
  cskeeper domain --path Sales/Dev --network-domain dev.example.com

  # Remove a domain and everything in it
  cskeeper domain --path Sales/Dev --state absent --clean-up`,
	RunE: runDomain,
}

func init() {
	rootCmd.AddCommand(domainCmd)

	domainCmd.Flags().StringVar(&domainPath, "path", "", "Domain path (required)")
	domainCmd.Flags().StringVar(&domainNetworkDomain, "network-domain", "", "Network domain suffix for accounts in this domain")
	domainCmd.Flags().BoolVar(&domainCleanUp, "clean-up", false, "On delete, also remove the domain's resources")
	domainCmd.Flags().StringVar(&domainState, "state", "present", "Desired state: present or absent")
	_ = domainCmd.MarkFlagRequired("path")
}

func runDomain(cmd *cobra.Command, args []string) error {
	if err := validState(domainState); err != nil {
		return err
	}

	ctx, rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	r, err := reconciler.NewDomainReconciler(rt.gw, rt.log, rt.jrnl, rt.opts, reconciler.DomainSpec{
		Path:          domainPath,
		NetworkDomain: domainNetworkDomain,
		CleanUp:       domainCleanUp,
	})
	if err != nil {
		return err
	}

	result, err := reconcileDomain(ctx, r, domainState)
	if err != nil {
		return err
	}
	return printResult(result)
}

func reconcileDomain(ctx context.Context, r *reconciler.DomainReconciler, state string) (types.DomainResult, error) {
	if state == "absent" {
		return r.Absent(ctx)
	}
	return r.Present(ctx)
}
