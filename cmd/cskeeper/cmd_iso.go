package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vintari/cskeeper/reconciler"
	"github.com/vintari/cskeeper/resolve"
	"github.com/vintari/cskeeper/types"
)

var (
	isoName       string
	isoURL        string
	isoChecksum   string
	isoOSType     string
	isoBootable   bool
	isoIsReady    bool
	isoIsPublic   bool
	isoIsFeatured bool
	isoIsScalable bool
	isoFilter     string
	isoZone       string
	isoDomain     string
	isoAccount    string
	isoProject    string
	isoTagPairs   []string
	isoClearTags  bool
	isoState      string
)

var isoCmd = &cobra.Command{
	Use:   "iso",
	Short: "Reconcile a registered ISO image",
	Long: `Reconcile one ISO image, identified by name, or by checksum when one
is given. When a checksum is set it replaces the name in the lookup,
so a changed checksum registers a fresh image.

A bootable ISO (the default) requires --os-type.

Examples:
  # Register an installation image
  cskeeper iso --name debian-12 --url https://mirror/debian-12.iso \
    --os-type "Debian GNU/Linux 12 (64-bit)" --zone zone01

  # Pin by checksum and tag it
  cskeeper iso --name debian-12 --url https://mirror/debian-12.iso \
    --os-type "Debian GNU/Linux 12 (64-bit)" \
    --checksum 0b31bccccb048d1dc51... --tag env=prod

  # Remove it
  cskeeper iso --name debian-12 --state absent`,
	RunE: runISO,
}

func init() {
	rootCmd.AddCommand(isoCmd)

	isoCmd.Flags().StringVar(&isoName, "name", "", "ISO name (required)")
	isoCmd.Flags().StringVar(&isoURL, "url", "", "Download URL, required to register")
	isoCmd.Flags().StringVar(&isoChecksum, "checksum", "", "MD5 checksum; replaces the name in lookups when set")
	isoCmd.Flags().StringVar(&isoOSType, "os-type", "", "Guest OS type description or id")
	isoCmd.Flags().BoolVar(&isoBootable, "bootable", true, "Register as bootable")
	isoCmd.Flags().BoolVar(&isoIsReady, "is-ready", false, "Only match ISOs that finished downloading")
	isoCmd.Flags().BoolVar(&isoIsPublic, "is-public", false, "Visible to all accounts")
	isoCmd.Flags().BoolVar(&isoIsFeatured, "is-featured", false, "Featured image")
	isoCmd.Flags().BoolVar(&isoIsScalable, "is-dynamically-scalable", false, "Guest supports dynamic scaling of CPU/memory")
	isoCmd.Flags().StringVar(&isoFilter, "iso-filter", "self", "Listing filter: featured, self, selfexecutable, sharedexecutable, executable, community")
	isoCmd.Flags().StringVar(&isoZone, "zone", "", "Zone name or id (default: first zone)")
	isoCmd.Flags().StringVar(&isoDomain, "domain", "", "Domain path the ISO belongs to")
	isoCmd.Flags().StringVar(&isoAccount, "account", "", "Account name, requires --domain")
	isoCmd.Flags().StringVar(&isoProject, "project", "", "Project name or id")
	isoCmd.Flags().StringArrayVar(&isoTagPairs, "tag", nil, "Desired tag as key=value, repeatable; replaces existing tags")
	isoCmd.Flags().BoolVar(&isoClearTags, "clear-tags", false, "Remove all existing tags")
	isoCmd.Flags().StringVar(&isoState, "state", "present", "Desired state: present or absent")
	_ = isoCmd.MarkFlagRequired("name")
}

func runISO(cmd *cobra.Command, args []string) error {
	if err := validState(isoState); err != nil {
		return err
	}

	ctx, rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	tags := parseTags(isoTagPairs)
	if tags == nil && isoClearTags {
		tags = []types.Tag{}
	}

	r, err := reconciler.NewISOReconciler(rt.gw, rt.log, rt.jrnl, rt.opts, reconciler.ISOSpec{
		Name:                  isoName,
		URL:                   isoURL,
		Checksum:              isoChecksum,
		Bootable:              isoBootable,
		IsReady:               isoIsReady,
		IsPublic:              isoIsPublic,
		IsFeatured:            isoIsFeatured,
		IsDynamicallyScalable: isoIsScalable,
		Filter:                isoFilter,
		Tags:                  tags,
	}, resolve.Selectors{
		Domain:  isoDomain,
		Account: isoAccount,
		Project: isoProject,
		Zone:    isoZone,
		OSType:  isoOSType,
	})
	if err != nil {
		return err
	}

	result, err := reconcileISO(ctx, r, isoState)
	if err != nil {
		return err
	}
	return printResult(result)
}

func reconcileISO(ctx context.Context, r *reconciler.ISOReconciler, state string) (types.ISOResult, error) {
	if state == "absent" {
		return r.Absent(ctx)
	}
	return r.Present(ctx)
}
