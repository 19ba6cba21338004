package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vintari/cskeeper/reconciler"
	"github.com/vintari/cskeeper/resolve"
	"github.com/vintari/cskeeper/types"
)

var (
	sgName        string
	sgDescription string
	sgProject     string
	sgTagPairs    []string
	sgClearTags   bool
	sgState       string
)

var securityGroupCmd = &cobra.Command{
	Use:   "securitygroup",
	Short: "Reconcile a security group",
	Long: `Reconcile one security group, identified by exact name within an
optional project. The description is fixed at creation; the platform
has no update call for it.

Examples:
  # Ensure a group exists
  cskeeper securitygroup --name web --description "frontend servers"

  # Remove it
  cskeeper securitygroup --name web --state absent`,
	RunE: runSecurityGroup,
}

func init() {
	rootCmd.AddCommand(securityGroupCmd)

	securityGroupCmd.Flags().StringVar(&sgName, "name", "", "Security group name (required)")
	securityGroupCmd.Flags().StringVar(&sgDescription, "description", "", "Description, set at creation only")
	securityGroupCmd.Flags().StringVar(&sgProject, "project", "", "Project name or id")
	securityGroupCmd.Flags().StringArrayVar(&sgTagPairs, "tag", nil, "Desired tag as key=value, repeatable; replaces existing tags")
	securityGroupCmd.Flags().BoolVar(&sgClearTags, "clear-tags", false, "Remove all existing tags")
	securityGroupCmd.Flags().StringVar(&sgState, "state", "present", "Desired state: present or absent")
	_ = securityGroupCmd.MarkFlagRequired("name")
}

func runSecurityGroup(cmd *cobra.Command, args []string) error {
	if err := validState(sgState); err != nil {
		return err
	}

	ctx, rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	tags := parseTags(sgTagPairs)
	if tags == nil && sgClearTags {
		tags = []types.Tag{}
	}

	r, err := reconciler.NewSecurityGroupReconciler(rt.gw, rt.log, rt.jrnl, rt.opts, reconciler.SecurityGroupSpec{
		Name:        sgName,
		Description: sgDescription,
		Tags:        tags,
	}, resolve.Selectors{Project: sgProject})
	if err != nil {
		return err
	}

	result, err := reconcileSecurityGroup(ctx, r, sgState)
	if err != nil {
		return err
	}
	return printResult(result)
}

func reconcileSecurityGroup(ctx context.Context, r *reconciler.SecurityGroupReconciler, state string) (types.SecurityGroupResult, error) {
	if state == "absent" {
		return r.Absent(ctx)
	}
	return r.Present(ctx)
}
