// Package resolve turns human-readable entity selectors (domain path,
// account name, zone name) into platform ids.
//
// All lookups go through a Context that is created per reconciliation and
// discarded afterwards. Memoization lives on the Context, never on shared
// state, so stale entity references cannot leak between unrelated resource
// operations.
package resolve

import (
	"context"
	"strings"

	"github.com/vintari/cskeeper/gateway"
	"github.com/vintari/cskeeper/types"
)

// Selectors are the caller-supplied entity names. Empty means "not given":
// optional kinds resolve to none, first-available kinds (zone, hypervisor)
// pick the first entry the platform lists.
type Selectors struct {
	Domain     string
	Account    string
	Project    string
	Zone       string
	OSType     string
	Hypervisor string
}

// Account is a resolved account reference.
type Account struct {
	ID   string `cs:"id"`
	Name string `cs:"name"`
}

// Project is a resolved project reference.
type Project struct {
	ID   string `cs:"id"`
	Name string `cs:"name"`
}

// Zone is a resolved zone reference.
type Zone struct {
	ID   string `cs:"id"`
	Name string `cs:"name"`
}

// OSType is a resolved guest OS type reference.
type OSType struct {
	ID          string `cs:"id"`
	Description string `cs:"description"`
}

// Context resolves and memoizes entity references for one invocation.
type Context struct {
	gw  gateway.API
	sel Selectors

	domain       *types.Domain
	account      *Account
	project      *Project
	zone         *Zone
	osType       *OSType
	hypervisor   string
	capabilities gateway.Response
}

// NewContext creates a resolution context scoped to one reconciliation.
func NewContext(gw gateway.API, sel Selectors) *Context {
	return &Context{gw: gw, sel: sel}
}

// Domain resolves the domain selector. Returns nil with no error when no
// selector was given. Matches the hierarchical path case-insensitively,
// with and without the ROOT/ prefix, and accepts the opaque id directly.
func (c *Context) Domain(ctx context.Context) (*types.Domain, error) {
	if c.domain != nil {
		return c.domain, nil
	}
	if c.sel.Domain == "" {
		return nil, nil
	}

	resp, err := c.gw.Request(ctx, "listDomains", gateway.NewParams().SetBool("listall", true))
	if err != nil {
		return nil, err
	}

	want := strings.ToLower(c.sel.Domain)
	for _, item := range resp.List("domain") {
		path := strings.ToLower(item.Str("path"))
		if path == want || path == "root/"+want || path == "root"+want || item.Str("id") == c.sel.Domain {
			var d types.Domain
			if err := gateway.Decode(map[string]any(item), &d); err != nil {
				return nil, err
			}
			c.domain = &d
			return c.domain, nil
		}
	}
	return nil, &types.NotFound{Kind: "domain", Selector: c.sel.Domain}
}

// DomainID returns the resolved domain id, or "" when no domain was given.
func (c *Context) DomainID(ctx context.Context) (string, error) {
	d, err := c.Domain(ctx)
	if err != nil || d == nil {
		return "", err
	}
	return d.ID, nil
}

// Account resolves the account selector within its domain. An account
// selector without a domain selector is a caller error.
func (c *Context) Account(ctx context.Context) (*Account, error) {
	if c.account != nil {
		return c.account, nil
	}
	if c.sel.Account == "" {
		return nil, nil
	}
	if c.sel.Domain == "" {
		return nil, &types.MissingRequiredField{Field: "domain", Reason: "account must be specified with a domain"}
	}

	domainID, err := c.DomainID(ctx)
	if err != nil {
		return nil, err
	}

	params := gateway.NewParams().
		Set("name", c.sel.Account).
		Set("domainid", domainID).
		SetBool("listall", true)
	resp, err := c.gw.Request(ctx, "listAccounts", params)
	if err != nil {
		return nil, err
	}

	accounts := resp.List("account")
	if len(accounts) == 0 {
		return nil, &types.NotFound{Kind: "account", Selector: c.sel.Account}
	}
	var a Account
	if err := gateway.Decode(map[string]any(accounts[0]), &a); err != nil {
		return nil, err
	}
	c.account = &a
	return c.account, nil
}

// AccountName returns the resolved account name, or "" when none was given.
func (c *Context) AccountName(ctx context.Context) (string, error) {
	a, err := c.Account(ctx)
	if err != nil || a == nil {
		return "", err
	}
	return a.Name, nil
}

// Project resolves the project selector, matched case-insensitively by
// name or directly by id.
func (c *Context) Project(ctx context.Context) (*Project, error) {
	if c.project != nil {
		return c.project, nil
	}
	if c.sel.Project == "" {
		return nil, nil
	}

	accountName, err := c.AccountName(ctx)
	if err != nil {
		return nil, err
	}
	domainID, err := c.DomainID(ctx)
	if err != nil {
		return nil, err
	}

	params := gateway.NewParams().
		Set("account", accountName).
		Set("domainid", domainID)
	resp, err := c.gw.Request(ctx, "listProjects", params)
	if err != nil {
		return nil, err
	}

	want := strings.ToLower(c.sel.Project)
	for _, item := range resp.List("project") {
		if strings.ToLower(item.Str("name")) == want || item.Str("id") == c.sel.Project {
			var p Project
			if err := gateway.Decode(map[string]any(item), &p); err != nil {
				return nil, err
			}
			c.project = &p
			return c.project, nil
		}
	}
	return nil, &types.NotFound{Kind: "project", Selector: c.sel.Project}
}

// ProjectID returns the resolved project id, or "" when none was given.
func (c *Context) ProjectID(ctx context.Context) (string, error) {
	p, err := c.Project(ctx)
	if err != nil || p == nil {
		return "", err
	}
	return p.ID, nil
}

// Zone resolves the zone selector. With no selector the first zone in the
// listing order is used; that order is platform-defined, not stable.
func (c *Context) Zone(ctx context.Context) (*Zone, error) {
	if c.zone != nil {
		return c.zone, nil
	}

	resp, err := c.gw.Request(ctx, "listZones", gateway.NewParams())
	if err != nil {
		return nil, err
	}
	zones := resp.List("zone")

	if c.sel.Zone == "" {
		if len(zones) == 0 {
			return nil, &types.NotFound{Kind: "zone", Selector: ""}
		}
		var z Zone
		if err := gateway.Decode(map[string]any(zones[0]), &z); err != nil {
			return nil, err
		}
		c.zone = &z
		return c.zone, nil
	}

	for _, item := range zones {
		if strings.EqualFold(item.Str("name"), c.sel.Zone) || item.Str("id") == c.sel.Zone {
			var z Zone
			if err := gateway.Decode(map[string]any(item), &z); err != nil {
				return nil, err
			}
			c.zone = &z
			return c.zone, nil
		}
	}
	return nil, &types.NotFound{Kind: "zone", Selector: c.sel.Zone}
}

// ZoneID returns the resolved zone id.
func (c *Context) ZoneID(ctx context.Context) (string, error) {
	z, err := c.Zone(ctx)
	if err != nil {
		return "", err
	}
	return z.ID, nil
}

// OSType resolves the guest OS type selector, matched case-insensitively
// by description or directly by id. Returns nil when no selector was given.
func (c *Context) OSType(ctx context.Context) (*OSType, error) {
	if c.osType != nil {
		return c.osType, nil
	}
	if c.sel.OSType == "" {
		return nil, nil
	}

	resp, err := c.gw.Request(ctx, "listOsTypes", gateway.NewParams())
	if err != nil {
		return nil, err
	}

	for _, item := range resp.List("ostype") {
		if strings.EqualFold(item.Str("description"), c.sel.OSType) || item.Str("id") == c.sel.OSType {
			var o OSType
			if err := gateway.Decode(map[string]any(item), &o); err != nil {
				return nil, err
			}
			c.osType = &o
			return c.osType, nil
		}
	}
	return nil, &types.NotFound{Kind: "os type", Selector: c.sel.OSType}
}

// OSTypeID returns the resolved OS type id, or "" when none was given.
func (c *Context) OSTypeID(ctx context.Context) (string, error) {
	o, err := c.OSType(ctx)
	if err != nil || o == nil {
		return "", err
	}
	return o.ID, nil
}

// Hypervisor resolves the hypervisor selector. With no selector the first
// hypervisor in the listing order is used.
func (c *Context) Hypervisor(ctx context.Context) (string, error) {
	if c.hypervisor != "" {
		return c.hypervisor, nil
	}

	resp, err := c.gw.Request(ctx, "listHypervisors", gateway.NewParams())
	if err != nil {
		return "", err
	}
	hypervisors := resp.List("hypervisor")

	if c.sel.Hypervisor == "" {
		if len(hypervisors) == 0 {
			return "", &types.NotFound{Kind: "hypervisor", Selector: ""}
		}
		c.hypervisor = hypervisors[0].Str("name")
		return c.hypervisor, nil
	}

	for _, item := range hypervisors {
		if strings.EqualFold(item.Str("name"), c.sel.Hypervisor) {
			c.hypervisor = item.Str("name")
			return c.hypervisor, nil
		}
	}
	return "", &types.NotFound{Kind: "hypervisor", Selector: c.sel.Hypervisor}
}

// Capabilities returns the platform capability set, fetched at most once.
func (c *Context) Capabilities(ctx context.Context) (gateway.Response, error) {
	if c.capabilities != nil {
		return c.capabilities, nil
	}

	resp, err := c.gw.Request(ctx, "listCapabilities", gateway.NewParams())
	if err != nil {
		return nil, err
	}
	caps := resp.Sub("capability")
	if caps == nil {
		return nil, &gateway.MalformedResponse{Action: "listCapabilities", Reason: "no capability object"}
	}
	c.capabilities = caps
	return c.capabilities, nil
}
