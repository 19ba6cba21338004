package types

// DomainResult is the reported outcome of a domain reconciliation.
type DomainResult struct {
	Changed       bool   `json:"changed"`
	ID            string `json:"id,omitempty"`
	Name          string `json:"name,omitempty"`
	Path          string `json:"path,omitempty"`
	ParentDomain  string `json:"parent_domain,omitempty"`
	NetworkDomain string `json:"network_domain,omitempty"`
	State         string `json:"state,omitempty"`
}

// ISOResult is the reported outcome of an ISO reconciliation.
type ISOResult struct {
	Changed     bool   `json:"changed"`
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	DisplayText string `json:"displaytext,omitempty"`
	Zone        string `json:"zone,omitempty"`
	Status      string `json:"status,omitempty"`
	IsReady     bool   `json:"is_ready"`
	Checksum    string `json:"checksum,omitempty"`
	Created     string `json:"created,omitempty"`
	Project     string `json:"project,omitempty"`
	Domain      string `json:"domain,omitempty"`
	Account     string `json:"account,omitempty"`
	Tags        []Tag  `json:"tags,omitempty"`
}

// SecurityGroupResult is the reported outcome of a security group reconciliation.
type SecurityGroupResult struct {
	Changed     bool   `json:"changed"`
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Project     string `json:"project,omitempty"`
}

// NewDomainResult builds a result from a domain snapshot. A nil snapshot
// (nothing found, nothing done) yields just the changed flag.
func NewDomainResult(d *Domain, changed bool) DomainResult {
	if d == nil {
		return DomainResult{Changed: changed}
	}
	return DomainResult{
		Changed:       changed,
		ID:            d.ID,
		Name:          d.Name,
		Path:          d.Path,
		ParentDomain:  d.ParentDomain,
		NetworkDomain: d.NetworkDomain,
		State:         d.State,
	}
}

// NewISOResult builds a result from an ISO snapshot.
func NewISOResult(iso *ISO, changed bool) ISOResult {
	if iso == nil {
		return ISOResult{Changed: changed}
	}
	return ISOResult{
		Changed:     changed,
		ID:          iso.ID,
		Name:        iso.Name,
		DisplayText: iso.DisplayText,
		Zone:        iso.Zone,
		Status:      iso.Status,
		IsReady:     iso.IsReady,
		Checksum:    iso.Checksum,
		Created:     iso.Created,
		Project:     iso.Project,
		Domain:      iso.Domain,
		Account:     iso.Account,
		Tags:        iso.Tags,
	}
}

// NewSecurityGroupResult builds a result from a security group snapshot.
func NewSecurityGroupResult(sg *SecurityGroup, changed bool) SecurityGroupResult {
	if sg == nil {
		return SecurityGroupResult{Changed: changed}
	}
	return SecurityGroupResult{
		Changed:     changed,
		ID:          sg.ID,
		Name:        sg.Name,
		Description: sg.Description,
		Project:     sg.Project,
	}
}
