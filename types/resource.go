// Package types holds the resource snapshots and result shapes shared by
// the gateway, resolver and reconcilers.
package types

// Domain represents a CloudStack organizational domain.
type Domain struct {
	ID            string `json:"id" cs:"id"`
	Name          string `json:"name" cs:"name"`
	Path          string `json:"path" cs:"path"`
	ParentDomain  string `json:"parent_domain,omitempty" cs:"parentdomainname"`
	ParentID      string `json:"parent_id,omitempty" cs:"parentdomainid"`
	NetworkDomain string `json:"network_domain,omitempty" cs:"networkdomain"`
	State         string `json:"state,omitempty" cs:"state"`
}

// ISO represents a registered CloudStack ISO image.
type ISO struct {
	ID          string `json:"id" cs:"id"`
	Name        string `json:"name" cs:"name"`
	DisplayText string `json:"displaytext,omitempty" cs:"displaytext"`
	Zone        string `json:"zone,omitempty" cs:"zonename"`
	ZoneID      string `json:"zone_id,omitempty" cs:"zoneid"`
	Checksum    string `json:"checksum,omitempty" cs:"checksum"`
	Status      string `json:"status,omitempty" cs:"status"`
	IsReady     bool   `json:"is_ready" cs:"isready"`
	Bootable    bool   `json:"bootable,omitempty" cs:"bootable"`
	OSTypeID    string `json:"os_type_id,omitempty" cs:"ostypeid"`
	Created     string `json:"created,omitempty" cs:"created"`
	Project     string `json:"project,omitempty" cs:"project"`
	Domain      string `json:"domain,omitempty" cs:"domain"`
	Account     string `json:"account,omitempty" cs:"account"`
	Tags        []Tag  `json:"tags,omitempty" cs:"tags"`
}

// SecurityGroup represents a CloudStack security group.
type SecurityGroup struct {
	ID          string `json:"id" cs:"id"`
	Name        string `json:"name" cs:"name"`
	Description string `json:"description,omitempty" cs:"description"`
	Project     string `json:"project,omitempty" cs:"project"`
	Tags        []Tag  `json:"tags,omitempty" cs:"tags"`
}

// Tag is a key/value pair attached to a taggable resource.
type Tag struct {
	Key   string `json:"key" yaml:"key" cs:"key"`
	Value string `json:"value" yaml:"value" cs:"value"`
}
