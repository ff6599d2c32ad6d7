package authroles

import (
	domainauth "github.com/ShageeshanT/kalyanijewellers/internal/domain/auth"
)

// StaticRoleMapper maps identity-provider groups onto storefront roles by
// exact group name. Admin membership wins over customer membership.
type StaticRoleMapper struct {
	AdminGroup    string
	CustomerGroup string
	Admin         domainauth.Role
	Customer      domainauth.Role
}

// NewStaticRoleMapper uses the storefront's standard roles: admin is role 1.
func NewStaticRoleMapper(adminGroup, customerGroup string) StaticRoleMapper {
	return StaticRoleMapper{
		AdminGroup:    adminGroup,
		CustomerGroup: customerGroup,
		Admin:         domainauth.Role{ID: 1, Name: "Admin"},
		Customer:      domainauth.Role{ID: 2, Name: "Customer"},
	}
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	for _, g := range groups {
		if m.AdminGroup != "" && g == m.AdminGroup {
			return m.Admin
		}
	}
	for _, g := range groups {
		if m.CustomerGroup != "" && g == m.CustomerGroup {
			return m.Customer
		}
	}
	return domainauth.Role{}
}
