package model

import "github.com/google/uuid"

type PrincipalKind string

const (
	PrincipalCompany PrincipalKind = "company"
	PrincipalClient  PrincipalKind = "client"
	PrincipalStaff   PrincipalKind = "staff"
)

// Principal is the authenticated actor of a request. Company users are bound
// to one tenant; client and staff users reach tenants through connect approvals.
type Principal struct {
	UserID          uuid.UUID
	TenantID        uuid.UUID
	Kind            PrincipalKind
	Email           string
	CorporateNumber string
}

func (p Principal) IsCompany() bool {
	return p.Kind == PrincipalCompany
}

func (p Principal) IsClient() bool {
	return p.Kind == PrincipalClient
}

func (p Principal) IsStaff() bool {
	return p.Kind == PrincipalStaff
}
