package models

import "time"

// Capability is a coarse action class a caller may perform. Handlers check
// capabilities on the resolved principal; business services never inspect
// how the caller authenticated.
type Capability string

const (
	CapabilityRead     Capability = "read"
	CapabilityDeposit  Capability = "deposit"
	CapabilityTransfer Capability = "transfer"
)

// Principal is the authenticated caller, resolved once at the request
// boundary from either a JWT or an API key.
type Principal interface {
	PrincipalUserID() uint
	Can(c Capability) bool
	Kind() string
}

// JWTPrincipal is a user authenticated with a bearer token. A logged-in
// user holds every capability over their own wallet.
type JWTPrincipal struct {
	Claims *UserClaims
}

func (p *JWTPrincipal) PrincipalUserID() uint { return p.Claims.UserID }
func (p *JWTPrincipal) Can(Capability) bool   { return true }
func (p *JWTPrincipal) Kind() string          { return "jwt" }

// APIKeyPrincipal is a caller authenticated with an API key; capabilities
// come from the key's permission list.
type APIKeyPrincipal struct {
	Key *APIKey
	Now time.Time
}

func (p *APIKeyPrincipal) PrincipalUserID() uint { return p.Key.UserID }

func (p *APIKeyPrincipal) Can(c Capability) bool {
	if !p.Key.IsValid(p.Now) {
		return false
	}
	return p.Key.HasPermission(string(c))
}

func (p *APIKeyPrincipal) Kind() string { return "api_key" }
