package consumer

import (
	"time"

	"github.com/smallbiznis/marketplace/internal/marketplace/domain"
)

// Entitlement is what a consumer record grants at a point in time.
type Entitlement struct {
	PaidAccess bool `json:"has_access_to_paid_plugins"`
	Expired    bool `json:"is_expired"`
	// FreeRestricted limits free plugins to the whitelisted GitHub orgs.
	// An expired license lifts the restriction.
	FreeRestricted bool `json:"free_plugins_restricted"`
}

// Evaluate derives the entitlement of c at now. It has no side effects.
// Any non-empty record grants paid access until it expires; the name check
// belongs to license validation.
func Evaluate(c *domain.Consumer, now time.Time) Entitlement {
	if c == nil || c.IsEmpty() {
		return Entitlement{}
	}
	if c.ExpireDate != nil && c.ExpireDate.Before(now) {
		return Entitlement{Expired: true}
	}
	return Entitlement{
		PaidAccess:     true,
		FreeRestricted: len(c.WhitelistedGithubOrgs) > 0,
	}
}
