// Package authz decides who may read or write which resource.
//
// The policy is a pure function over (principal, resource, intent); it holds no
// state and performs no I/O, so it is evaluated inline on every request and
// tested without a store. The visibility scope is the same policy expressed as
// a predicate that stores apply server-side, so callers never observe rows they
// are not allowed to read, even transiently.
package authz

import (
	"podium/internal/content/models"
	"podium/internal/identity"
)

// Intent is what the caller wants to do with the resource.
type Intent string

const (
	IntentRead  Intent = "read"
	IntentWrite Intent = "write"
)

// Decision is the policy outcome. There is no "maybe"; callers branch on Allow.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) Allowed() bool { return d == Allow }

// Evaluate applies the ownership/visibility rules in order; first match wins.
//
//  1. Deleted resources deny every intent. The administrative include-deleted
//     path bypasses the policy entirely and is not exposed here.
//  2. Writes require ownership.
//  3. Reads require ownership or the public flag.
//
// No other rule grants access.
func Evaluate(p identity.Principal, r *models.Resource, intent Intent) Decision {
	if r == nil || p.IsZero() {
		return Deny
	}
	if r.IsDeleted() {
		return Deny
	}
	switch intent {
	case IntentWrite:
		if r.OwnerID == p.ID {
			return Allow
		}
		return Deny
	case IntentRead:
		if r.OwnerID == p.ID || r.IsPublic {
			return Allow
		}
		return Deny
	}
	return Deny
}
