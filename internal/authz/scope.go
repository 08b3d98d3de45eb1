package authz

import (
	"podium/internal/content/models"
	"podium/internal/identity"
	"podium/pkg/domain"
)

// Scope is the read-visibility predicate for one principal. Stores translate it
// into their native filtering (SQL WHERE clause, in-memory match) and apply it
// before rows leave the storage boundary. A find miss under a scope is
// indistinguishable from the row not existing.
type Scope struct {
	OwnerID       domain.PrincipalID
	IncludePublic bool
}

// ScopeFor derives the listing scope for a principal: own rows plus public rows,
// deleted rows never.
func ScopeFor(p identity.Principal) Scope {
	return Scope{OwnerID: p.ID, IncludePublic: true}
}

// OwnedOnly narrows the scope to rows the principal owns, public or not.
func OwnedOnly(p identity.Principal) Scope {
	return Scope{OwnerID: p.ID, IncludePublic: false}
}

// Allows reports whether the scope admits the resource. This is the in-memory
// rendering of the same predicate the SQL stores push into WHERE clauses; the
// two must stay equivalent.
func (s Scope) Allows(r *models.Resource) bool {
	if r == nil || r.IsDeleted() {
		return false
	}
	if r.OwnerID == s.OwnerID {
		return true
	}
	return s.IncludePublic && r.IsPublic
}
