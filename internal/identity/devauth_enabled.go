//go:build devauth

package identity

// developmentPrincipalAllowed is compiled in only for devauth builds.
const developmentPrincipalAllowed = true
