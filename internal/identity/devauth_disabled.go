//go:build !devauth

package identity

// Production builds carry no path to the placeholder principal.
const developmentPrincipalAllowed = false
