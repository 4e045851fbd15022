//go:build race

package auth

import "golang.org/x/crypto/bcrypt"

// Race-enabled builds are an order of magnitude slower; keep hashing cheap
// so the suites stay within their timeouts.
func bcryptCost(int) int {
	return bcrypt.MinCost
}
