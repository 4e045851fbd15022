//go:build !race

package auth

func bcryptCost(configured int) int {
	return configured
}
