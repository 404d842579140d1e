// cmd/gentoken prints a development access token for a tenant.
// Usage: go run ./cmd/gentoken -tenant <uuid> -role admin
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"winecellar/internal/config"
	"winecellar/internal/middleware"

	"github.com/google/uuid"
)

func main() {
	tenantFlag := flag.String("tenant", "", "tenant id (a new one is generated when empty)")
	role := flag.String("role", middleware.RoleAdmin, "role claim: admin or cellar")
	ttl := flag.Duration("ttl", 8*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	tenantID := uuid.New()
	if *tenantFlag != "" {
		if tenantID, err = uuid.Parse(*tenantFlag); err != nil {
			fmt.Fprintln(os.Stderr, "invalid -tenant:", err)
			os.Exit(1)
		}
	}

	token, err := middleware.IssueToken(cfg.JWTSecret, middleware.JWTClaims{
		UserID:   "dev-" + *role,
		TenantID: tenantID.String(),
		Role:     *role,
	}, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign:", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "tenant %s\n", tenantID)
	fmt.Println(token)
}
