// Command devtoken mints an access token for local testing of the API.
//
//	go run ./cmd/devtoken -employee emp-1 -role admin
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/config"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	"github.com/joho/godotenv"
)

func main() {
	employeeID := flag.String("employee", "", "employee id to put in the token")
	role := flag.String("role", string(employee.RoleEmployee), "employee, admin or super_admin")
	ttl := flag.Duration("ttl", 0, "token lifetime (default JWT_ACCESS_EXPIRATION_TIME)")
	flag.Parse()

	if *employeeID == "" {
		fmt.Fprintln(os.Stderr, "devtoken: -employee is required")
		os.Exit(2)
	}
	if !employee.Role(*role).Valid() {
		fmt.Fprintf(os.Stderr, "devtoken: unknown role %q\n", *role)
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "devtoken:", err)
		os.Exit(1)
	}
	if cfg.JWT.Secret == "" {
		fmt.Fprintln(os.Stderr, "devtoken: JWT_SECRET_KEY is not set")
		os.Exit(1)
	}

	expiration := cfg.JWT.AccessExpiration
	if *ttl > 0 {
		expiration = *ttl
	}

	token, expiresAt, err := jwt.NewJWTService(cfg.JWT.Secret, expiration).
		GenerateAccessToken(*employeeID, employee.Role(*role))
	if err != nil {
		fmt.Fprintln(os.Stderr, "devtoken:", err)
		os.Exit(1)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", time.Unix(expiresAt, 0).Format(time.RFC3339))
}
