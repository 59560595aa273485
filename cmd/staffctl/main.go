// staffctl manages staff accounts and mints their bearer tokens. The
// HTTP service only verifies tokens; issuing them happens here.
//
//	staffctl create -name "Ana" -email ana@example.com -password secret
//	staffctl token -email ana@example.com -ttl 12h
//	staffctl deactivate -email ana@example.com
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"brewtab-cafe-service/internal/auth"
	"brewtab-cafe-service/internal/config"
	"brewtab-cafe-service/internal/db"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		fatal("database connection failed: %v", err)
	}
	defer pool.Close()

	switch os.Args[1] {
	case "create":
		fs := flag.NewFlagSet("create", flag.ExitOnError)
		name := fs.String("name", "", "display name")
		email := fs.String("email", "", "login email (unique)")
		password := fs.String("password", "", "plaintext password, stored as a bcrypt hash")
		_ = fs.Parse(os.Args[2:])

		*name = strings.TrimSpace(*name)
		*email = strings.ToLower(strings.TrimSpace(*email))
		if *name == "" || *email == "" || *password == "" {
			fatal("create requires -name, -email and -password")
		}

		hash, err := auth.HashPassword(*password)
		if err != nil {
			fatal("hash failed: %v", err)
		}
		var id int64
		err = pool.QueryRow(ctx, `
			insert into staff_users (name, email, password_hash, is_active)
			values ($1, $2, $3, true)
			returning id
		`, *name, *email, hash).Scan(&id)
		if err != nil {
			fatal("insert failed: %v", err)
		}
		fmt.Printf("created staff user %d (%s)\n", id, *email)

	case "token":
		fs := flag.NewFlagSet("token", flag.ExitOnError)
		email := fs.String("email", "", "staff email")
		ttl := fs.Duration("ttl", 12*time.Hour, "token lifetime")
		_ = fs.Parse(os.Args[2:])

		*email = strings.ToLower(strings.TrimSpace(*email))
		if *email == "" {
			fatal("token requires -email")
		}
		if cfg.JWTSecret == "" {
			fatal("JWT_SECRET is required")
		}

		var (
			id       int64
			name     string
			isActive bool
		)
		err := pool.QueryRow(ctx, `
			select id, name, is_active from staff_users where email = $1
		`, *email).Scan(&id, &name, &isActive)
		if err != nil {
			fatal("lookup failed: %v", err)
		}
		if !isActive {
			fatal("staff user %s is deactivated", *email)
		}

		token, err := auth.IssueAccessToken(id, *email, name, cfg.JWTSecret, *ttl)
		if err != nil {
			fatal("sign failed: %v", err)
		}
		fmt.Println(token)

	case "deactivate":
		fs := flag.NewFlagSet("deactivate", flag.ExitOnError)
		email := fs.String("email", "", "staff email")
		_ = fs.Parse(os.Args[2:])

		*email = strings.ToLower(strings.TrimSpace(*email))
		if *email == "" {
			fatal("deactivate requires -email")
		}
		res, err := pool.Exec(ctx, `
			update staff_users set is_active = false, updated_at = now() where email = $1
		`, *email)
		if err != nil {
			fatal("update failed: %v", err)
		}
		if res.RowsAffected() != 1 {
			fatal("no staff user with email %s", *email)
		}
		fmt.Printf("deactivated %s\n", *email)

	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: staffctl <create|token|deactivate> [flags]")
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
