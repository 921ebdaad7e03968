// Command token mints a staff access token for the schedule API.
//
//	JWT_SECRET=... go run ./cmd/token -sub staff-12 -role ADMIN -ttl 8h
package main

import (
    "flag"
    "fmt"
    "os"
    "time"

    "github.com/joho/godotenv"

    "github.com/iliyamo/tutoring-schedule/internal/middleware"
    "github.com/iliyamo/tutoring-schedule/internal/utils"
)

func main() {
    sub := flag.String("sub", "", "staff identifier placed in the subject claim")
    role := flag.String("role", middleware.RoleStaff, "ADMIN or STAFF")
    ttl := flag.Duration("ttl", 8*time.Hour, "token lifetime")
    flag.Parse()

    _ = godotenv.Load()
    secret := os.Getenv("JWT_SECRET")
    if secret == "" || *sub == "" {
        fmt.Fprintln(os.Stderr, "JWT_SECRET and -sub are required")
        os.Exit(2)
    }
    if *role != middleware.RoleAdmin && *role != middleware.RoleStaff {
        fmt.Fprintf(os.Stderr, "unknown role %q\n", *role)
        os.Exit(2)
    }

    tok, err := utils.NewAccessToken(secret, *sub, *role, *ttl)
    if err != nil {
        fmt.Fprintln(os.Stderr, err)
        os.Exit(1)
    }
    fmt.Println(tok.Token)
    fmt.Fprintln(os.Stderr, "expires", tok.Exp.Format(time.RFC3339))
}
