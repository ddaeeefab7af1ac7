// cmd/gentoken/main.go — mints a dev JWT with terminal context.
// Token issuance is owned by the identity service in production; this tool
// exists for local testing only.
// Usage: go run cmd/gentoken/main.go -role admin -terminal <uuid> -main
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"lunapos/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func main() {
	role := flag.String("role", "cashier", "cashier | supervisor | admin")
	username := flag.String("user", "dev", "username claim")
	terminal := flag.String("terminal", "", "terminal uuid (optional)")
	terminalName := flag.String("terminal-name", "Dev Terminal", "terminal name claim")
	isMain := flag.Bool("main", false, "mark the terminal as main")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret"
	}

	claims := middleware.JWTClaims{
		UserID:   uuid.NewString(),
		Username: *username,
		Role:     *role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(*ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	if *terminal != "" {
		if _, err := uuid.Parse(*terminal); err != nil {
			log.Fatalf("invalid terminal uuid: %v", err)
		}
		claims.TerminalID = *terminal
		claims.TerminalName = *terminalName
		claims.IsMain = *isMain
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		log.Fatalf("sign error: %v", err)
	}
	fmt.Println(signed)
}
