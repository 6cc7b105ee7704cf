package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/outreach/outreach-chat/internal/auth"
	"github.com/outreach/outreach-chat/internal/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to config.json")
		userID     = flag.String("user", "", "User ID (default: random UUID)")
		email      = flag.String("email", "dev@example.com", "User email")
		ttl        = flag.Duration("ttl", auth.AccessTokenTTL, "Token lifetime")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	secret := cfg.Server.JWTSecret
	if secret == "" {
		secret = config.DevJWTSecret
		fmt.Fprintln(os.Stderr, "WARNING: Using the development JWT secret. Set OUTREACH_JWT_SECRET to match the server.")
	}

	id := *userID
	if id == "" {
		id = uuid.New().String()
	}

	jwtService := auth.NewJWTService(secret, config.TokenIssuer, *ttl)
	token, err := jwtService.GenerateAccessToken(id, *email)
	if err != nil {
		log.Fatal("Failed to create token:", err)
	}

	fmt.Fprintf(os.Stderr, "Access token for %s (user %s, expires %s):\n",
		*email, id, time.Now().Add(*ttl).Format(time.RFC3339))
	fmt.Println(token)
	fmt.Fprintln(os.Stderr, "\nUse it with:")
	fmt.Fprintf(os.Stderr, "  export OUTREACH_TOKEN=%s\n", token)
}
