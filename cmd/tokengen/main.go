// Command tokengen mints HS256 bearer tokens for calling the account API
// during development and testing.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func main() {
	secret := flag.String("secret", "very-secure-jwt-secret", "Secret key for signing the token")
	issuer := flag.String("issuer", "simple-account", "Issuer of the token")
	audience := flag.String("audience", "simple-account", "Audience of the token")
	subject := flag.String("subject", "admin", "Subject of the token (usually user ID)")
	expiry := flag.Duration("expiry", 30*time.Minute, "Token expiry duration (e.g., 30m, 1h, 24h)")
	extraClaimsJSON := flag.String("claims", "{}", "Extra claims in JSON format")
	outputFormat := flag.String("format", "compact", "Output format: compact or full")
	flag.Parse()

	var extraClaims map[string]interface{}
	if err := json.Unmarshal([]byte(*extraClaimsJSON), &extraClaims); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to parse extra claims JSON: %v\n", err)
		os.Exit(1)
	}

	now := time.Now()
	expiresAt := now.Add(*expiry)
	claims := jwt.MapClaims{
		"iss": *issuer,
		"aud": *audience,
		"sub": *subject,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	}
	for k, v := range extraClaims {
		claims[k] = v
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString([]byte(*secret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to sign token: %v\n", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "compact":
		fmt.Println(tokenStr)
	case "full":
		fmt.Printf("Token: %s\nExpires: %s\n", tokenStr, expiresAt.Format(time.RFC3339))
	default:
		fmt.Fprintf(os.Stderr, "Error: Unknown output format: %s\n", *outputFormat)
		os.Exit(1)
	}
}
