// Command stafftoken mints staff access tokens for the admin endpoints and
// bcrypt-hashes operator API keys for ADMIN_API_KEY_HASH.
//
//	stafftoken --subject alice --ttl 12h
//	stafftoken --hash-key 's3cret'
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/bus-seat-reservation/internal/utils"
)

func main() {
	_ = godotenv.Load()

	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "HMAC secret used to sign the token (default $JWT_SECRET)")
	subject := flag.StringP("subject", "s", "", "staff identifier stored in the token subject")
	ttl := flag.Duration("ttl", 8*time.Hour, "token lifetime")
	hashKey := flag.String("hash-key", "", "print the bcrypt hash of this admin key and exit")
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost for --hash-key")
	flag.Parse()

	if *hashKey != "" {
		h, err := utils.HashSecret(*hashKey, *cost)
		if err != nil {
			fail(err)
		}
		fmt.Println(h)
		return
	}

	if *secret == "" {
		fail(fmt.Errorf("--secret or JWT_SECRET is required"))
	}
	if *subject == "" {
		fail(fmt.Errorf("--subject is required"))
	}
	token, exp, err := utils.NewStaffToken(*secret, *subject, *ttl)
	if err != nil {
		fail(err)
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", exp.UTC().Format(time.RFC3339))
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "stafftoken:", err)
	os.Exit(1)
}
