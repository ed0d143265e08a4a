package main

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Prints a LOCAL_AUTH_USERS value for the given email:password pairs.
//
//	go run ./scripts/genhash.go admin@example.com:secret viewer@example.com:hunter2
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: genhash email:password [email:password ...]")
		os.Exit(2)
	}

	var entries []string
	for _, arg := range os.Args[1:] {
		email, pass, ok := strings.Cut(arg, ":")
		if !ok || email == "" || pass == "" {
			fmt.Fprintf(os.Stderr, "skipping %q: want email:password\n", arg)
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			continue
		}
		entries = append(entries, email+":"+string(hash))
	}

	fmt.Printf("LOCAL_AUTH_USERS=%s\n", strings.Join(entries, ","))
}
