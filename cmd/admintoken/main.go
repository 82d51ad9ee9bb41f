// admintoken issues bearer tokens for the relay's /admin endpoints. The
// signing secret is read from ADMIN_JWT_SECRET (a .env file is honored)
// unless --secret is given.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/spec-kit/forum-relay/internal/auth"
	"github.com/spec-kit/forum-relay/internal/config"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var (
		operator   string
		secret     string
		ttlMinutes int
	)

	flagSet := pflag.NewFlagSet("admintoken", pflag.ContinueOnError)
	flagSet.StringVarP(&operator, "operator", "o", "", "name recorded as the token subject (required)")
	flagSet.StringVar(&secret, "secret", "", "signing secret (default: ADMIN_JWT_SECRET)")
	flagSet.IntVar(&ttlMinutes, "ttl", 0, "token lifetime in minutes (default: ADMIN_TOKEN_TTL_MINUTES)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if operator == "" {
		return errors.New("--operator is required")
	}

	if secret == "" || ttlMinutes <= 0 {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if secret == "" {
			secret = cfg.Admin.JWTSecret
		}
		if ttlMinutes <= 0 {
			ttlMinutes = cfg.Admin.TokenTTLMinutes
		}
	}

	token, expiresAt, err := auth.NewTokenManager(secret, ttlMinutes).GenerateToken(operator)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	fmt.Fprintf(out, "expires: %s\n", expiresAt.UTC().Format("2006-01-02T15:04:05Z"))
	return nil
}
