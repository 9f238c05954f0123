package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/walletauth/internal/flagx"
)

var knownFlags = []string{
	"-a", "-driver", "-d", "-r", "-n",
	"-app", "-dapp", "-net", "-origin", "-gateway",
	"-accounts", "-token", "-lookup", "-delete-mode",
	"-s", "-cipher", "-variant",
	"-ttl", "-single-use", "-timeout",
}

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string         HTTP bind address (e.g., ":8080")
//	-driver string    database driver: pgx or sqlite
//	-d string         database DSN
//	-r string         Redis URL
//	-n string         Redis key namespace
//	-app string       application display name
//	-dapp string      dApp definition address
//	-net int          network id
//	-origin string    expected request origin
//	-gateway string   gateway URL for owner key lookups
//	-accounts string  account service base URL
//	-token string     account service access token
//	-lookup string    account lookup source: api or database
//	-delete-mode string  account rollback: direct or admin
//	-s string         credential cipher secret
//	-cipher string    credential cipher: aes-ecb or aes-gcm
//	-variant string   response variant: direct or typed
//	-ttl duration     challenge lifetime
//	-single-use bool  delete challenges once a bundle verifies
//	-timeout duration per-request deadline
//
// os.Args is filtered to the flags above with flagx.FilterArgs so that
// other components may own their own flags.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags, "-single-use")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDriver, "driver", config.DatabaseDriver, "database driver (pgx|sqlite)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisURL, "r", config.RedisURL, "redis URL")
	fs.StringVar(&config.RedisNamespace, "n", config.RedisNamespace, "redis key namespace")
	fs.StringVar(&config.ApplicationName, "app", config.ApplicationName, "application name")
	fs.StringVar(&config.DAppDefinitionAddress, "dapp", config.DAppDefinitionAddress, "dApp definition address")
	fs.IntVar(&config.NetworkID, "net", config.NetworkID, "network id")
	fs.StringVar(&config.ExpectedOrigin, "origin", config.ExpectedOrigin, "expected origin")
	fs.StringVar(&config.GatewayURL, "gateway", config.GatewayURL, "gateway URL")
	fs.StringVar(&config.AccountServiceURL, "accounts", config.AccountServiceURL, "account service URL")
	fs.StringVar(&config.AccountServiceToken, "token", config.AccountServiceToken, "account service access token")
	fs.StringVar(&config.AccountLookup, "lookup", config.AccountLookup, "account lookup source (api|database)")
	fs.StringVar(&config.AccountDeleteMode, "delete-mode", config.AccountDeleteMode, "account rollback mode (direct|admin)")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.CipherMode, "cipher", config.CipherMode, "credential cipher (aes-ecb|aes-gcm)")
	fs.StringVar(&config.ResponseVariant, "variant", config.ResponseVariant, "response variant (direct|typed)")
	fs.DurationVar(&config.ChallengeTTL, "ttl", config.ChallengeTTL, "challenge ttl")
	fs.BoolVar(&config.SingleUseChallenges, "single-use", config.SingleUseChallenges, "single-use challenges")
	fs.DurationVar(&config.RequestTimeout, "timeout", config.RequestTimeout, "request timeout")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
