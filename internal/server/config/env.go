package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// parseEnv overlays settings provided through the environment. Malformed
// numeric, boolean or duration values panic, like malformed flags do.
//
//	HTTP_ADDR                     DATABASE_DRIVER        DATABASE_URL
//	REDIS_URL                     REDIS_NAMESPACE
//	ROLA_APPLICATION_NAME         ROLA_DAPP_DEFINITION_ADDRESS
//	ROLA_NETWORK_ID               ROLA_EXPECTED_ORIGIN   ROLA_GATEWAY_URL
//	ACCOUNT_SERVICE_URL           ACCOUNT_SERVICE_TOKEN  ACCOUNT_LOOKUP
//	ACCOUNT_DELETE_MODE
//	CREDENTIAL_SECRET_KEY         CREDENTIAL_CIPHER      RESPONSE_VARIANT
//	CHALLENGE_TTL                 CHALLENGE_SINGLE_USE   REQUEST_TIMEOUT
func parseEnv(config *Config) {
	envString(&config.EndpointAddrHTTP, "HTTP_ADDR")
	envString(&config.DatabaseDriver, "DATABASE_DRIVER")
	envString(&config.DatabaseDSN, "DATABASE_URL")
	envString(&config.RedisURL, "REDIS_URL")
	envString(&config.RedisNamespace, "REDIS_NAMESPACE")
	envString(&config.ApplicationName, "ROLA_APPLICATION_NAME")
	envString(&config.DAppDefinitionAddress, "ROLA_DAPP_DEFINITION_ADDRESS")
	envString(&config.ExpectedOrigin, "ROLA_EXPECTED_ORIGIN")
	envString(&config.GatewayURL, "ROLA_GATEWAY_URL")
	envString(&config.AccountServiceURL, "ACCOUNT_SERVICE_URL")
	envString(&config.AccountServiceToken, "ACCOUNT_SERVICE_TOKEN")
	envString(&config.AccountLookup, "ACCOUNT_LOOKUP")
	envString(&config.AccountDeleteMode, "ACCOUNT_DELETE_MODE")
	envString(&config.SecretKey, "CREDENTIAL_SECRET_KEY")
	envString(&config.CipherMode, "CREDENTIAL_CIPHER")
	envString(&config.ResponseVariant, "RESPONSE_VARIANT")

	if v, ok := os.LookupEnv("ROLA_NETWORK_ID"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(fmt.Errorf("ROLA_NETWORK_ID: %w", err))
		}
		config.NetworkID = n
	}
	envDuration(&config.ChallengeTTL, "CHALLENGE_TTL")
	envDuration(&config.RequestTimeout, "REQUEST_TIMEOUT")

	if v, ok := os.LookupEnv("CHALLENGE_SINGLE_USE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(fmt.Errorf("CHALLENGE_SINGLE_USE: %w", err))
		}
		config.SingleUseChallenges = b
	}
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(fmt.Errorf("%s: %w", key, err))
	}
	*dst = d
}
