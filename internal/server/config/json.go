package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/walletauth/internal/flagx"
	"github.com/dmitrijs2005/walletauth/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "5m" and integer nanoseconds.
//
// Absent keys leave the corresponding Config field untouched.
type JsonConfig struct {
	EndpointAddrHTTP      string         `json:"endpoint_addr_http"`
	DatabaseDriver        string         `json:"database_driver"`
	DatabaseDSN           string         `json:"database_dsn"`
	RedisURL              string         `json:"redis_url"`
	RedisNamespace        string         `json:"redis_namespace"`
	ApplicationName       string         `json:"application_name"`
	DAppDefinitionAddress string         `json:"dapp_definition_address"`
	NetworkID             int            `json:"network_id"`
	ExpectedOrigin        string         `json:"expected_origin"`
	GatewayURL            string         `json:"gateway_url"`
	AccountServiceURL     string         `json:"account_service_url"`
	AccountServiceToken   string         `json:"account_service_token"`
	AccountLookup         string         `json:"account_lookup"`
	AccountDeleteMode     string         `json:"account_delete_mode"`
	SecretKey             string         `json:"secret_key"`
	CipherMode            string         `json:"cipher_mode"`
	ResponseVariant       string         `json:"response_variant"`
	ChallengeTTL          timex.Duration `json:"challenge_ttl"`
	SingleUseChallenges   *bool          `json:"single_use_challenges"`
	RequestTimeout        timex.Duration `json:"request_timeout"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags (or the CONFIG environment variable) into config.
// If no file is named, nothing happens. If the file cannot be read or
// contains invalid JSON, the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.ConfigFilePath()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.RedisURL, c.RedisURL)
	setString(&config.RedisNamespace, c.RedisNamespace)
	setString(&config.ApplicationName, c.ApplicationName)
	setString(&config.DAppDefinitionAddress, c.DAppDefinitionAddress)
	setString(&config.ExpectedOrigin, c.ExpectedOrigin)
	setString(&config.GatewayURL, c.GatewayURL)
	setString(&config.AccountServiceURL, c.AccountServiceURL)
	setString(&config.AccountServiceToken, c.AccountServiceToken)
	setString(&config.AccountLookup, c.AccountLookup)
	setString(&config.AccountDeleteMode, c.AccountDeleteMode)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.CipherMode, c.CipherMode)
	setString(&config.ResponseVariant, c.ResponseVariant)

	if c.NetworkID != 0 {
		config.NetworkID = c.NetworkID
	}
	if c.ChallengeTTL.Duration != 0 {
		config.ChallengeTTL = c.ChallengeTTL.Duration
	}
	if c.RequestTimeout.Duration != 0 {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	if c.SingleUseChallenges != nil {
		config.SingleUseChallenges = *c.SingleUseChallenges
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
