// Package config loads and validates covaflow configuration.
//
// A single YAML file carries the service settings, every pipeline key
// (flat, at the top level) and the telemetry and aggregator sections.
// Viper reads the file, a .env file next to it is loaded with godotenv,
// and environment variables prefixed with COVA_ override any key
// (COVA_NUM_ENTDEC, COVA_TELEMETRY_ENDPOINT). Every key has a default and
// decoding is strict: a key the schema does not know is rejected.
//
// # Usage
//
//	var cfg config.Config
//	if err := config.LoadConfig("config.yaml", &cfg); err != nil {
//		return err
//	}
package config
