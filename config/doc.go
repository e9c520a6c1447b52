// Package config loads service configuration with viper.
//
// LoadConfig merges, in increasing priority, cmd/<service>/config.yml, a
// .env file loaded with godotenv, and the process environment:
//
//	var cfg AppConfig
//	err := config.LoadConfig("s3fm", &cfg, config.WithEnvPrefix("S3FM"))
//
// With the S3FM prefix, S3FM_STORAGE_BUCKET=media overrides storage.bucket.
// Config structs embed ServiceConfig and implement ApplyDefaults/Validate.
package config
