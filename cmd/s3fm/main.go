// Command s3fm serves the S3 file manager HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/kbukum/s3fm/bootstrap"
	"github.com/kbukum/s3fm/config"
	"github.com/kbukum/s3fm/version"
)

const serviceName = "s3fm"

type options struct {
	ConfigFile string `long:"config" short:"c" env:"S3FM_CONFIG" description:"Path to config.yml (default: searched under cmd/s3fm and ./config)"`
	EnvFile    string `long:"env-file" env:"S3FM_ENV_FILE" description:"Path to a .env file"`
	Version    bool   `long:"version" short:"v" description:"Print the version and exit"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		os.Exit(2)
	}
	if opts.Version {
		fmt.Println(version.Get().String())
		return
	}
	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	loaderOpts := []config.LoaderOption{config.WithEnvPrefix("S3FM")}
	if opts.ConfigFile != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(opts.ConfigFile))
	}
	if opts.EnvFile != "" {
		loaderOpts = append(loaderOpts, config.WithEnvFile(opts.EnvFile))
	}

	var cfg AppConfig
	if err := config.LoadConfig(serviceName, &cfg, loaderOpts...); err != nil {
		return err
	}
	if cfg.Version == "" {
		cfg.Version = version.Get().Version
	}

	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		return err
	}
	if err := register(app); err != nil {
		return err
	}
	return app.Run(ctx)
}
