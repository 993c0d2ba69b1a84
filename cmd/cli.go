package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bluetuith-org/bluetooth-le/api/appfeatures"
	"github.com/bluetuith-org/bluetooth-le/api/config"
	"github.com/bluetuith-org/bluetooth-le/api/helpers/logging"
	"github.com/bluetuith-org/bluetooth-le/central"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v2"
)

// These values are set at compile-time.
var (
	Version  = ""
	Revision = ""
)

// Run runs the commandline application.
func Run() error {
	return newApp().Run(os.Args)
}

// newApp returns a new commandline application.
func newApp() *cli.App {
	cli.VersionPrinter = func(cCtx *cli.Context) {
		fmt.Fprintf(cCtx.App.Writer, "%s (%s)\n", Version, Revision)
	}

	return &cli.App{
		Name:                   "blec",
		Usage:                  "Bluetooth LE central.",
		Version:                Version + " (" + Revision + ")",
		Description:            "A Bluetooth Low Energy scanner and connection tool for the terminal.",
		Copyright:              "(c) bluetuith-org.",
		Compiled:               time.Now(),
		EnableBashCompletion:   true,
		UseShortOptionHandling: true,
		Suggest:                true,
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "scan-duration",
				Aliases: []string{"s"},
				EnvVars: []string{"BLEC_SCAN_DURATION"},
				Value:   10 * time.Second,
				Usage:   "Specify how long to scan for devices.",
			},
			&cli.StringFlag{
				Name:    "connect-bdaddr",
				Aliases: []string{"t"},
				EnvVars: []string{"BLEC_CONNECT_BDADDR"},
				Usage:   "Specify a device address to connect to after scanning. (For example, 'AA:BB:CC:DD:EE:FF')",
			},
			&cli.IntFlag{
				Name:    "transfer-size",
				Aliases: []string{"m"},
				EnvVars: []string{"BLEC_TRANSFER_SIZE"},
				Usage:   "Specify an ATT payload size to negotiate after connecting. (0 skips negotiation)",
			},
			&cli.IntFlag{
				Name:    "connect-retries",
				Aliases: []string{"r"},
				EnvVars: []string{"BLEC_CONNECT_RETRIES"},
				Value:   config.DefaultConnectRetries,
				Usage:   "Specify the number of extra connection attempts after a link error.",
			},
			&cli.DurationFlag{
				Name:    "retry-interval",
				Aliases: []string{"i"},
				EnvVars: []string{"BLEC_RETRY_INTERVAL"},
				Value:   config.DefaultRetryInterval,
				Usage:   "Specify the pause between connection attempts.",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				EnvVars: []string{"BLEC_DEBUG"},
				Usage:   "Enable debug logging.",
			},
			&cli.BoolFlag{
				Name:    "no-warning",
				Aliases: []string{"w"},
				EnvVars: []string{"BLEC_NO_WARNING"},
				Usage:   "Do not display feature warnings when the central has started.",
			},
		},
		Action: func(cliCtx *cli.Context) error {
			// required for koanf to merge all global flags under the root namespace.
			cliCtx.Command.Name = "global"

			k, cfg := koanf.New("."), NewConfig()
			if err := cfg.Load(k, cliCtx); err != nil {
				return err
			}
			if err := cfg.ValidateValues(); err != nil {
				return err
			}

			drv, err := newDriver()
			if err != nil {
				return err
			}

			centralCfg := config.New()
			centralCfg.TransferSize = cfg.Values.TransferSize
			centralCfg.ConnectRetries = cfg.Values.ConnectRetries
			centralCfg.RetryInterval = cfg.Values.RetryInterval

			if cfg.Values.Debug {
				centralCfg.Logger = logging.NewDebugLogger()
			}

			c := central.NewCentral(drv)

			featureSet, err := c.Start(centralCfg)
			if err != nil {
				return err
			}
			defer c.Stop()

			printUnsupportedFeatures(cfg, featureSet)

			return run(cliCtx.Context, c, cfg)
		},
		ExitErrHandler: func(_ *cli.Context, err error) {
			if err == nil {
				return
			}

			printError(err)
		},
	}
}

// printUnsupportedFeatures prints all unsupported features of the driver.
func printUnsupportedFeatures(cfg *Config, featureSet *appfeatures.FeatureSet) {
	if cfg.Values.NoWarning {
		return
	}

	featErrors, exists := featureSet.Errors.Exists()
	if !exists {
		return
	}

	var warn strings.Builder

	warn.WriteString("The following features are not available:")
	for feature, errors := range featErrors {
		warn.WriteString("\n")
		warn.WriteString(feature.String())
		warn.WriteString(": ")
		warn.WriteString(errors.Error())
	}

	printWarn(warn.String())
}
