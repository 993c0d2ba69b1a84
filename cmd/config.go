package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bluetuith-org/bluetooth-le/api/ble"
	"github.com/knadh/koanf/parsers/hjson"
	"github.com/knadh/koanf/providers/cliflagv2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v2"
)

const configFile = "blec.conf"

// Config describes the configuration for the app.
type Config struct {
	path string

	Values Values
}

// Values describes the possible configuration values that a user can
// modify and supply to the application.
type Values struct {
	ScanDuration   time.Duration `koanf:"scan-duration"`
	ConnectAddr    string        `koanf:"connect-bdaddr"`
	TransferSize   int           `koanf:"transfer-size"`
	ConnectRetries int           `koanf:"connect-retries"`
	RetryInterval  time.Duration `koanf:"retry-interval"`
	Debug          bool          `koanf:"debug"`
	NoWarning      bool          `koanf:"no-warning"`

	ConnectDeviceAddr ble.MacAddress
}

// NewConfig returns a new configuration.
func NewConfig() *Config {
	return &Config{}
}

// Load loads the configuration from the configuration file and the
// command-line flags.
func (c *Config) Load(k *koanf.Koanf, cliCtx *cli.Context) error {
	if err := c.createConfigDir(); err != nil {
		return err
	}

	cfgfile, err := c.FilePath(configFile)
	if err != nil {
		return err
	}

	if err := k.Load(file.Provider(cfgfile), hjson.Parser()); err != nil {
		return err
	}

	if err := k.Load(cliflagv2.Provider(cliCtx, "."), nil); err != nil {
		return err
	}

	return k.UnmarshalWithConf("", &c.Values, koanf.UnmarshalConf{Tag: "koanf"})
}

// ValidateValues validates the configuration values.
func (c *Config) ValidateValues() error {
	if c.Values.ScanDuration <= 0 {
		return fmt.Errorf("the scan duration must be positive")
	}

	if c.Values.ConnectRetries < 0 {
		return fmt.Errorf("the connect retry count cannot be negative")
	}

	if c.Values.RetryInterval <= 0 {
		return fmt.Errorf("the retry interval must be positive")
	}

	if size := c.Values.TransferSize; size != 0 && (size < 23 || size > 517) {
		return fmt.Errorf("the transfer size must be 0 or within 23..517")
	}

	if c.Values.ConnectAddr != "" {
		address, err := ble.ParseMAC(c.Values.ConnectAddr)
		if err != nil {
			return fmt.Errorf("'%s' is not a valid device address: %w", c.Values.ConnectAddr, err)
		}

		c.Values.ConnectDeviceAddr = address
	}

	return nil
}

// createConfigDir checks for and/or creates a configuration directory.
func (c *Config) createConfigDir() error {
	homedir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	type configDir struct {
		path, fullpath               string
		exist, hidden, prefixHomeDir bool
	}

	configPaths := []*configDir{
		{path: os.Getenv("XDG_CONFIG_HOME")},
		{path: ".config", prefixHomeDir: true},
		{path: ".", hidden: true, prefixHomeDir: true},
	}

	for _, dir := range configPaths {
		name := "blec"

		if dir.path == "" {
			continue
		}

		if dir.hidden {
			name = "." + name
		}

		if dir.prefixHomeDir {
			dir.path = filepath.Join(homedir, dir.path)
		}

		if _, err := os.Stat(filepath.Clean(dir.path)); err == nil {
			dir.exist = true
		}

		dir.fullpath = filepath.Join(dir.path, name)
		if _, err := os.Stat(filepath.Clean(dir.fullpath)); err == nil {
			c.path = dir.fullpath
			break
		}
	}

	if c.path == "" {
		var pathErrors []string

		for _, dir := range configPaths {
			if err := os.Mkdir(dir.fullpath, os.ModePerm); err == nil {
				c.path = dir.fullpath
				break
			}

			pathErrors = append(pathErrors, dir.fullpath)
		}

		if len(pathErrors) == len(configPaths) {
			return fmt.Errorf("the configuration directories could not be created at %s%s", "\n", strings.Join(pathErrors, "\n"))
		}
	}

	return nil
}

// FilePath returns the absolute path for the given configuration file.
func (c *Config) FilePath(configFile string) (string, error) {
	confPath := filepath.Join(c.path, configFile)

	if _, err := os.Stat(confPath); err != nil {
		fd, err := os.Create(confPath)
		fd.Close()
		if err != nil {
			return "", fmt.Errorf("Cannot create "+configFile+" file at %s", confPath)
		}
	}

	return confPath, nil
}
