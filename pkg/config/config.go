package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/nspcc-dev/evm-devkit/pkg/config/chainid"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is the default configuration file location.
	DefaultConfigPath = "./devkit.yml"
	// EnvFile is the name of the environment file read from the
	// configuration directory.
	EnvFile = ".env"
	// DefaultSolidityVersion is used when no compiler version is given.
	DefaultSolidityVersion = "0.8.0"
)

// Version is the version of the devkit, set at build time.
var Version string

// ErrUnknownNetwork is returned for networks missing from the configuration.
var ErrUnknownNetwork = errors.New("unknown network")

// Config is the top-level project configuration.
type Config struct {
	DefaultNetwork string                  `yaml:"defaultNetwork"`
	Networks       map[string]*Network     `yaml:"networks"`
	NamedAccounts  map[string]NamedAccount `yaml:"namedAccounts"`
	Solidity       Solidity                `yaml:"solidity"`
	Paths          Paths                   `yaml:"paths"`
	GasReporter    GasReporter             `yaml:"gasReporter"`
	Etherscan      Etherscan               `yaml:"etherscan"`
	Typechain      Typechain               `yaml:"typechain"`
	Mocha          Mocha                   `yaml:"mocha"`
	Logging        Logging                 `yaml:"logging"`

	// root is the directory of the configuration file.
	root string
}

// Load attempts to load the config from the given directory, the file name
// is name with the ".yml" extension.
func Load(dir string, name string) (Config, error) {
	return LoadFile(filepath.Join(dir, name+".yml"))
}

// LoadFile loads config from the provided path. Environment variables
// (`${VAR}` or `${VAR:-default}`) are expanded using the process environment
// and the .env file located next to the configuration.
func LoadFile(configPath string) (Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config '%s' doesn't exist", configPath)
	}

	configData, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}

	dir := filepath.Dir(configPath)
	env, err := readEnvFile(filepath.Join(dir, EnvFile))
	if err != nil {
		return Config{}, err
	}

	cfg, err := Parse(configData, func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := env[key]
		return v, ok
	})
	if err != nil {
		return Config{}, err
	}
	cfg.root = dir
	return cfg, nil
}

func readEnvFile(path string) (map[string]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return env, nil
}

// Parse decodes the configuration, environment references are resolved with
// lookup. Defaults are applied and the result is validated.
func Parse(data []byte, lookup func(string) (string, bool)) (Config, error) {
	expanded := os.Expand(string(data), func(ref string) string {
		key, def, hasDef := strings.Cut(ref, ":-")
		v, ok := lookup(key)
		if (!ok || v == "") && hasDef {
			return def
		}
		return v
	})

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	decoder.KnownFields(true)
	err := decoder.Decode(&cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.DefaultNetwork == "" {
		c.DefaultNetwork = HardhatNetwork
	}
	if c.Networks == nil {
		c.Networks = make(map[string]*Network)
	}
	for _, name := range []string{HardhatNetwork, LocalhostNetwork} {
		if c.Networks[name] == nil {
			c.Networks[name] = new(Network)
		}
	}
	for name, n := range c.Networks {
		if n == nil {
			n = new(Network)
			c.Networks[name] = n
		}
		n.setDefaults(name)
	}
	if c.Solidity.Version == "" {
		c.Solidity.Version = DefaultSolidityVersion
	}
	c.Paths.setDefaults()
	if c.Logging.Level == "" {
		c.Logging.Level = zapcore.InfoLevel.String()
	}
}

// Validate checks the configuration consistency.
func (c Config) Validate() error {
	if _, ok := c.Networks[c.DefaultNetwork]; !ok {
		return fmt.Errorf("default network %q: %w", c.DefaultNetwork, ErrUnknownNetwork)
	}
	for _, name := range c.NetworkNames() {
		if err := c.Networks[name].Validate(name); err != nil {
			return fmt.Errorf("network %q: %w", name, err)
		}
	}
	for name, na := range c.NamedAccounts {
		for k := range na.Networks {
			if _, ok := c.Networks[k]; ok {
				continue
			}
			if _, err := strconv.ParseUint(k, 10, 64); err != nil {
				return fmt.Errorf("named account %q: %w %q", name, ErrUnknownNetwork, k)
			}
		}
	}
	if err := c.Solidity.Validate(); err != nil {
		return fmt.Errorf("solidity: %w", err)
	}
	if err := c.Typechain.Validate(); err != nil {
		return fmt.Errorf("typechain: %w", err)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// NetworkNames returns sorted names of configured networks.
func (c Config) NetworkNames() []string {
	names := make([]string, 0, len(c.Networks))
	for name := range c.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Network returns the network with the given name, empty name means the
// default network.
func (c Config) Network(name string) (*Network, error) {
	if name == "" {
		name = c.DefaultNetwork
	}
	n, ok := c.Networks[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownNetwork, name)
	}
	return n, nil
}

// ChainID returns the configured chain ID of the network, it's zero if the
// network doesn't specify one.
func (c Config) ChainID(name string) (chainid.ID, error) {
	n, err := c.Network(name)
	if err != nil {
		return 0, err
	}
	return n.ChainID, nil
}

// Path resolves a project path relative to the configuration file.
func (c Config) Path(p string) string {
	if filepath.IsAbs(p) || c.root == "" {
		return p
	}
	return filepath.Join(c.root, p)
}

// DeploymentsPath returns the location of the deployments database.
func (c Config) DeploymentsPath() string {
	return filepath.Join(c.Path(c.Paths.Deployments), "deployments.db")
}
