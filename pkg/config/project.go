package config

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

var compilerVersion = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

type (
	// Solidity is the compiler configuration. It's only validated, contracts
	// are compiled by external tools.
	Solidity struct {
		Version  string           `yaml:"version"`
		Settings CompilerSettings `yaml:"settings"`
	}

	// CompilerSettings are solc settings.
	CompilerSettings struct {
		Optimizer  Optimizer `yaml:"optimizer"`
		EVMVersion string    `yaml:"evmVersion"`
	}

	// Optimizer is the solc optimizer configuration.
	Optimizer struct {
		Enabled bool `yaml:"enabled"`
		Runs    int  `yaml:"runs"`
	}

	// Paths are the project directories, relative to the config file.
	Paths struct {
		Sources     string `yaml:"sources"`
		Tests       string `yaml:"tests"`
		Cache       string `yaml:"cache"`
		Artifacts   string `yaml:"artifacts"`
		Deploy      string `yaml:"deploy"`
		Deployments string `yaml:"deployments"`
	}

	// GasReporter configures gas usage reports.
	GasReporter struct {
		Enabled       bool   `yaml:"enabled"`
		Currency      string `yaml:"currency"`
		Coinmarketcap string `yaml:"coinmarketcap"`
	}

	// Etherscan holds contract verification settings.
	Etherscan struct {
		APIKey string `yaml:"apiKey"`
	}

	// Typechain configures binding generation.
	Typechain struct {
		OutDir                  string   `yaml:"outDir"`
		Target                  string   `yaml:"target"`
		AlwaysGenerateOverloads bool     `yaml:"alwaysGenerateOverloads"`
		ExternalArtifacts       []string `yaml:"externalArtifacts"`
	}

	// Mocha holds test runner settings.
	Mocha struct {
		// Timeout is the test timeout in milliseconds.
		Timeout uint64 `yaml:"timeout"`
	}

	// Logging configures the CLI logger.
	Logging struct {
		Level string `yaml:"level"`
		Path  string `yaml:"path"`
	}
)

var typechainTargets = map[string]bool{
	"ethers-v5":  true,
	"ethers-v6":  true,
	"web3-v1":    true,
	"truffle-v5": true,
}

// Validate checks compiler version, EVM version and optimizer settings.
func (s Solidity) Validate() error {
	if !compilerVersion.MatchString(s.Version) {
		return fmt.Errorf("invalid compiler version %q", s.Version)
	}
	if s.Settings.EVMVersion != "" && !IsEVMVersionValid(s.Settings.EVMVersion) {
		return fmt.Errorf("unknown EVM version %q", s.Settings.EVMVersion)
	}
	if s.Settings.Optimizer.Enabled && s.Settings.Optimizer.Runs <= 0 {
		return errors.New("optimizer runs should be positive")
	}
	return nil
}

func (p *Paths) setDefaults() {
	setDefault(&p.Sources, "contracts")
	setDefault(&p.Tests, "test")
	setDefault(&p.Cache, "cache")
	setDefault(&p.Artifacts, "artifacts")
	setDefault(&p.Deploy, "deploy")
	setDefault(&p.Deployments, "deployments")
}

func setDefault(s *string, def string) {
	if *s == "" {
		*s = def
	}
}

// Validate checks the target.
func (t Typechain) Validate() error {
	if t.Target != "" && !typechainTargets[t.Target] {
		return fmt.Errorf("unknown typechain target %q", t.Target)
	}
	return nil
}

// TimeoutDuration returns the test timeout.
func (m Mocha) TimeoutDuration() time.Duration {
	return time.Duration(m.Timeout) * time.Millisecond
}
