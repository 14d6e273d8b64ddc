// Package config provides configuration management for kldash.
// Configurations are loaded from TOML files with XDG-compliant paths.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/knowlearn/kldash/internal/simulation"
)

// Config holds the complete application configuration.
type Config struct {
	Company    CompanyConfig    `toml:"company"`
	Simulation SimulationConfig `toml:"simulation"`
	Data       DataConfig       `toml:"data"`
	Display    DisplayConfig    `toml:"display"`
	Logging    LoggingConfig    `toml:"logging"`
	Database   DatabaseConfig   `toml:"database"`
	Server     ServerConfig     `toml:"server"`
}

// CompanyConfig identifies the organization the console reports on.
type CompanyConfig struct {
	Name     string `toml:"name"`
	Currency string `toml:"currency"`
}

// SimulationConfig holds the values the simulation form starts with.
type SimulationConfig struct {
	AvailableInternalMM   float64 `toml:"available_internal_mm"`
	RequiredMM            float64 `toml:"required_mm"`
	UnitCostInternal      float64 `toml:"unit_cost_internal"`
	UnitCostExternal      float64 `toml:"unit_cost_external"`
	OutsourceLimitPercent float64 `toml:"outsource_limit_percent"`
	Strategy              string  `toml:"strategy"`
	HistorySize           int     `toml:"history_size"`
}

// Input converts the configured defaults to a simulation input.
func (s *SimulationConfig) Input() (simulation.Input, error) {
	strategy, err := simulation.ParseStrategy(s.Strategy)
	if err != nil {
		return simulation.Input{}, err
	}
	return simulation.Input{
		AvailableInternalMM:   s.AvailableInternalMM,
		RequiredMM:            s.RequiredMM,
		UnitCostInternal:      s.UnitCostInternal,
		UnitCostExternal:      s.UnitCostExternal,
		OutsourceLimitPercent: s.OutsourceLimitPercent,
		Strategy:              strategy,
	}, nil
}

// DataConfig controls the generated fixture dataset.
type DataConfig struct {
	Seed     int64 `toml:"seed"`
	People   int   `toml:"people"`
	Projects int   `toml:"projects"`
	Partners int   `toml:"partners"`
}

// DisplayConfig controls TUI appearance.
type DisplayConfig struct {
	ColorScheme ColorScheme `toml:"color_scheme"`
	PageSize    int         `toml:"page_size"`
	DateFormat  string      `toml:"date_format"`
}

// ColorScheme defines the terminal color palette.
type ColorScheme string

const (
	ColorSchemeIndigo ColorScheme = "indigo"
	ColorSchemeAmber  ColorScheme = "amber"
	ColorSchemeMono   ColorScheme = "mono"
)

// LoggingConfig controls application logging.
type LoggingConfig struct {
	Level LogLevel `toml:"level"`
	File  string   `toml:"file"`
}

// LogLevel defines logging verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// DatabaseConfig controls SQLite database settings.
type DatabaseConfig struct {
	Path      string `toml:"path"`
	BackupDir string `toml:"backup_dir"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr         string `toml:"addr"`
	ReadTimeout  string `toml:"read_timeout"`
	WriteTimeout string `toml:"write_timeout"`
}

// Timeouts parses the configured read and write timeouts.
func (s *ServerConfig) Timeouts() (read, write time.Duration, err error) {
	read, err = time.ParseDuration(s.ReadTimeout)
	if err != nil {
		return 0, 0, fmt.Errorf("read_timeout: %w", err)
	}
	write, err = time.ParseDuration(s.WriteTimeout)
	if err != nil {
		return 0, 0, fmt.Errorf("write_timeout: %w", err)
	}
	return read, write, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Company.Name == "" {
		errs = append(errs, errors.New("company: name is required"))
	}

	if err := c.Simulation.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("simulation: %w", err))
	}

	if err := c.Data.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("data: %w", err))
	}

	if err := c.Display.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("display: %w", err))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the simulation defaults form a valid input.
func (s *SimulationConfig) Validate() error {
	var errs []error

	in, err := s.Input()
	if err != nil {
		errs = append(errs, err)
	} else if err := in.Validate(); err != nil {
		errs = append(errs, err)
	}

	if s.HistorySize < 0 {
		errs = append(errs, errors.New("history_size must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the fixture sizes are usable.
func (d *DataConfig) Validate() error {
	var errs []error

	if d.People < 1 {
		errs = append(errs, errors.New("people must be positive"))
	}
	if d.Projects < 1 {
		errs = append(errs, errors.New("projects must be positive"))
	}
	if d.Partners < 1 {
		errs = append(errs, errors.New("partners must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the display configuration is valid.
func (d *DisplayConfig) Validate() error {
	var errs []error

	validSchemes := map[ColorScheme]bool{
		ColorSchemeIndigo: true,
		ColorSchemeAmber:  true,
		ColorSchemeMono:   true,
	}

	if !validSchemes[d.ColorScheme] && d.ColorScheme != "" {
		errs = append(errs, fmt.Errorf("invalid color_scheme: %s", d.ColorScheme))
	}

	if d.PageSize < 0 || d.PageSize > 100 {
		errs = append(errs, errors.New("page_size must be between 0 and 100"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the logging configuration is valid.
func (l *LoggingConfig) Validate() error {
	validLevels := map[LogLevel]bool{
		LogLevelDebug: true,
		LogLevelInfo:  true,
		LogLevelWarn:  true,
		LogLevelError: true,
	}

	if !validLevels[l.Level] && l.Level != "" {
		return fmt.Errorf("invalid log level: %s", l.Level)
	}

	return nil
}

// Validate checks that the database configuration is valid.
func (d *DatabaseConfig) Validate() error {
	if d.Path == "" {
		return errors.New("path is required")
	}
	return nil
}

// Validate checks that the server configuration is valid.
func (s *ServerConfig) Validate() error {
	var errs []error

	if s.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}

	if _, _, err := s.Timeouts(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Default returns a configuration with sensible default values.
func Default() *Config {
	defaults := simulation.Defaults()
	return &Config{
		Company: CompanyConfig{
			Name:     "KNOWLEARN",
			Currency: "KRW",
		},
		Simulation: SimulationConfig{
			AvailableInternalMM:   defaults.AvailableInternalMM,
			RequiredMM:            defaults.RequiredMM,
			UnitCostInternal:      defaults.UnitCostInternal,
			UnitCostExternal:      defaults.UnitCostExternal,
			OutsourceLimitPercent: defaults.OutsourceLimitPercent,
			Strategy:              defaults.Strategy.String(),
			HistorySize:           20,
		},
		Data: DataConfig{
			Seed:     42,
			People:   50,
			Projects: 12,
			Partners: 15,
		},
		Display: DisplayConfig{
			ColorScheme: ColorSchemeIndigo,
			PageSize:    20,
			DateFormat:  "2006-01-02",
		},
		Logging: LoggingConfig{
			Level: LogLevelInfo,
			File:  "logs/kldash.log",
		},
		Database: DatabaseConfig{
			Path: "kldash.db",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  "5s",
			WriteTimeout: "5s",
		},
	}
}
