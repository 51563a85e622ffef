/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package config holds the policy flags consumed at the redefine_classes
// entry point, loaded with viper into a struct-of-structs tagged with
// mapstructure.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// RedefinitionConfig holds the flags the engine consumes at entry.
type RedefinitionConfig struct {
	// AllowAdvancedClassRedefinition selects compatibility mode (false,
	// the default) vs advanced mode (true) for the ChangeAnalyzer.
	AllowAdvancedClassRedefinition bool `mapstructure:"allow_advanced_class_redefinition"`

	// UseMethodForwardPoints attempts interpreter-frame forwarding for
	// already-executing frames.
	UseMethodForwardPoints bool `mapstructure:"use_method_forward_points"`

	// TraceRedefineClasses is the 0-5 diagnostic verbosity level.
	TraceRedefineClasses int `mapstructure:"trace_redefine_classes"`

	// TimeRedefineClasses turns on the per-phase elapsed timers.
	TimeRedefineClasses bool `mapstructure:"time_redefine_classes"`
}

// TraceConfig holds the ambient logging sink configuration (separate from the
// redefinition policy flags, as ipiton-alert-history-service splits its
// LogConfig out of the application-level policy struct).
type TraceConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Config is the top-level configuration object.
type Config struct {
	Redefinition RedefinitionConfig `mapstructure:"redefinition"`
	Trace        TraceConfig        `mapstructure:"trace"`
}

// Default returns the conservative defaults: compatibility mode, no
// forwarding, silent tracing, no timing — matching the JVM's own
// historical defaults for these flags.
func Default() Config {
	return Config{
		Redefinition: RedefinitionConfig{
			AllowAdvancedClassRedefinition: false,
			UseMethodForwardPoints:         false,
			TraceRedefineClasses:           0,
			TimeRedefineClasses:            false,
		},
	}
}

// Load reads configuration from the given file path (if non-empty) and
// from DCEVM_-prefixed environment variables, overlaying Default().
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix("DCEVM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("redefinition.allow_advanced_class_redefinition", cfg.Redefinition.AllowAdvancedClassRedefinition)
	v.SetDefault("redefinition.use_method_forward_points", cfg.Redefinition.UseMethodForwardPoints)
	v.SetDefault("redefinition.trace_redefine_classes", cfg.Redefinition.TraceRedefineClasses)
	v.SetDefault("redefinition.time_redefine_classes", cfg.Redefinition.TimeRedefineClasses)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
