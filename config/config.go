// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"reflect"
	"strings"

	"github.com/spf13/viper"
)

// Config aggregates configuration for the application.
// Each field is owned by its respective package.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Subsetter SubsetterConfig `mapstructure:"subsetter"`
}

// LogConfig controls the structured logger wired up in cmd/root.go.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// SubsetterConfig holds the tunables for a subsetting request that are not
// part of the per-request Parameters (internal/parms) — process-lifetime
// defaults rather than request-scoped overrides.
type SubsetterConfig struct {
	ReadTimeoutSeconds int `mapstructure:"read_timeout_seconds"`
	MaxBeams           int `mapstructure:"max_beams"`
	OutputQueueDepth   int `mapstructure:"output_queue_depth"`
	PostRetries        int `mapstructure:"post_retries"`
	PostRetryBackoffMS int `mapstructure:"post_retry_backoff_ms"`
}

func defaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Subsetter: SubsetterConfig{
			ReadTimeoutSeconds: 600,
			MaxBeams:           6,
			OutputQueueDepth:   256,
			PostRetries:        5,
			PostRetryBackoffMS: 250,
		},
	}
}

// Load reads configuration from files and environment variables.
// Environment variables use the prefix "ICESAT2SUBSETTER" and the dot
// character in keys is replaced by an underscore. For example,
// "subsetter.max_beams" becomes "ICESAT2SUBSETTER_SUBSETTER_MAX_BEAMS".
func Load() (*Config, error) {
	cfg := defaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.SetEnvPrefix("ICESAT2SUBSETTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)
	_ = v.ReadInConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(parts, tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
