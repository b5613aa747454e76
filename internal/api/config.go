// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"fmt"
	"github.com/alvinbaena/pwd-fortress/internal/util"
	"github.com/alvinbaena/pwd-fortress/pkg/hibp"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"reflect"
	"strings"
	"time"
)

type Config struct {
	Port           uint16        `mapstructure:"PORT" validate:"required"`
	SelfTLS        bool          `mapstructure:"SELF_TLS" validate:"required_without_all=TLSCert TLSKey"`
	TLSCert        string        `mapstructure:"TLS_CERT" validate:"required_if=SelfTLS false,required_with=TLSKey"`
	TLSKey         string        `mapstructure:"TLS_KEY" validate:"required_if=SelfTLS false,required_with=TLSCert"`
	Debug          bool          `mapstructure:"DEBUG"`
	HibpURL        string        `mapstructure:"HIBP_URL" validate:"required,url"`
	HibpTimeout    time.Duration `mapstructure:"HIBP_TIMEOUT" validate:"gte=0"`
	HibpRetries    int           `mapstructure:"HIBP_RETRIES" validate:"gte=0,lte=10"`
	HibpPadding    bool          `mapstructure:"HIBP_PADDING"`
	CacheSize      int64         `mapstructure:"CACHE_SIZE" validate:"gte=0"`
	CacheTTL       time.Duration `mapstructure:"CACHE_TTL" validate:"gte=0"`
	MaxConnections int           `mapstructure:"MAX_CONNECTIONS" validate:"gte=0"`
}

func bindEnvs(v *viper.Viper, iface interface{}, parts ...string) {
	ifv := reflect.ValueOf(iface)
	ift := reflect.TypeOf(iface)
	for i := 0; i < ift.NumField(); i++ {
		fv := ifv.Field(i)
		t := ift.Field(i)
		tv, ok := t.Tag.Lookup("mapstructure")
		if !ok {
			continue
		}
		switch fv.Kind() {
		case reflect.Struct:
			bindEnvs(v, fv.Interface(), append(parts, tv)...)
		default:
			_ = v.BindEnv(strings.Join(append(parts, tv), "."))
		}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 3100)
	v.SetDefault("HIBP_URL", hibp.DefaultBaseURL)
	v.SetDefault("HIBP_TIMEOUT", hibp.DefaultTimeout)
	v.SetDefault("HIBP_RETRIES", 0)
	// 64MiB of range bodies, ~2000 prefixes.
	v.SetDefault("CACHE_SIZE", 64<<20)
	v.SetDefault("CACHE_TTL", time.Hour)
	v.SetDefault("MAX_CONNECTIONS", 512)
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "required_without_all":
		return fmt.Sprintf("This field is required if fields [%s] are missing", util.ToScreamingSnakeCase(fe.Param()))
	case "required_if":
		return fmt.Sprintf("This field is required if %s", util.FieldConditions(fe.Param()))
	case "required_with":
		return fmt.Sprintf("This is field requires the presence of %s", util.ToScreamingSnakeCase(fe.Param()))
	case "url":
		return "This field must be a valid URL"
	case "gte", "lte":
		return fmt.Sprintf("This field must be %s %s", fe.Tag(), fe.Param())
	}
	return fe.Error() // default error
}

// LoadConfig reads the server configuration from the environment and from anything already bound
// to v (command flags), then validates it.
func LoadConfig(v *viper.Viper) (config Config, err error) {
	if v == nil {
		v = viper.New()
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	// I hate this, but it works.
	// This is to not require a config file to unmarshal Envs in a struct
	// https://github.com/spf13/viper/issues/188#issuecomment-399884438
	config = Config{}
	bindEnvs(v, config)

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("error reading configuration: %w", err)
	}

	validate := validator.New()
	if err = validate.Struct(&config); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			var msgs []string
			for _, fe := range ve {
				msgs = append(msgs, fmt.Sprintf("%s: %s", util.ToScreamingSnakeCase(fe.Field()), msgForTag(fe)))
			}
			return config, errors.New(strings.Join(msgs, ". "))
		}
		return config, fmt.Errorf("error validating configuration: %w", err)
	}

	return config, nil
}
