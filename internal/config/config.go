package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr string

	DBDriver string // sqlite|postgres
	DBDSN    string

	JWTSecret string
	TokenTTL  time.Duration

	CORSOrigins []string
}

// FromViper reads the effective configuration: flags, TESTIFYHUB_* env
// vars, and an optional config file, in viper's usual precedence order.
func FromViper(v *viper.Viper) Config {
	return Config{
		HTTPAddr:    v.GetString("addr"),
		DBDriver:    v.GetString("db-driver"),
		DBDSN:       v.GetString("db-dsn"),
		JWTSecret:   v.GetString("jwt-secret"),
		TokenTTL:    v.GetDuration("token-ttl"),
		CORSOrigins: v.GetStringSlice("cors-origins"),
	}
}
