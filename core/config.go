package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug    bool
		TestMode bool
		Env      string // DEV (default), TEST, QA, PROD
		Build    string
		AppName  string
		WorkDir  string

		SecretKey        []byte
		FrontendBaseURL  string
		RollbarToken     string
		SendgridAPIKey   string
		defaultFromEmail string

		Server   ServerConfig
		Auth     AuthConfig
		Database DatabaseConfig
	}

	ServerConfig struct {
		Host            string
		APIHost         string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	AuthConfig struct {
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		LockoutThreshold          int
		LockoutCooldown           time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		Host          string
		Port          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Darasa")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "k2(#yg4h^$cegm2emy-wer)enb$+57=dz&uoxh2(h!x)#*c2po")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.apiHost", "0.0.0.0:8000")
	v.SetDefault("server.debugHost", "0.0.0.0:8001")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)

	v.SetDefault("auth.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("auth.jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("auth.lockoutThreshold", 5)
	v.SetDefault("auth.lockoutCooldown", 30*time.Minute)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.name", "darasa")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "darasa")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         env == "TEST",
		Env:              env,
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		WorkDir:          wd,
		SecretKey:        []byte(v.GetString("secretKey")),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridAPIKey:   v.GetString("sendgridApiKey"),
		defaultFromEmail: v.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			APIHost:         v.GetString("server.apiHost"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
		},
		Auth: AuthConfig{
			JWTExpirationDelta:        v.GetDuration("auth.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("auth.jwtRefreshExpirationDelta"),
			LockoutThreshold:          v.GetInt("auth.lockoutThreshold"),
			LockoutCooldown:           v.GetDuration("auth.lockoutCooldown"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Name:          v.GetString("database.name"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
	}
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
}

func (dc DatabaseConfig) Address() string {
	return dc.Host + ":" + dc.Port
}
