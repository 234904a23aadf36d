package config

import "time"

// AppConfig is the root configuration for a gateway instance.
type AppConfig struct {
	Server ServerConfig `yaml:"server"`
	Auth   AuthConfig   `yaml:"auth"`
	PG     PGConfig     `yaml:"postgres"`
	Redis  RedisConfig  `yaml:"redis"`
	WS     WSConfig     `yaml:"websocket"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"` // e.g. ":8080"
}

type AuthConfig struct {
	Secret string        `yaml:"secret"`
	Alg    string        `yaml:"alg"`
	TTL    time.Duration `yaml:"ttl"`
}

type PGConfig struct {
	URL      string `yaml:"url"` // takes precedence when set
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"` // empty disables the presence mirror
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Presence time.Duration `yaml:"presence_ttl"`
}

type WSConfig struct {
	ReadLimit     int64         `yaml:"read_limit"`
	WriteDeadline time.Duration `yaml:"write_deadline"`
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Auth.Alg == "" {
		c.Auth.Alg = "HS256"
	}
	if c.Auth.TTL <= 0 {
		c.Auth.TTL = 2 * time.Hour
	}
	if c.PG.Port == 0 {
		c.PG.Port = 5432
	}
	if c.PG.SSLMode == "" {
		c.PG.SSLMode = "prefer"
	}
	if c.Redis.Presence <= 0 {
		c.Redis.Presence = 2 * time.Minute
	}
	if c.WS.ReadLimit <= 0 {
		c.WS.ReadLimit = 1 << 20 // 1MB
	}
	if c.WS.WriteDeadline <= 0 {
		c.WS.WriteDeadline = 5 * time.Second
	}
}
