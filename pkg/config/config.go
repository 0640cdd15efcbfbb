// Package config loads gateway settings from command-line flags with
// environment-variable defaults, the same layering the teacher's
// cmd/bluetooth-service/main.go uses for its serial and Redis flags.
package config

import (
	"flag"
	"os"
	"strconv"
)

// Config holds every externally-tunable setting of the gateway.
type Config struct {
	ListenPort   int
	ControlPort  int
	LogDir       string
	RedisAddr    string
	RedisPass    string
	RedisDB      int
	AdminSocket  string
}

// Parse reads flags (falling back to environment variables, then the listed
// defaults) and returns a Config. It calls flag.Parse; callers must not
// have already defined flags with the same names on the default FlagSet.
func Parse() *Config {
	cfg := &Config{}

	listenPort := flag.Int("listen-port", envInt("LISTEN_PORT", 5027), "Device TCP listen port")
	controlPort := flag.Int("control-port", envInt("CONTROL_PORT", 3000), "Operator control surface port")
	logDir := flag.String("log-dir", envString("LOG_DIR", ""), "Directory for persisted logs (stored in Config.LogDir; the gateway itself writes no log files)")
	redisAddr := flag.String("redis-addr", envString("REDIS_ADDR", "localhost:6379"), "Redis server address")
	redisPass := flag.String("redis-pass", envString("REDIS_PASSWORD", ""), "Redis password")
	redisDB := flag.Int("redis-db", envInt("REDIS_DB", 0), "Redis database number")
	adminSocket := flag.String("admin-socket", envString("ADMIN_SOCKET", "/run/gt06-gateway/admin.sock"), "Unix socket path for the admin feed")

	flag.Parse()

	cfg.ListenPort = *listenPort
	cfg.ControlPort = *controlPort
	cfg.LogDir = *logDir
	cfg.RedisAddr = *redisAddr
	cfg.RedisPass = *redisPass
	cfg.RedisDB = *redisDB
	cfg.AdminSocket = *adminSocket

	return cfg
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
