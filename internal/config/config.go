package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config aggregates settings for both binaries: the chat client and the
// development server.
type Config struct {
	Server ServerConfig
	Client ClientConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	client, err := loadClientConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Client: client}, nil
}

// ServerConfig describes the development server.
type ServerConfig struct {
	Addr          string
	AdminUser     string
	AdminPassword string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	addr := port
	if !strings.Contains(port, ":") {
		// Allow both ":8080" and a bare port number.
		if strings.Contains(port, " ") {
			return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
		}
		addr = ":" + port
	}

	return ServerConfig{
		Addr:          addr,
		AdminUser:     getEnvOrDefault("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnvOrDefault("ADMIN_PASSWORD", "admin"),
	}, nil
}

// ClientConfig describes how the client reaches the chat backend. Either a
// ready-made token or a username/password pair must be supplied; the client
// binary decides which path to take.
type ClientConfig struct {
	BaseURL      string
	Token        string
	Username     string
	Password     string
	StreamBuffer int
}

func loadClientConfig() (ClientConfig, error) {
	buffer := 64
	if override, err := parseOptionalIntEnv("CHAT_STREAM_BUFFER"); err != nil {
		return ClientConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return ClientConfig{}, fmt.Errorf("CHAT_STREAM_BUFFER must be positive, got %d", *override)
		}
		buffer = *override
	}

	return ClientConfig{
		BaseURL:      strings.TrimRight(getEnvOrDefault("CHAT_BASE_URL", "http://localhost:8080"), "/"),
		Token:        strings.TrimSpace(os.Getenv("CHAT_TOKEN")),
		Username:     strings.TrimSpace(os.Getenv("CHAT_USERNAME")),
		Password:     os.Getenv("CHAT_PASSWORD"),
		StreamBuffer: buffer,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
