package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/pion/webrtc/v4"
)

var validate = validator.New()

// Config holds server configuration loaded from environment variables.
type Config struct {
	Port            int           `env:"PORT,default=5000" validate:"min=1,max=65535"`
	DBPath          string        `env:"DB_PATH,default=:memory:" validate:"required"`
	StaticDir       string        `env:"STATIC_DIR,default=frontend"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR debug info warn error"`
	MeetingURLBase  string        `env:"MEETING_URL_BASE,default=/meeting.html" validate:"required"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s" validate:"gt=0"`

	SendBuffer           int `env:"SEND_BUFFER,default=256" validate:"min=1"`
	MaxMessageBytes      int `env:"MAX_MESSAGE_BYTES,default=1048576" validate:"min=1024"`
	MaxMessagesPerSecond int `env:"MAX_MESSAGES_PER_SECOND,default=0" validate:"min=0"`
	MessageBurst         int `env:"MESSAGE_BURST,default=0" validate:"min=0"`

	ICEServersJSON string `env:"ICE_SERVERS_JSON"`
	STUNURLs       string `env:"STUN_URLS,default=stun:stun.l.google.com:19302"`
	TURNURLs       string `env:"TURN_URLS"`
	TURNUsername   string `env:"TURN_USERNAME"`
	TURNCredential string `env:"TURN_CREDENTIAL"`

	// ICEServers is derived from the ICE variables above.
	ICEServers []webrtc.ICEServer
}

// Load reads configuration from environment variables, applying defaults and
// rejecting out of range values.
func Load() (Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	servers, err := parseICEServers(cfg.ICEServersJSON, cfg.STUNURLs, cfg.TURNURLs, cfg.TURNUsername, cfg.TURNCredential)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.ICEServers = servers
	return cfg, nil
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Burst returns the inbound limiter burst, defaulting to the rate.
func (c Config) Burst() int {
	if c.MessageBurst > 0 {
		return c.MessageBurst
	}
	return c.MaxMessagesPerSecond
}
