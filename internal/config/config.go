package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jaam8/poll_profiles/internal/notify"
	"github.com/jaam8/poll_profiles/internal/session"
	"github.com/jaam8/poll_profiles/pkg/firebase"
	"github.com/jaam8/poll_profiles/pkg/tarantool"
	"github.com/joho/godotenv"
)

const (
	BackendTarantool = "tarantool"
	BackendFirestore = "firestore"
	BackendMemory    = "memory"
)

type Config struct {
	RestPort       string              `yaml:"REST_PORT"       env:"REST_PORT"       env-default:"8080"`
	LogLevel       string              `yaml:"LOG_LEVEL"       env:"LOG_LEVEL"       env-default:"debug"`
	StoreBackend   string              `yaml:"STORE_BACKEND"   env:"STORE_BACKEND"   env-default:"tarantool"`
	HandleAttempts int                 `yaml:"HANDLE_ATTEMPTS" env:"HANDLE_ATTEMPTS" env-default:"5"`
	DefaultImage   string              `yaml:"DEFAULT_IMAGE"   env:"DEFAULT_IMAGE"`
	SessionTTL     time.Duration       `yaml:"SESSION_TTL"     env:"SESSION_TTL"     env-default:"168h"`
	Tarantool      tarantool.Config    `yaml:"TARANTOOL"       env:"TARANTOOL"`
	Firebase       firebase.Config     `yaml:"FIREBASE"        env:"FIREBASE"`
	Redis          session.RedisConfig `yaml:"REDIS"           env:"REDIS"`
	Mattermost     notify.Config       `yaml:"MATTERMOST"      env:"MATTERMOST"`
}

var ErrUnknownBackend = errors.New("config: STORE_BACKEND must be tarantool, firestore or memory")

func New() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	var config Config
	if err := cleanenv.ReadEnv(&config); err != nil {
		return nil, err
	}
	switch config.StoreBackend {
	case BackendTarantool, BackendFirestore, BackendMemory:
	default:
		return nil, ErrUnknownBackend
	}
	return &config, nil
}
