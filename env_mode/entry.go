package env_mode

import (
	"os"
	"strings"
	"sync"
)

const ENV_MODE_KEY = "GO_ENV_MODE"

type ENV_MODE string

const (
	DevMode  ENV_MODE = "development"
	ProMode  ENV_MODE = "production"
	TestMode ENV_MODE = "test"
)

var (
	currentEnv ENV_MODE
	modeMu     sync.RWMutex
)

// ParseEnv normalises the common spellings; anything unknown is development.
func ParseEnv(env string) ENV_MODE {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "pro":
		return ProMode
	case "test", "testing":
		return TestMode
	default:
		return DevMode
	}
}

// Mode returns the current mode, read from GO_ENV_MODE on first use.
func Mode() ENV_MODE {
	modeMu.RLock()
	env := currentEnv
	modeMu.RUnlock()
	if env != "" {
		return env
	}

	modeMu.Lock()
	defer modeMu.Unlock()
	if currentEnv == "" {
		currentEnv = ParseEnv(os.Getenv(ENV_MODE_KEY))
	}
	return currentEnv
}

// SetMode overrides the mode for the process and exports it to child processes.
func SetMode(mode ENV_MODE) {
	modeMu.Lock()
	defer modeMu.Unlock()
	currentEnv = mode
	os.Setenv(ENV_MODE_KEY, string(mode))
}

func IsProduction() bool {
	return Mode() == ProMode
}
