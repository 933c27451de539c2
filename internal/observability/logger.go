package observability

import (
	"io"

	"github.com/danmuck/otpic/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger installs the global logger for app using cfg and returns it.
func InitLogger(app string, cfg logging.Config, out io.Writer) zerolog.Logger {
	logger := logging.Apply(cfg, out).With().Str("app", app).Logger()
	log.Logger = logger
	return logger
}
