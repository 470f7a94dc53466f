package logtrace

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func InitLogger() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// SetLevel applies a textual level such as "debug" or "warn".
// Unknown levels leave the current level unchanged.
func SetLevel(level string) {
	if level == "" {
		return
	}
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		log.Warn().Str("level", level).Msg("unknown log level")
		return
	}
	zerolog.SetGlobalLevel(l)
}
