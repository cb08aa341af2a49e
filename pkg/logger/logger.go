package logger

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger for the service
func Init(appName, level string) error {
	return initLogger(os.Stdout, appName, level)
}

func initLogger(out io.Writer, appName, level string) error {
	if appName == "" {
		return fmt.Errorf("application name is not set")
	}
	if err := setLogLevel(level); err != nil {
		return err
	}

	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		parts := strings.Split(file, "/")
		return parts[len(parts)-1] + ":" + strconv.Itoa(line)
	}

	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "02-01-2006 15:04:05.000",
		NoColor:    out != os.Stdout,
		FormatLevel: func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("%-6s", i))
		},
	}).With().Timestamp().Caller().Str("app", appName).Logger()

	log.Info().Str("level", zerolog.GlobalLevel().String()).Msg("Logger initialized")
	return nil
}

// setLogLevel sets the global level. An empty level defaults to info.
func setLogLevel(level string) error {
	if level == "" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		return nil
	}
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("incorrect log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(parsed)
	return nil
}
