package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/reservoir-data/tap-tally/constants"
)

// logs go to stderr (and a rotated file after Init); stdout is reserved for
// protocol rows
var logger = zerolog.New(console()).With().Timestamp().Logger()

func console() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
}

// Init attaches a rotated file writer under the config folder. Must run
// after the protocol layer has resolved viper paths.
func Init() {
	logFolder := filepath.Join(viper.GetString(constants.ConfigFolder), "logs")
	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(logFolder, fmt.Sprintf("sync_%s.log", time.Now().UTC().Format("2006_01_02_15_04_05"))),
		MaxSize:    100, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
	logger = zerolog.New(zerolog.MultiLevelWriter(console(), fileWriter)).With().Timestamp().Logger()
}

func Debugf(format string, v ...any) {
	logger.Debug().Msgf(format, v...)
}

func Infof(format string, v ...any) {
	logger.Info().Msgf(format, v...)
}

func Warnf(format string, v ...any) {
	logger.Warn().Msgf(format, v...)
}

func Errorf(format string, v ...any) {
	logger.Error().Msgf(format, v...)
}

func Debug(v ...any) {
	logger.Debug().Msg(fmt.Sprint(v...))
}

func Info(v ...any) {
	logger.Info().Msg(fmt.Sprint(v...))
}

func Warn(v ...any) {
	logger.Warn().Msg(fmt.Sprint(v...))
}

func Error(v ...any) {
	logger.Error().Msg(fmt.Sprint(v...))
}

func Fatal(v ...any) {
	logger.Fatal().Msg(fmt.Sprint(v...))
}
