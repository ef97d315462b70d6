package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/2beens/fitcoach/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const maxLogFileSizeMB = 50

type SetupParams struct {
	// LogFileName without the .log suffix is fine, empty logs to stdout only
	LogFileName   string
	LogToStdout   bool
	LogLevel      string
	LogFormatJSON bool
	Environment   string

	SentryEnabled    bool
	SentryDSN        string
	SentryServerName string

	// MaxAgeDays of rotated log files, 0 keeps them all
	MaxAgeDays int
}

// Setup configures the global logrus logger used by the service and the editor.
func Setup(params SetupParams) {
	if params.LogFormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	if params.SentryEnabled {
		setupSentry(params)
	}
	logrus.SetLevel(GetLevel(params.LogLevel))
	logrus.SetOutput(output(params))
}

func setupSentry(params SetupParams) {
	if err := sentry.Init(sentry.ClientOptions{
		Environment:      params.Environment,
		Dsn:              params.SentryDSN,
		TracesSampleRate: 1.0,
		ServerName:       params.SentryServerName,
	}); err != nil {
		logrus.Errorf("sentry init: %s", err)
		return
	}

	logrus.AddHook(NewSentryHook([]logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
	}))
	logrus.Infof("sentry enabled for [%s]", params.Environment)
}

func output(params SetupParams) io.Writer {
	if params.LogFileName == "" {
		logrus.Info("logging to stdout only")
		return os.Stdout
	}

	fileName := logFilePath(params.LogFileName)
	ensureLogsDir(filepath.Dir(fileName))
	logFile := &lumberjack.Logger{
		Filename: fileName,
		MaxSize:  maxLogFileSizeMB,
		MaxAge:   params.MaxAgeDays,
		Compress: true,
	}

	if !params.LogToStdout {
		logrus.Infof("logging to [%s]", fileName)
		return logFile
	}
	logrus.Infof("logging to [%s] and stdout", fileName)
	return pkg.NewTeeWriter(os.Stdout, logFile)
}

func logFilePath(name string) string {
	if strings.HasSuffix(name, ".log") {
		return name
	}
	return name + ".log"
}

func ensureLogsDir(dir string) {
	exists, err := pkg.PathExists(dir, true)
	if err != nil {
		logrus.Errorf("check logs dir [%s]: %s", dir, err)
		return
	}
	if exists {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logrus.Errorf("create logs dir [%s]: %s", dir, err)
	}
}

// GetLevel parses a level name case-insensitively. Unknown names give info.
func GetLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
