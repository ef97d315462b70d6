package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/2beens/fitcoach/internal/autosave"
	"github.com/2beens/fitcoach/internal/editor"
	"github.com/2beens/fitcoach/internal/logging"
	"github.com/2beens/fitcoach/internal/notify"
	"github.com/2beens/fitcoach/internal/profile"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const clientCacheSize = 1 << 20

func main() {
	os.Exit(run())
}

func run() int {
	// .env is optional, flags and the environment still apply without it
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "load .env: %s\n", err)
	}

	serverURL := flag.String("server", envOr("FITCOACH_SERVER", "http://localhost:9000"), "profile API base URL")
	profileID := flag.Int("profile", 0, "id of the profile to edit")
	debounce := flag.Duration("debounce", autosave.DefaultDelay, "quiet period before changes are saved")
	logFile := flag.String("log-file", envOr("FITCOACH_EDITOR_LOG", "profile_editor.log"), "log file, the terminal is taken by the editor")
	logLevel := flag.String("log-level", "info", "log level [trace | debug | info | warn | error]")
	flag.Parse()

	if *profileID <= 0 {
		fmt.Fprintln(os.Stderr, "profile_editor: -profile is required")
		flag.Usage()
		return 2
	}

	logging.Setup(logging.SetupParams{
		LogFileName: *logFile,
		LogLevel:    *logLevel,
		Environment: "editor",
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	otelShutdown, err := tracing.HoneycombSetup(os.Getenv("HONEYCOMB_ENABLED") == "true", "fitcoach-profile-editor", nil)
	if err != nil {
		log.Errorf("tracing setup: %s", err)
		otelShutdown = func() {}
	}
	defer otelShutdown()

	client := profile.NewClient(*serverURL, nil, clientCacheSize)
	notifier := notify.NewChanNotifier(16)
	coordinator := autosave.New(client, client, notifier, autosave.Options{
		Delay: *debounce,
	})

	log.Infof("editing profile [%d] on [%s], debounce %s", *profileID, *serverURL, *debounce)
	start := time.Now()
	err = editor.Run(editor.Options{
		Context:       ctx,
		ProfileID:     *profileID,
		Fetcher:       client,
		Coordinator:   coordinator,
		Notifications: notifier.C(),
	})
	// a signal skips the quit key, drop the timer here too
	if unsent := coordinator.Close(); len(unsent) > 0 {
		log.Warnf("changes of %v not confirmed by the server", unsent.Fields())
	}
	if err != nil {
		log.Errorf("editor: %s", err)
		fmt.Fprintf(os.Stderr, "profile_editor: %v\n", err)
		return 1
	}

	log.Infof("editor closed after %s", time.Since(start).Round(time.Second))
	return 0
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
