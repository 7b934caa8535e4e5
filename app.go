package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/medvault/medvault-go/internal/api"
	"github.com/medvault/medvault-go/internal/config"
	"github.com/medvault/medvault-go/internal/notify"
	"github.com/medvault/medvault-go/internal/registry"
	"github.com/medvault/medvault-go/internal/session"
	"github.com/medvault/medvault-go/internal/uploader"
)

// app wires the session, document registry, and upload controller to one
// API client. Built once per command invocation.
type app struct {
	cfg      *config.Resolved
	logger   *slog.Logger
	notifier *notify.Notifier
	session  *session.Manager
	registry *registry.Registry
	uploader *uploader.Controller
}

// buildApp assembles the application from the resolved configuration and
// restores any persisted session.
func buildApp() (*app, error) {
	logger := buildLogger()
	cfg := resolvedCfg

	store := session.NewStore(cfg.TokenPath, logger)
	notifier := notify.New(notify.DefaultDisplayDuration, renderNotification, logger)

	httpClient := &http.Client{Timeout: cfg.Timeout}
	client := api.NewClient(cfg.ServerURL, httpClient, store, logger, cfg.UserAgent)

	sess := session.NewManager(store, client, notifier, logger)
	reg := registry.New(client, sess, notifier, logger)
	up := uploader.New(client, sess, reg, notifier, logger, renderProgress)

	if _, err := sess.Restore(); err != nil {
		return nil, fmt.Errorf("restoring session: %w", err)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		notifier: notifier,
		session:  sess,
		registry: reg,
		uploader: up,
	}, nil
}

// renderNotification prints notifications to stderr as they are published.
// Warnings and errors always print; success messages respect --quiet.
func renderNotification(n notify.Notification) {
	switch n.Severity {
	case notify.SeveritySuccess:
		statusf("%s\n", n.Message)
	case notify.SeverityWarning:
		fmt.Fprintf(os.Stderr, "Warning: %s\n", n.Message)
	case notify.SeverityError:
		fmt.Fprintf(os.Stderr, "Error: %s\n", n.Message)
	}
}

// renderProgress redraws an in-place upload percentage. Only when stderr
// is a terminal; redirected output gets no progress noise.
func renderProgress(percent int) {
	if flagQuiet || !isatty.IsTerminal(os.Stderr.Fd()) {
		return
	}

	fmt.Fprintf(os.Stderr, "\rUploading: %3d%%", percent)

	if percent >= 100 {
		fmt.Fprintln(os.Stderr)
	}
}

// requireSession returns a friendly error when no session is active.
func (a *app) requireSession() error {
	if !a.session.Authenticated() {
		return fmt.Errorf("not logged in — run 'medvault login' first")
	}

	return nil
}
