package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/medvault/medvault-go/internal/session"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login [username]",
		Short: "Authenticate with the MedVault server",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLogin,
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and remove the saved token",
		RunE:  runLogout,
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Display the authenticated user",
		RunE:  runWhoami,
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Display session and server status",
		RunE:  runStatus,
	}
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	username := ""
	if len(args) > 0 {
		username = args[0]
	}

	username, password, err := promptCredentials(username)
	if err != nil {
		return err
	}

	if err := a.session.Login(cmd.Context(), username, password); err != nil {
		if errors.Is(err, session.ErrLoginInFlight) {
			return fmt.Errorf("a login is already in progress")
		}

		return fmt.Errorf("login: %w", err)
	}

	a.logger.Debug("login complete", "username", username)

	return nil
}

// promptCredentials fills in whichever of username and password were not
// supplied. Passwords are read without echo when stdin is a terminal.
func promptCredentials(username string) (string, string, error) {
	reader := bufio.NewReader(os.Stdin)

	if username == "" {
		fmt.Fprint(os.Stderr, "Username: ")

		line, err := reader.ReadString('\n')
		if err != nil {
			return "", "", fmt.Errorf("reading username: %w", err)
		}

		username = strings.TrimSpace(line)
	}

	if username == "" {
		return "", "", fmt.Errorf("username is required")
	}

	fmt.Fprint(os.Stderr, "Password: ")

	if term.IsTerminal(int(os.Stdin.Fd())) {
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)

		if err != nil {
			return "", "", fmt.Errorf("reading password: %w", err)
		}

		return username, string(raw), nil
	}

	// Piped stdin: read the password as a plain line.
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", "", fmt.Errorf("reading password: %w", err)
	}

	return username, strings.TrimRight(line, "\r\n"), nil
}

func runLogout(_ *cobra.Command, _ []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	if !a.session.Authenticated() {
		statusf("Not logged in.\n")
		return nil
	}

	if err := a.session.Logout(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	statusf("Logged out.\n")

	return nil
}

// whoamiOutput is the JSON schema for `whoami --json`.
type whoamiOutput struct {
	Username string `json:"username"`
	Server   string `json:"server"`
}

func runWhoami(_ *cobra.Command, _ []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	if err := a.requireSession(); err != nil {
		return err
	}

	out := whoamiOutput{
		Username: a.session.Username(),
		Server:   a.cfg.ServerURL,
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(out)
	}

	fmt.Printf("User:   %s\n", out.Username)
	fmt.Printf("Server: %s\n", out.Server)

	return nil
}

// statusOutput is the JSON schema for `status --json`.
type statusOutput struct {
	LoggedIn  bool   `json:"logged_in"`
	Username  string `json:"username,omitempty"`
	Server    string `json:"server"`
	TokenPath string `json:"token_path"`
}

func runStatus(_ *cobra.Command, _ []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	out := statusOutput{
		LoggedIn:  a.session.Authenticated(),
		Username:  a.session.Username(),
		Server:    a.cfg.ServerURL,
		TokenPath: a.cfg.TokenPath,
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(out)
	}

	if out.LoggedIn {
		fmt.Printf("Logged in as %s\n", out.Username)
	} else {
		fmt.Println("Not logged in")
	}

	fmt.Printf("Server: %s\n", out.Server)
	fmt.Printf("Token:  %s\n", out.TokenPath)

	return nil
}
