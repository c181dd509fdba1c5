package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sahayak-edu/sahayak/internal/agent"
	"github.com/sahayak-edu/sahayak/internal/handler"
	"github.com/sahayak-edu/sahayak/internal/llm"
	"github.com/sahayak-edu/sahayak/internal/model"
	"github.com/sahayak-edu/sahayak/internal/repl"
	"github.com/sahayak-edu/sahayak/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sahayak",
		Short: "Educational assistant agent for teachers and students",
	}

	serve := serveCmd()
	root.AddCommand(serve, chatCmd(), backupCmd(), restoreCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `sahayak --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addCommonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("db", "sahayak.db", "SQLite database path")
	f.String("app-name", "Sahayak Educational Agent", "Application name used to scope sessions")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func addLLMFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	cmd.Flags().StringP("addr", "a", ":8000", "HTTP listen address")
	addCommonFlags(cmd)
	addLLMFlags(cmd)
	return cmd
}

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE:  runChat,
	}
	cmd.Flags().StringP("user", "u", "demo_user", "User ID for the session")
	cmd.Flags().String("backup-dir", ".", "Directory for REPL backup files")
	addCommonFlags(cmd)
	addLLMFlags(cmd)
	return cmd
}

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a session backup file",
		RunE:  runBackup,
	}
	cmd.Flags().StringP("user", "u", "", "User ID to back up (required)")
	cmd.Flags().String("session", "", "Session ID (defaults to the most recent session)")
	cmd.Flags().StringP("output", "o", "-", "Output file path (- for stdout)")
	addCommonFlags(cmd)

	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func restoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <backup-file>",
		Short: "Restore a session from a backup file",
		Args:  cobra.ExactArgs(1),
		RunE:  runRestore,
	}
	addCommonFlags(cmd)
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("SAHAYAK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("sahayak")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/sahayak")
	v.AddConfigPath("/etc/sahayak")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func newLLMClient(ctx context.Context, v *viper.Viper) (*llm.Client, error) {
	client := llm.New(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-model"),
	)
	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("LLM health check: %w", err)
	}
	slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))
	return client, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"), v.GetString("app-name"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	llmClient, err := newLLMClient(cmd.Context(), v)
	if err != nil {
		return err
	}
	manager := agent.New(llmClient)

	h := handler.New(db, manager, v.GetString("app-name"))

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"db", v.GetString("db"),
		"model", v.GetString("llm-model"),
		"llm_url", v.GetString("llm-url"),
	)
	return http.ListenAndServe(addr, r)
}

func runChat(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"), v.GetString("app-name"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	llmClient, err := newLLMClient(cmd.Context(), v)
	if err != nil {
		return err
	}
	manager := agent.New(llmClient)

	r, err := repl.New(db, manager, v.GetString("user"), os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	r.BackupDir = v.GetString("backup-dir")
	return r.Run(cmd.Context())
}

func runBackup(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"), v.GetString("app-name"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	userID := v.GetString("user")
	sessionID := v.GetString("session")

	var sess model.Session
	if sessionID != "" {
		got, err := db.Get(userID, sessionID)
		if err != nil {
			return fmt.Errorf("fetch session: %w", err)
		}
		if got == nil {
			return fmt.Errorf("session %s not found for user %s", sessionID, userID)
		}
		sess = *got
	} else {
		sessions, err := db.List(userID)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		if len(sessions) == 0 {
			return fmt.Errorf("no sessions found for user %s", userID)
		}
		sess = sessions[0]
	}

	backup := model.NewSessionBackup(sess, time.Now().UTC())
	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal backup: %w", err)
	}

	outPath := v.GetString("output")
	if outPath == "" || outPath == "-" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	slog.Info("backup written", "path", outPath, "user_id", userID, "session_id", sess.ID)
	return nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read backup file: %w", err)
	}

	var backup model.SessionBackup
	if err := json.Unmarshal(data, &backup); err != nil {
		return fmt.Errorf("parse backup file: %w", err)
	}
	if backup.AppName == "" || backup.UserID == "" || backup.State == nil {
		return fmt.Errorf("invalid backup file: app_name, user_id and state are required")
	}

	// Restore under the backup's own app name so the session lands in
	// the scope it was taken from.
	db, err := store.New(v.GetString("db"), backup.AppName)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	sess, err := db.Create(backup.UserID, backup.State)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	slog.Info("session restored",
		"path", args[0],
		"user_id", backup.UserID,
		"session_id", sess.ID,
		"backup_timestamp", backup.BackupTimestamp,
		"attendance_records", len(backup.State.AttendanceRecords),
		"interactions", len(backup.State.InteractionHistory),
	)
	return nil
}
