// Package repl implements the interactive command-line front end. It
// keeps one session open at a time and sends anything that is not a
// command to the manager agent.
package repl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sahayak-edu/sahayak/internal/model"
	"github.com/sahayak-edu/sahayak/internal/store"
)

type processor interface {
	Process(ctx context.Context, st *model.State, text string) (string, error)
}

// REPL is an interactive session over a single user's state.
type REPL struct {
	store  *store.Store
	agent  processor
	userID string
	sess   model.Session

	in  io.Reader
	out io.Writer
	now func() time.Time

	// BackupDir is where the backup command writes its files.
	// Defaults to the current directory.
	BackupDir string
}

// New resolves the user's session and returns a ready REPL.
func New(s *store.Store, agent processor, userID string, in io.Reader, out io.Writer) (*REPL, error) {
	sess, err := s.Resolve(userID, "")
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	return &REPL{
		store:     s,
		agent:     agent,
		userID:    userID,
		sess:      sess,
		in:        in,
		out:       out,
		now:       time.Now,
		BackupDir: ".",
	}, nil
}

// Run reads lines until exit or EOF. Command and chat failures are
// printed and the loop continues.
func (r *REPL) Run(ctx context.Context) error {
	r.printBanner()
	r.printSessionInfo()
	fmt.Fprintln(r.out, "Type 'help' for commands, 'exit' to quit.")

	scanner := bufio.NewScanner(r.in)
	for {
		fmt.Fprintf(r.out, "\n%s> ", r.userID)
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch strings.ToLower(line) {
		case "exit", "quit", "q":
			fmt.Fprintf(r.out, "Goodbye. Session %s is saved.\n", r.sess.ID)
			return scanner.Err()
		}

		if r.isCommand(line) {
			if err := r.Execute(ctx, line); err != nil {
				fmt.Fprintf(r.out, "Error: %v\n", err)
			}
			continue
		}

		reply, err := r.agent.Process(ctx, r.sess.State, line)
		if err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
			continue
		}
		if err := r.store.SaveState(r.userID, r.sess.ID, r.sess.State); err != nil {
			fmt.Fprintf(r.out, "Error saving session: %v\n", err)
			continue
		}
		fmt.Fprintf(r.out, "\n%s\n", reply)
	}
	return scanner.Err()
}

func (r *REPL) isCommand(line string) bool {
	cmd := strings.ToLower(strings.Fields(line)[0])
	switch cmd {
	case "help", "sessions", "switch", "new", "state", "backup", "clear":
		return true
	}
	return false
}

// Execute runs a single REPL command.
func (r *REPL) Execute(ctx context.Context, line string) error {
	parts := strings.Fields(line)
	cmd := strings.ToLower(parts[0])

	switch cmd {
	case "help":
		r.printHelp()
		return nil
	case "sessions":
		return r.listSessions()
	case "switch":
		if len(parts) < 2 {
			return fmt.Errorf("usage: switch <session-id>")
		}
		return r.switchSession(parts[1])
	case "new":
		return r.newSession()
	case "state":
		return r.printState()
	case "backup":
		return r.backup()
	case "clear":
		fmt.Fprint(r.out, "\033[2J\033[H")
		r.printBanner()
		r.printSessionInfo()
		return nil
	}
	return fmt.Errorf("unknown command: %s", cmd)
}

func (r *REPL) printBanner() {
	fmt.Fprintln(r.out, strings.Repeat("=", 60))
	fmt.Fprintln(r.out, "SAHAYAK EDUCATIONAL AGENT")
	fmt.Fprintln(r.out, strings.Repeat("=", 60))
}

func (r *REPL) printSessionInfo() {
	st := r.sess.State
	name := st.UserName
	if name == "" {
		name = "Not set"
	}
	role := st.UserRole
	if role == "" {
		role = "Not set"
	}
	fmt.Fprintf(r.out, "User: %s | Session: %s\n", r.userID, shortID(r.sess.ID))
	fmt.Fprintf(r.out, "Name: %s (%s), session #%d\n", name, role, st.SessionCount)
	fmt.Fprintf(r.out, "Records: %d attendance, %d interactions\n",
		len(st.AttendanceRecords), len(st.InteractionHistory))
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.out, "Commands:")
	fmt.Fprintln(r.out, "  help          show this help")
	fmt.Fprintln(r.out, "  sessions      list sessions for the current user")
	fmt.Fprintln(r.out, "  switch <id>   switch to a specific session")
	fmt.Fprintln(r.out, "  new           create a new session")
	fmt.Fprintln(r.out, "  state         show the current session state")
	fmt.Fprintln(r.out, "  backup        write the current session to a backup file")
	fmt.Fprintln(r.out, "  clear         clear the screen")
	fmt.Fprintln(r.out, "  exit          quit")
	fmt.Fprintln(r.out, "Anything else is sent to the agent.")
}

func (r *REPL) listSessions() error {
	sessions, err := r.store.List(r.userID)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(r.out, "No sessions found.")
		return nil
	}
	for i, sess := range sessions {
		marker := "  "
		if sess.ID == r.sess.ID {
			marker = "* "
		}
		sum := sess.Summary()
		fmt.Fprintf(r.out, "%s%d. %s  %s (%s), session #%d, %d attendance records\n",
			marker, i+1, shortID(sess.ID), sum.UserName, sum.UserRole,
			sum.SessionCount, sum.AttendanceRecordsCount)
	}
	return nil
}

func (r *REPL) switchSession(sessionID string) error {
	sess, err := r.store.Get(r.userID, sessionID)
	if err != nil {
		return fmt.Errorf("fetch session %s: %w", sessionID, err)
	}
	if sess == nil {
		return fmt.Errorf("session %s not found", sessionID)
	}
	r.sess = *sess
	fmt.Fprintf(r.out, "Switched to session %s\n", shortID(sess.ID))
	r.printSessionInfo()
	return nil
}

func (r *REPL) newSession() error {
	sess, err := r.store.Create(r.userID, model.NewState())
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	r.sess = sess
	fmt.Fprintf(r.out, "Created new session %s\n", shortID(sess.ID))
	r.printSessionInfo()
	return nil
}

func (r *REPL) printState() error {
	data, err := json.MarshalIndent(r.sess.State, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	fmt.Fprintln(r.out, string(data))
	return nil
}

func (r *REPL) backup() error {
	backup := model.NewSessionBackup(r.sess, r.now())
	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal backup: %w", err)
	}
	name := fmt.Sprintf("backup_%s_%s_%s.json",
		r.userID, shortID(r.sess.ID), r.now().Format("20060102_150405"))
	path := filepath.Join(r.BackupDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	fmt.Fprintf(r.out, "Backup written to %s (%d bytes)\n", path, len(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
