package model

import "time"

// BackupVersion identifies the backup file format.
const BackupVersion = "1.0"

// BackupAgentType tags backup files produced by this application.
const BackupAgentType = "sahayak_educational_agent"

// SessionBackup is the JSON document written by the backup command and
// the REPL backup action, and accepted by restore.
type SessionBackup struct {
	AppName         string `json:"app_name"`
	UserID          string `json:"user_id"`
	SessionID       string `json:"session_id"`
	BackupTimestamp string `json:"backup_timestamp"`
	State           *State `json:"state"`
	BackupVersion   string `json:"backup_version"`
	AgentType       string `json:"agent_type"`
}

// NewSessionBackup wraps a session in the backup envelope.
func NewSessionBackup(sess Session, now time.Time) SessionBackup {
	return SessionBackup{
		AppName:         sess.AppName,
		UserID:          sess.UserID,
		SessionID:       sess.ID,
		BackupTimestamp: now.Format(time.RFC3339),
		State:           sess.State,
		BackupVersion:   BackupVersion,
		AgentType:       BackupAgentType,
	}
}
