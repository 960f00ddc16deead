package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/vemikrs/mira/internal/errors"
	"github.com/vemikrs/mira/internal/logger"
	"github.com/vemikrs/mira/internal/notification"
)

const exportTimeout = 60 * time.Second

// exportUserData fetches the full conversation archive from the server and
// writes it as JSON next to the user's home directory.
func (m *Model) exportUserData() tea.Cmd {
	transport := m.transport
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()

		export, err := transport.ExportUserData(ctx)
		if err != nil {
			return ExportDoneMsg{Err: err}
		}
		export.Metadata.ConversationCount = len(export.Conversations)

		data, err := json.MarshalIndent(export, "", "  ")
		if err != nil {
			return ExportDoneMsg{Err: errors.ExportFailed(err)}
		}

		dir, err := os.UserHomeDir()
		if err != nil {
			dir = "."
		}
		path := filepath.Join(dir, fmt.Sprintf("mira-export-%s.json", time.Now().Format("20060102-150405")))
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return ExportDoneMsg{Err: errors.ExportFailed(err)}
		}
		return ExportDoneMsg{Path: path}
	}
}

func (m *Model) handleExportDone(msg ExportDoneMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		logger.Error("App: Export failed: %v", msg.Err)
		return m, nil
	}
	logger.Info("App: Exported user data to %s", msg.Path)
	if m.config.GetNotificationsEnabled() {
		path := msg.Path
		return m, func() tea.Msg {
			notification.Send("Export complete", "Saved to "+path)
			return nil
		}
	}
	return m, nil
}
