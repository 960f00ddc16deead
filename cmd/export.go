package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vemikrs/mira/internal/config"
	"github.com/vemikrs/mira/internal/mira"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download all conversations as JSON",
	Long: `Export fetches every conversation from the server and writes the
archive as JSON. Output goes to stdout unless -o is given.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write the archive to a file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	client := mira.NewClient(cfg.GetServerURL(), cfg.GetAPIToken())

	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()

	export, err := client.ExportUserData(ctx)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	export.Metadata.ConversationCount = len(export.Conversations)

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	data = append(data, '\n')

	if exportOutput == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(exportOutput, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", exportOutput, err)
	}
	fmt.Printf("Exported %d conversation(s) to %s\n", len(export.Conversations), exportOutput)
	return nil
}
