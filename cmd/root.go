package cmd

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/vemikrs/mira/internal/app"
	"github.com/vemikrs/mira/internal/config"
	"github.com/vemikrs/mira/internal/conversation"
	"github.com/vemikrs/mira/internal/logger"
	"github.com/vemikrs/mira/internal/mira"
)

var (
	debugMode             bool
	quietMode             bool
	launchMode            string
	launchAppID           string
	launchScreenID        string
	version, commit, date string
)

// SetVersionInfo sets version information from ldflags
func SetVersionInfo(v, c, d string) {
	version, commit, date = v, c, d
}

var rootCmd = &cobra.Command{
	Use:   "mira",
	Short: "Terminal client for the Mira AI assistant",
	Long: `Mira is a terminal client for chatting with the Mira AI assistant.
Conversations stream in real time, support editing and resending earlier
messages, and can be navigated entirely from the keyboard.`,
	RunE:          runTUI,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", true, "Enable debug logging (on by default)")
	rootCmd.PersistentFlags().BoolVarP(&quietMode, "quiet", "q", false, "Reduce logging to info level only")
	rootCmd.Flags().StringVar(&launchMode, "mode", "", "Mode for new conversations (e.g. CONTEXT_HELP)")
	rootCmd.Flags().StringVar(&launchAppID, "app-id", "", "App context for CONTEXT_HELP conversations")
	rootCmd.Flags().StringVar(&launchScreenID, "screen-id", "", "Screen context for CONTEXT_HELP conversations")
}

func initConfig() {
	if quietMode {
		logger.SetDebug(false)
	} else if debugMode {
		logger.SetDebug(true)
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(versionTemplate())
	return rootCmd.Execute()
}

func versionTemplate() string {
	if commit != "none" && commit != "" {
		return fmt.Sprintf("mira %s\n  commit: %s\n  built:  %s\n", version, commit, date)
	}
	return fmt.Sprintf("mira %s\n", version)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	defer logger.Close()

	client := mira.NewClient(cfg.GetServerURL(), cfg.GetAPIToken())
	m := app.New(cfg, client, version)
	if launchMode != "" || launchAppID != "" || launchScreenID != "" {
		var cctx *conversation.Context
		if launchAppID != "" || launchScreenID != "" {
			cctx = &conversation.Context{AppID: launchAppID, ScreenID: launchScreenID}
		}
		m = m.WithLaunch(conversation.Mode(launchMode), cctx)
	}
	defer m.Close()
	p := tea.NewProgram(m)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running app: %w", err)
	}
	return nil
}
