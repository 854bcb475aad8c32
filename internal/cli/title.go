package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harun/sessionhooks/pkg/llm"
	"github.com/harun/sessionhooks/pkg/titler"
)

var titleTimeout time.Duration

var titleCmd = &cobra.Command{
	Use:   "title [text]",
	Short: "Generate a session title with a model",
	Long: `Generate a session title for a message the way the session-title plugin
does: the first provider with credentials is asked for a title, and pull
request references are used when no model answers. The message is read from
the arguments, or from stdin when none are given.`,
	RunE: runTitle,
}

func init() {
	titleCmd.Flags().DurationVar(&titleTimeout, "timeout", 30*time.Second, "model request timeout")
	rootCmd.AddCommand(titleCmd)
}

func runTitle(cmd *cobra.Command, args []string) error {
	message, err := readMessage(cmd, args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	settings := cfg.Plugins.SessionTitle
	creds, err := llm.NewCredentials(llm.CredentialsConfig{
		Profiles: cfg.AI.Profiles,
		AuthFile: settings.AuthFile,
	})
	if err != nil {
		return err
	}

	selector := llm.NewSelector(creds, settings.ProviderPriority, settings.Models, nil)
	generator := titler.NewGenerator(selector, settings.MaxMessageChars, settings.MaxTokens)

	ctx, cancel := context.WithTimeout(cmd.Context(), titleTimeout)
	defer cancel()

	result := generator.Generate(ctx, message)
	if result.Source == titler.SourceNone {
		return fmt.Errorf("no title generated: %w", result.Err)
	}
	if result.Err != nil {
		log.Warn().Err(result.Err).Msg("Model unavailable, using fallback title")
	}
	log.Debug().Str("source", result.Source).Msg("Title generated")

	fmt.Fprintln(cmd.OutOrStdout(), result.Title)
	return nil
}
