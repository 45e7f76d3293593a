package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"council/internal/config"
	"council/internal/council"
	"council/internal/event"
	"council/internal/logging"
	"council/internal/provider"
	"council/internal/tui"
)

var (
	askPlain    bool
	askChairman string
	askMembers  []string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Run one deliberation and print the council's answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askPlain, "plain", false, "print progress as plain lines instead of the interactive display")
	askCmd.Flags().StringVar(&askChairman, "chairman", "", "override the configured chairman")
	askCmd.Flags().StringSliceVar(&askMembers, "member", nil, "override the configured council members")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(askMembers) > 0 {
		cfg.Council.Members = askMembers
	}
	if askChairman != "" {
		cfg.Council.Chairman = askChairman
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	orch := newOrchestrator(cfg, logger)
	req := council.DeliberationRequest{
		Prompt:       strings.Join(args, " "),
		Participants: cfg.Council.Members,
		Chairman:     cfg.Council.Chairman,
	}

	var result *council.DeliberationResult
	if askPlain {
		result, err = runPlain(cmd, orch, req, logger)
	} else {
		app := tui.New(req.Prompt, req.Chairman)
		result, err = app.Run(cmd.Context(), func(ctx context.Context, sink event.Sink) (*council.DeliberationResult, error) {
			return orch.Deliberate(ctx, req, sink)
		})
	}
	if err != nil {
		return err
	}

	if !askPlain {
		// The interactive display is torn down on exit; echo the final
		// answer so it survives in the scrollback.
		fmt.Fprintln(cmd.OutOrStdout(), result.Synthesis.Content)
	}
	return nil
}

// runPlain drives the deliberation through an event bus with two
// subscribers: a line renderer and a debug logger.
func runPlain(cmd *cobra.Command, orch *council.Orchestrator, req council.DeliberationRequest, logger *logging.Logger) (*council.DeliberationResult, error) {
	bus := event.NewBus()
	bus.SubscribeAll(func(e event.Event) {
		logger.Debug("event", "type", e.EventType())
	})
	registerPlainRenderer(bus, cmd.OutOrStdout())

	return orch.Deliberate(cmd.Context(), req, bus)
}

func newClient(cfg *config.Config, logger *logging.Logger) *provider.OpenRouterClient {
	return provider.NewOpenRouterClient(provider.Config{
		BaseURL:  cfg.Provider.BaseURL,
		APIKey:   cfg.Provider.APIKey,
		Timeout:  cfg.Provider.Timeout(),
		SiteURL:  cfg.Provider.SiteURL,
		SiteName: cfg.Provider.SiteName,
		Logger:   logger,
	})
}

func newOrchestrator(cfg *config.Config, logger *logging.Logger) *council.Orchestrator {
	return council.NewOrchestrator(council.OrchestratorConfig{
		Client:             newClient(cfg, logger),
		Logger:             logger,
		MaxConcurrent:      cfg.Council.MaxConcurrent,
		ConsensusThreshold: cfg.Council.ConsensusThreshold,
		StreamSynthesis:    cfg.Council.StreamSynthesis,
	})
}
