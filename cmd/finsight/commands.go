package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mkovalev/finsight/internal/agent"
	"github.com/mkovalev/finsight/internal/config"
	"github.com/mkovalev/finsight/internal/extract"
	"github.com/mkovalev/finsight/internal/ledger"
	"github.com/mkovalev/finsight/internal/orchestrator"
	"github.com/mkovalev/finsight/internal/provider"
	"github.com/mkovalev/finsight/internal/report"
	"github.com/mkovalev/finsight/internal/specialized"
)

// buildOrchestrator wires both pipeline variants to one provider client
// and a shared ledger service.
func buildOrchestrator(cfg config.Config) *orchestrator.Orchestrator {
	client := provider.New(cfg.Provider.BaseURL, cfg.Provider.APIKey, cfg.Provider.ChatModel, cfg.Provider.EmbedModel)
	ledgers := ledger.NewService()

	return orchestrator.New(
		cfg.Modes.Default,
		cfg.EnabledModes(),
		agent.New(client, client, ledgers),
		specialized.New(client, client, ledgers),
	)
}

// --- analyze ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Generate a structured analysis report from a financial document",
	Long: `Generate a structured analysis report from a financial document.

Examples:
  finsight analyze report.pdf --company "Acme Corp"
  finsight analyze 10k.txt --company "Acme Corp" --mode specialized-agent`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		company, _ := cmd.Flags().GetString("company")
		mode, _ := cmd.Flags().GetString("mode")
		if company == "" {
			return fmt.Errorf("--company is required")
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		initLogging(cfg)

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}

		printStep("Extracting text...")
		text, err := extract.Text(data)
		if err != nil {
			return fmt.Errorf("extracting text: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		printStep("Generating report...")
		result, err := buildOrchestrator(cfg).GenerateReport(ctx, mode, text, company)
		if err != nil {
			return err
		}
		if result.Fallback {
			printWarning("mode %s failed (%s); used %s instead", result.OriginalMode, result.FallbackReason, result.Mode)
		}

		for _, key := range report.SectionOrder {
			printHeading(report.Titles[key])
			fmt.Fprintln(os.Stdout, result.Sections.Get(key))
			fmt.Fprintln(os.Stdout)
		}
		printSuccess("Report generated with mode %s", result.Mode)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().String("company", "", "company the document is about (required)")
	analyzeCmd.Flags().String("mode", "", "pipeline mode (default from config)")
}

// --- ask ---

var askCmd = &cobra.Command{
	Use:   "ask <document-id> <question>",
	Short: "Ask a question about a document analyzed by the running server",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("mode")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post("/v1/questions", map[string]string{
			"documentId": args[0],
			"question":   args[1],
			"mode":       mode,
		})
		if err != nil {
			return err
		}

		var result struct {
			Answer       string `json:"answer"`
			Mode         string `json:"mode"`
			Fallback     bool   `json:"fallback"`
			OriginalMode string `json:"originalMode"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if result.Fallback {
			printWarning("mode %s failed; used %s instead", result.OriginalMode, result.Mode)
		}
		fmt.Fprintln(os.Stdout, result.Answer)
		return nil
	},
}

func init() {
	askCmd.Flags().String("mode", "", "pipeline mode (default from config)")
}

// --- modes ---

var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "List available generation pipeline modes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, m := range buildOrchestrator(cfg).Modes() {
			status := "disabled"
			if m.Enabled {
				status = "enabled"
			}
			fmt.Fprintf(os.Stdout, "  %s (%s) — %s\n", colorize(colorBold, m.Mode), status, m.Description)
		}
		return nil
	},
}

func decodeJSON(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
