// Package main implements the qaengine CLI: the authoring and host-side
// tooling layered on top of the pure engine package (spec.md §6's "CLI
// generator" substrate).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/qaengine/engine"
	"github.com/c360studio/qaengine/internal/hostconfig"
	"github.com/c360studio/qaengine/internal/hostmetrics"
	"github.com/c360studio/qaengine/spec"
)

// Build information (set via ldflags).
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	loader := hostconfig.NewLoader(logger)

	rootCmd := &cobra.Command{
		Use:     "qaengine",
		Short:   "Deterministic QA/form runtime engine CLI",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to qaengine.yaml (default: layered user/project discovery)")

	loadConfig := func() (*hostconfig.Config, error) {
		if configPath != "" {
			return hostconfig.LoadFromFile(configPath)
		}
		return loader.Load()
	}

	rootCmd.AddCommand(
		newSpecCmd(),
		newFlowCmd(),
		newRenderCmd(loadConfig),
		newPlanCmd(loadConfig),
		newGenerateCmd(loadConfig),
		newWatchCmd(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

// loadFormDoc reads an authoring document, accepting either JSON or YAML
// (selected by file extension), and returns it re-encoded as JSON so it can
// flow straight into engine.ParseConfigEnvelope/LoadForm or a direct
// json.Unmarshal into spec.QAFlowSpec.
func loadFormDoc(path string) (json.RawMessage, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		var generic any
		if err := yaml.Unmarshal(raw, &generic); err != nil {
			return nil, fmt.Errorf("parse yaml %s: %w", path, err)
		}
		normalized, err := json.Marshal(generic)
		if err != nil {
			return nil, fmt.Errorf("normalize %s: %w", path, err)
		}
		return normalized, nil
	default:
		return raw, nil
	}
}

func newSpecCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "spec",
		Short: "Form spec authoring commands",
	}
	lint := &cobra.Command{
		Use:   "lint <form-file>",
		Short: "Validate a form spec's structure and report duplicate question ids",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := loadFormDoc(args[0])
			if err != nil {
				return err
			}
			e := engine.New(engine.Defaults{})
			formID, err := e.LoadForm(raw)
			if err != nil {
				return fmt.Errorf("spec invalid: %w", err)
			}
			fmt.Printf("ok: %s loaded %d question(s)\n", formID, questionCount(e, formID))
			return nil
		},
	}
	lint.Flags().StringVar(&format, "format", "auto", "accepted but not consulted: the input format is chosen by file extension (.yaml/.yml as YAML, anything else as JSON)")
	cmd.AddCommand(lint)
	return cmd
}

func questionCount(e *engine.Engine, formID string) int {
	fs, err := e.GetFormSpec(formID)
	if err != nil {
		return 0
	}
	return len(fs.Questions)
}

func newFlowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Wizard flow (QAFlowSpec) authoring commands",
	}
	validateCmd := &cobra.Command{
		Use:   "validate <flow-file>",
		Short: "Validate a qaflow graph and report unreachable steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := loadFormDoc(args[0])
			if err != nil {
				return err
			}
			var flow spec.QAFlowSpec
			if err := json.Unmarshal(raw, &flow); err != nil {
				return fmt.Errorf("decode qaflow: %w", err)
			}
			if err := flow.Validate(); err != nil {
				return err
			}
			fmt.Println("ok: flow is structurally valid")
			if unreached := flow.Unreachable(); len(unreached) > 0 {
				fmt.Printf("warning: %d unreachable step(s): %v\n", len(unreached), unreached)
			}
			return nil
		},
	}
	cmd.AddCommand(validateCmd)
	return cmd
}

func loadAnswers(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read answers file: %w", err)
	}
	var answers map[string]any
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("decode answers file: %w", err)
	}
	return answers, nil
}

func loadEngineWithForm(formPath string, cfg *hostconfig.Config) (*engine.Engine, string, error) {
	raw, err := loadFormDoc(formPath)
	if err != nil {
		return nil, "", err
	}
	e := engine.New(engine.Defaults{
		VisibilityOnMissing: cfg.InteractiveVisibility,
		UnknownFields:       cfg.UnknownFields,
	})
	formID, err := e.LoadForm(raw)
	if err != nil {
		return nil, "", err
	}
	return e, formID, nil
}

func newRenderCmd(loadConfig func() (*hostconfig.Config, error)) *cobra.Command {
	var answersPath, locale, target string
	cmd := &cobra.Command{
		Use:   "render <form-file>",
		Short: "Render a form's next-question view as text, json_ui, or card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			e, formID, err := loadEngineWithForm(args[0], cfg)
			if err != nil {
				return err
			}
			answers, err := loadAnswers(answersPath)
			if err != nil {
				return err
			}
			if locale == "" {
				locale = cfg.DefaultLocale
			}
			ctx := spec.Context{Answers: answers, Locale: locale}

			p, err := e.PlanNext(formID, ctx)
			if err != nil {
				return err
			}

			out, err := e.Render(formID, ctx, p.Status, p.NextQuestionID, nil, engine.RenderTarget(target))
			if err != nil {
				return err
			}
			return printRenderOutput(out)
		},
	}
	cmd.Flags().StringVar(&answersPath, "answers", "", "path to a JSON file of current answers")
	cmd.Flags().StringVar(&locale, "locale", "", "locale override (default: config default_locale)")
	cmd.Flags().StringVar(&target, "target", "text", "render target: text, json_ui, card")
	return cmd
}

func printRenderOutput(out engine.RenderOutput) error {
	switch out.Target {
	case engine.RenderText:
		fmt.Println(out.Text)
	case engine.RenderJSONUI:
		b, err := json.MarshalIndent(out.JSONUI, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
	case engine.RenderCard:
		b, err := json.MarshalIndent(out.Card, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
	}
	return nil
}

func newPlanCmd(loadConfig func() (*hostconfig.Config, error)) *cobra.Command {
	var answersPath, questionID, valueRaw string
	cmd := &cobra.Command{
		Use:   "plan <next|submit-patch|submit-all> <form-file>",
		Short: "Run a planner and print the resulting canonical Plan as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, formPath := args[0], args[1]

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			e, formID, err := loadEngineWithForm(formPath, cfg)
			if err != nil {
				return err
			}
			answers, err := loadAnswers(answersPath)
			if err != nil {
				return err
			}
			ctx := spec.Context{Answers: answers, Locale: cfg.DefaultLocale}

			metrics := hostmetrics.NewRecorder()
			var p spec.Plan
			switch mode {
			case "next":
				p, err = e.PlanNext(formID, ctx)
			case "submit-patch":
				if questionID == "" {
					return fmt.Errorf("--question is required for submit-patch")
				}
				var value any
				if err := json.Unmarshal([]byte(valueRaw), &value); err != nil {
					value = valueRaw
				}
				p, err = e.PlanSubmitPatch(formID, ctx, questionID, value)
			case "submit-all":
				p, err = e.PlanSubmitAll(formID, ctx)
			default:
				return fmt.Errorf("unknown plan mode %q (want next, submit-patch, or submit-all)", mode)
			}
			if err != nil {
				return err
			}
			metrics.ObservePlan(p.Mode, p.Status)

			b, err := json.MarshalIndent(p, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		},
	}
	cmd.Flags().StringVar(&answersPath, "answers", "", "path to a JSON file of current answers")
	cmd.Flags().StringVar(&questionID, "question", "", "question id (submit-patch only)")
	cmd.Flags().StringVar(&valueRaw, "value", "", "JSON-encoded value (submit-patch only)")
	return cmd
}

func newGenerateCmd(loadConfig func() (*hostconfig.Config, error)) *cobra.Command {
	var flowPath, outDir string
	var force bool
	cmd := &cobra.Command{
		Use:   "generate <form-file>",
		Short: "Generate the canonical forms/flows/examples/schemas bundle for a form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			e, formID, err := loadEngineWithForm(args[0], cfg)
			if err != nil {
				return err
			}

			var flow *spec.QAFlowSpec
			if flowPath != "" {
				raw, err := loadFormDoc(flowPath)
				if err != nil {
					return err
				}
				flow = &spec.QAFlowSpec{}
				if err := json.Unmarshal(raw, flow); err != nil {
					return fmt.Errorf("decode qaflow: %w", err)
				}
			}

			event, err := e.GenerateBundle(formID, flow)
			if err != nil {
				return err
			}

			if outDir == "" {
				b, err := json.MarshalIndent(event, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(b))
				return nil
			}

			bundleCfg := cfg.Bundle
			bundleCfg.Force = bundleCfg.Force || force
			if err := writeBundle(&bundleCfg, outDir, event); err != nil {
				return err
			}
			fmt.Printf("wrote %d file(s) under %s\n", len(event.Files), filepath.Join(outDir, event.DirName))
			return nil
		},
	}
	cmd.Flags().StringVar(&flowPath, "flow", "", "optional qaflow file to include in the bundle")
	cmd.Flags().StringVar(&outDir, "out", "", "write the bundle to disk under this directory (default: print the event as JSON)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	return cmd
}

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <form-file>",
		Short: "Re-lint a form spec file on every save",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}
			defer watcher.Close()

			if err := watcher.Add(filepath.Dir(path)); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}

			lint := func() {
				raw, err := loadFormDoc(path)
				if err != nil {
					fmt.Fprintf(os.Stderr, "read error: %v\n", err)
					return
				}
				e := engine.New(engine.Defaults{})
				formID, err := e.LoadForm(raw)
				if err != nil {
					fmt.Fprintf(os.Stderr, "invalid: %v\n", err)
					return
				}
				fmt.Printf("ok: %s loaded %d question(s)\n", formID, questionCount(e, formID))
			}
			lint()

			ctx := cmd.Context()
			for {
				select {
				case <-ctx.Done():
					return nil
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if filepath.Clean(event.Name) != filepath.Clean(path) {
						continue
					}
					if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
						lint()
					}
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
				}
			}
		},
	}
	return cmd
}
