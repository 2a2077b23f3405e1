package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/parley-dev/parley/internal/chat"
	"github.com/parley-dev/parley/internal/config"
	"github.com/parley-dev/parley/internal/negotiation"
	"github.com/parley-dev/parley/internal/persona"
	"github.com/parley-dev/parley/internal/summary"
	"github.com/parley-dev/parley/internal/webapi"
)

// scenario is the YAML document accepted by `parley run`.
type scenario struct {
	Topic           string          `yaml:"topic"`
	DurationSeconds int             `yaml:"duration_seconds"`
	Character1      persona.Profile `yaml:"character1"`
	Character2      persona.Profile `yaml:"character2"`
}

func loadScenario(path string) (*scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}

	var s scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}

	if s.Topic == "" {
		return nil, errors.New("scenario: topic is required")
	}
	if s.DurationSeconds == 0 {
		s.DurationSeconds = webapi.DefaultDurationSeconds
	}
	if err := s.Character1.Validate(); err != nil {
		return nil, fmt.Errorf("scenario: character1: %w", err)
	}
	if err := s.Character2.Validate(); err != nil {
		return nil, fmt.Errorf("scenario: character2: %w", err)
	}

	return &s, nil
}

func newRunCommand() *cobra.Command {
	var (
		output   string
		noPacing bool
	)

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a single negotiation from a scenario file and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadScenario(args[0])
			if err != nil {
				return err
			}

			creds := config.FromEnv()
			if !creds.HasCredentials() {
				return fmt.Errorf("%s is not set; export it or add it to a .env file", config.EnvPrimaryKey)
			}

			engineOpts := []negotiation.Option{}
			if noPacing {
				engineOpts = append(engineOpts, negotiation.WithPacing(0, 0))
			}

			ctx := cmd.Context()
			provider := chat.NewGeminiProvider()

			session1, err := provider.NewSession(ctx, chat.SessionConfig{
				Model:             s.Character1.Model(),
				APIKey:            creds.PrimaryKey,
				SystemInstruction: persona.BuildInstruction(s.Character1),
			})
			if err != nil {
				return fmt.Errorf("initializing session for %s: %w", s.Character1.Name, err)
			}

			session2, err := provider.NewSession(ctx, chat.SessionConfig{
				Model:             s.Character2.Model(),
				APIKey:            creds.SecondaryKey,
				SystemInstruction: persona.BuildInstruction(s.Character2),
			})
			if err != nil {
				return fmt.Errorf("initializing session for %s: %w", s.Character2.Name, err)
			}

			start := time.Now()
			engine := negotiation.New(engineOpts...)
			transcript := engine.Run(ctx,
				session1, session2,
				s.Character1.SpeakerLabel(), s.Character2.SpeakerLabel(),
				persona.OpeningPrompt(s.Character1, s.Character2.Name, s.Topic),
				time.Duration(s.DurationSeconds)*time.Second)

			summarizer := summary.New(chat.NewGeminiCompleter(creds.PrimaryKey, summary.Model))
			outcome := summarizer.Summarize(ctx, transcript, s.Topic)

			result := webapi.NegotiationResponse{
				NegotiationSummary: webapi.NegotiationSummary{
					Topic:           s.Topic,
					DurationSeconds: int(math.Round(time.Since(start).Seconds())),
					OutcomeAnalysis: outcome,
				},
				Participants: []persona.Profile{s.Character1, s.Character2},
				Transcript:   transcript,
			}

			encoded, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}

			if output != "" {
				return os.WriteFile(output, append(encoded, '\n'), 0o644)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the result JSON to a file instead of stdout")
	cmd.Flags().BoolVar(&noPacing, "no-pacing", false, "Disable the pause between turns")

	return cmd
}
