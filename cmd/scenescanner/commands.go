package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/csheth/scenescanner/internal/document"
	"github.com/csheth/scenescanner/internal/session"
	"github.com/csheth/scenescanner/internal/transcript"
)

const pingTimeout = 5 * time.Second

func newAskCmd(opts *rootOptions) *cobra.Command {
	var file, question string
	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Upload a PDF and ask a single question without the TUI",
		Example: `  scenescanner ask --file paper.pdf --question "What dataset is used?"
  scenescanner ask -f paper.pdf -q "Summarize section 3" --model ollama`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(question) == "" {
				return errors.New("question cannot be empty")
			}
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			doc, err := document.Load(file)
			if err != nil {
				return err
			}
			if err := a.state.SelectFile(doc); err != nil {
				return errors.New(a.state.Snapshot().Error)
			}
			ctx := cmd.Context()
			if err := a.state.Upload(ctx); err != nil {
				return errors.New(a.state.Snapshot().Error)
			}
			a.state.SetQuestion(question)
			askedAt := time.Now()
			askErr := a.state.Ask(ctx)
			snap := a.state.Snapshot()

			if a.cfg.Transcript != "" {
				exchange := transcript.Exchange{
					Document:  doc.Name,
					Model:     string(snap.Model),
					SessionID: snap.SessionID,
					Question:  question,
					Answer:    snap.Answer,
					Error:     snap.Error,
					AskedAt:   askedAt,
				}
				if err := transcript.Append(a.cfg.Transcript, exchange); err != nil {
					a.log.Warn("transcript not saved", zap.Error(err))
				}
			}

			if askErr != nil {
				if snap.Error != "" {
					return errors.New(snap.Error)
				}
				return askErr
			}
			fmt.Fprintln(cmd.OutOrStdout(), snap.Answer)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "PDF document to upload")
	cmd.Flags().StringVarP(&question, "question", "q", "", "question to ask about the document")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("question")
	return cmd
}

func newModelsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models the backend can answer with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			selected := a.cfg.SelectedModel()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, model := range session.Models() {
				marker := " "
				if model == selected {
					marker = "*"
				}
				fmt.Fprintf(w, "%s %s\t%s\t%s\n", marker, model, model.DisplayName(), model.Description())
			}
			return w.Flush()
		},
	}
}

func newPingCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), pingTimeout)
			defer cancel()
			message, err := a.client.Ping(ctx)
			if err != nil {
				return fmt.Errorf("backend %s unreachable: %w", a.client.BaseURL(), err)
			}
			if message == "" {
				message = "ok"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", a.client.BaseURL(), message)
			return nil
		},
	}
}
