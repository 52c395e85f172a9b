package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-assist/internal/core/services"
)

var (
	askImage         string
	askModel         string
	askShowReasoning bool
	askJSON          bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your documents",
	Long: `Answers a question from the indexed documents.

The most relevant chunks are retrieved and scored. Below the configured
minimum confidence the assistant declines to answer. Without a question
argument, questions are read line by line from stdin; asking a new question
cancels the previous one.

Examples:
  sercha-assist ask "What colour is an emergency stop actuator?"
  sercha-assist ask --image photo.png --model llava "What does this label say?"
  sercha-assist ask --show-reasoning --json "Which standard covers stop categories?"`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askImage, "image", "", "attach an image file (vision models only)")
	askCmd.Flags().StringVarP(&askModel, "model", "m", "", "generation model overriding the configured one")
	askCmd.Flags().BoolVar(&askShowReasoning, "show-reasoning", false, "print the model's reasoning when it gives one")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	assistant, err := requireAssistant()
	if err != nil {
		return err
	}

	var image []byte
	if askImage != "" {
		image, err = os.ReadFile(askImage)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	question := strings.TrimSpace(strings.Join(args, " "))
	if question != "" {
		return askOnce(ctx, cmd, assistant, domain.QueryRequest{Question: question, Image: image, Model: askModel})
	}
	return askInteractive(ctx, cmd, assistant, image)
}

// askInteractive answers questions read line by line. A line arriving while
// an answer is pending cancels that answer and is asked next.
func askInteractive(ctx context.Context, cmd *cobra.Command, assistant driving.Asker, image []byte) error {
	session := services.NewSession(assistant)
	lines, scanErr := readQuestions(ctx, cmd.InOrStdin())

	var pending string
	for {
		if pending == "" {
			fmt.Fprint(cmd.ErrOrStderr(), "> ")
			select {
			case q, ok := <-lines:
				if !ok {
					fmt.Fprintln(cmd.ErrOrStderr())
					return scanErr()
				}
				pending = q
			case <-ctx.Done():
				return nil
			}
		}

		req := domain.QueryRequest{Question: pending, Image: image, Model: askModel}
		pending = ""
		askCtx, end := session.Begin(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			defer end()
			if err := askOnce(askCtx, cmd, assistant, req); err != nil {
				cmd.PrintErrln(err)
			}
		}()

		select {
		case <-done:
		case next, ok := <-lines:
			if !ok {
				<-done
				fmt.Fprintln(cmd.ErrOrStderr())
				return scanErr()
			}
			session.Cancel()
			<-done
			pending = next
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// readQuestions streams the non-blank lines of r. The channel is closed at
// EOF, after which the returned func reports any read error.
func readQuestions(ctx context.Context, r io.Reader) (<-chan string, func() error) {
	lines := make(chan string)
	var scanErr error
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			q := strings.TrimSpace(scanner.Text())
			if q == "" {
				continue
			}
			select {
			case lines <- q:
			case <-ctx.Done():
				return
			}
		}
		scanErr = scanner.Err()
	}()
	return lines, func() error { return scanErr }
}

func askOnce(ctx context.Context, cmd *cobra.Command, assistant driving.Asker, req domain.QueryRequest) error {
	answer, err := assistant.Query(ctx, req)
	if errors.Is(err, domain.ErrCanceled) {
		cmd.Println(domain.MessageCanceled)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s (%w)", domain.UserMessage(err), err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}
	outputAnswer(cmd.OutOrStdout(), answer, paletteFor(cmd.OutOrStdout()))
	return nil
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	out := *answer
	if !askShowReasoning {
		out.Reasoning = ""
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func outputAnswer(w io.Writer, answer *domain.Answer, p palette) {
	if askShowReasoning && answer.Reasoning != "" {
		fmt.Fprintln(w, p.Heading.Render("Reasoning"))
		fmt.Fprintln(w, p.Muted.Render(answer.Reasoning))
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, answer.Text)
	fmt.Fprintln(w)

	band := fmt.Sprintf("%d%% (%s)", answer.Confidence, answer.ConfidenceLevel)
	fmt.Fprintf(w, "Confidence: %s\n", p.Confidence(answer.ConfidenceLevel).Render(band))

	if len(answer.Sources) > 0 {
		fmt.Fprintln(w, p.Heading.Render("Sources"))
		for i, src := range answer.Sources {
			fmt.Fprintf(w, "  [%d] %s (%.2f)\n", i+1, src.Source, src.Similarity)
			fmt.Fprintf(w, "      %s\n", p.Muted.Render(src.Preview))
		}
	}

	meta := answer.Diagnostics
	if meta.GenerationModel != "" {
		line := fmt.Sprintf("%s via %s in %s", meta.GenerationModel, meta.Backend, meta.ElapsedFormatted)
		if meta.FellBack {
			line += " (fallback)"
		}
		fmt.Fprintln(w, p.Muted.Render(line))
	} else if meta.ElapsedFormatted != "" {
		fmt.Fprintln(w, p.Muted.Render(meta.ElapsedFormatted))
	}
}

// commandContext returns the command's context, or Background when
// the command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
