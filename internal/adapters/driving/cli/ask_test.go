package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func sampleAnswer() *domain.Answer {
	return &domain.Answer{
		RequestID:       "req-1",
		State:           domain.StateDone,
		Text:            "The actuator shall be red on a yellow background.",
		Reasoning:       "ISO 13850 covers emergency stop colours.",
		Confidence:      82,
		ConfidenceLevel: domain.ConfidenceHigh,
		Sources: []domain.AnswerSource{
			{ID: "iso13850.md-chunk-1", Source: "iso13850.md", Similarity: 0.87, Preview: "The actuator shall be red..."},
		},
		Diagnostics: domain.AnswerDiagnostics{
			GenerationModel:  "qwen2:0.5b",
			Backend:          "ollama",
			ElapsedFormatted: "1.4s",
		},
	}
}

func TestAskCmd_Use(t *testing.T) {
	assert.Equal(t, "ask [question]", askCmd.Use)
	assert.Equal(t, "Ask a question about your documents", askCmd.Short)
}

func TestAskCmd_HasFlags(t *testing.T) {
	for _, name := range []string{"image", "model", "show-reasoning", "json"} {
		assert.NotNil(t, askCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "m", askCmd.Flags().Lookup("model").Shorthand)
}

func TestAskCmd_PrintsAnswer(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.assistant.answer = sampleAnswer()

	out, err := executeCommand(t, "ask", "What", "colour", "is", "an", "e-stop?")

	require.NoError(t, err)
	assert.Equal(t, []string{"What colour is an e-stop?"}, ts.assistant.questions)
	assert.Contains(t, out, "The actuator shall be red on a yellow background.")
	assert.Contains(t, out, "Confidence: 82% (high)")
	assert.Contains(t, out, "[1] iso13850.md (0.87)")
	assert.Contains(t, out, "qwen2:0.5b via ollama in 1.4s")
	assert.NotContains(t, out, "Reasoning")
}

func TestAskCmd_ShowReasoning(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.assistant.answer = sampleAnswer()

	out, err := executeCommand(t, "ask", "--show-reasoning", "e-stop colour?")

	require.NoError(t, err)
	assert.Contains(t, out, "Reasoning")
	assert.Contains(t, out, "ISO 13850 covers emergency stop colours.")
	assert.Less(t, strings.Index(out, "Reasoning"), strings.Index(out, "The actuator"))
}

func TestAskCmd_JSON(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.assistant.answer = sampleAnswer()

	out, err := executeCommand(t, "ask", "--json", "e-stop colour?")

	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "The actuator shall be red on a yellow background.", got["answer"])
	assert.Equal(t, "done", got["state"])
	assert.NotContains(t, got, "reasoning")
}

func TestAskCmd_JSONWithReasoning(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.assistant.answer = sampleAnswer()

	out, err := executeCommand(t, "ask", "--json", "--show-reasoning", "e-stop colour?")

	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "ISO 13850 covers emergency stop colours.", got["reasoning"])
}

func TestAskCmd_Refusal(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.assistant.answer = &domain.Answer{
		State:           domain.StateRefused,
		Text:            domain.RefusalMessage,
		Confidence:      12,
		ConfidenceLevel: domain.ConfidenceLow,
	}

	out, err := executeCommand(t, "ask", "what is the weather?")

	require.NoError(t, err)
	assert.Contains(t, out, "not confident enough")
	assert.Contains(t, out, "Confidence: 12% (low)")
}

func TestAskCmd_Error(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.assistant.err = domain.ErrEmbeddingUnavailable

	_, err := executeCommand(t, "ask", "anything")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Contains(t, err.Error(), domain.MessageEmbedding)
}

func TestAskCmd_Canceled(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.assistant.err = domain.ErrCanceled

	out, err := executeCommand(t, "ask", "anything")

	require.NoError(t, err)
	assert.Contains(t, out, domain.MessageCanceled)
}

func TestAskCmd_Image(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	img := filepath.Join(t.TempDir(), "label.png")
	require.NoError(t, os.WriteFile(img, []byte("\x89PNG"), 0600))

	_, err := executeCommand(t, "ask", "--image", img, "--model", "llava", "what does the label say?")

	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), ts.assistant.lastReq.Image)
	assert.Equal(t, "llava", ts.assistant.lastReq.Model)
}

func TestAskCmd_MissingImage(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand(t, "ask", "--image", filepath.Join(t.TempDir(), "absent.png"), "q")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "read image")
	assert.Empty(t, ts.assistant.questions)
}

func TestAskCmd_Interactive(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("first question\n\n  \nsecond question\n"))
	out, err := executeCommand(t, "ask")

	require.NoError(t, err)
	assert.Equal(t, []string{"first question", "second question"}, ts.assistant.questions)
	assert.Equal(t, 2, strings.Count(out, "Confidence:"))
}

func TestAskCmd_InteractiveKeepsGoingAfterError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.assistant.err = domain.ErrStoreNotFound

	rootCmd.SetIn(strings.NewReader("one\ntwo\n"))
	out, err := executeCommand(t, "ask")

	require.NoError(t, err)
	assert.Len(t, ts.assistant.questions, 2)
	assert.Equal(t, 2, strings.Count(out, domain.MessageNotReady))
}

func TestAskCmd_InteractiveNewQuestionCancelsPending(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.assistant.answer = sampleAnswer()
	ts.assistant.wait = 300 * time.Millisecond

	rootCmd.SetIn(strings.NewReader("first\nsecond\n"))
	out, err := executeCommand(t, "ask")

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, ts.assistant.questions)
	assert.Equal(t, []bool{true, false}, ts.assistant.canceled)
	assert.Contains(t, out, domain.MessageCanceled)
	assert.Equal(t, 1, strings.Count(out, "Confidence:"))
}

func TestAskCmd_InteractiveEOFKeepsPendingAnswer(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.assistant.answer = sampleAnswer()
	ts.assistant.wait = 50 * time.Millisecond

	rootCmd.SetIn(strings.NewReader("only question\n"))
	out, err := executeCommand(t, "ask")

	require.NoError(t, err)
	assert.Equal(t, []bool{false}, ts.assistant.canceled)
	assert.Contains(t, out, "Confidence: 82% (high)")
	assert.NotContains(t, out, domain.MessageCanceled)
}

func TestOutputAnswer_Fallback(t *testing.T) {
	answer := sampleAnswer()
	answer.Diagnostics.FellBack = true
	buf := new(bytes.Buffer)

	outputAnswer(buf, answer, plainPalette())

	assert.Contains(t, buf.String(), "(fallback)")
}

func TestPalette_Confidence(t *testing.T) {
	p := colourPalette()
	assert.Equal(t, p.High, p.Confidence(domain.ConfidenceHigh))
	assert.Equal(t, p.Medium, p.Confidence(domain.ConfidenceMedium))
	assert.Equal(t, p.Medium, p.Confidence(domain.ConfidenceMediumLow))
	assert.Equal(t, p.Low, p.Confidence(domain.ConfidenceLow))
}

func TestPaletteFor_NonTerminal(t *testing.T) {
	p := paletteFor(new(bytes.Buffer))
	assert.Equal(t, "82% (high)", p.High.Render("82% (high)"))
}
