package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore serves answer prompts from user-editable .txt files, one per
// domain prompt name, falling back to the built-in text.
//
// Nothing touches disk until the first Load. The directory and any missing
// default files are written then.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.sercha-assist/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// An unreadable or empty file yields the built-in default.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	prompt, err := s.loadFromFile(name)
	if err != nil || prompt == "" {
		if def, ok := domain.DefaultPrompt(name); ok {
			return def, nil
		}
		if err == nil {
			err = fmt.Errorf("empty file")
		}
		if s.initErr != nil {
			return "", fmt.Errorf("load prompt %q: %w (init: %v)", name, err, s.initErr)
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for _, name := range domain.PromptNames() {
		path := s.path(name)
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			continue
		}
		content, _ := domain.DefaultPrompt(name)
		if err := os.WriteFile(path, []byte(content+"\n"), 0600); err != nil {
			s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
			return
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.promptDir, name+".txt")
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	var files strings.Builder
	for _, name := range domain.PromptNames() {
		files.WriteString("- `" + name + ".txt`\n")
	}

	content := `# Sercha Assist Prompts

These files hold the prompts used to build each answer request.

## Files

` + files.String() + `
## Customisation

Edit a file to change how answers are generated. Changes take effect on the
next question. Delete a file to restore its default on the next start.

## Placeholders

` + "`" + domain.PromptAnswerUser + ".txt`" + ` takes two ` + "`%s`" + ` placeholders: the
assembled context first, then the question. Keep both in that order.
`
	return os.WriteFile(path, []byte(content), 0600)
}
