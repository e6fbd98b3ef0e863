package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// LoadedPrompts holds prompt text read from files for one operation.
type LoadedPrompts struct {
	System string
	User   string
}

const globalPromptKey = "global"

func (c *Config) loadedPromptsFor(op string) LoadedPrompts {
	loaded := c.prompts[op]
	if loaded.System == "" {
		loaded.System = c.prompts[globalPromptKey].System
	}
	return loaded
}

// loadPromptsFromFiles reads every configured prompt file. All missing
// files are reported together.
func (c *Config) loadPromptsFromFiles() error {
	if err := c.validatePromptFiles(); err != nil {
		return err
	}

	c.prompts = make(map[string]LoadedPrompts)

	if path := c.AI.CustomPrompts.SystemFile; path != "" {
		content, err := loadPromptFromFile(path, "global system")
		if err != nil {
			return err
		}
		c.prompts[globalPromptKey] = LoadedPrompts{System: content}
	}

	count := 0
	for _, op := range Operations {
		prompts := c.operationSection(op).CustomPrompts
		var loaded LoadedPrompts
		if prompts.SystemFile != "" {
			content, err := loadPromptFromFile(prompts.SystemFile, op+" system")
			if err != nil {
				return err
			}
			loaded.System = content
			count++
		}
		if prompts.UserFile != "" {
			content, err := loadPromptFromFile(prompts.UserFile, op+" user")
			if err != nil {
				return err
			}
			loaded.User = content
			count++
		}
		c.prompts[op] = loaded
	}

	if count > 0 {
		log.Printf("[CONFIG] Loaded %d operation prompt file(s)", count)
	}
	return nil
}

func loadPromptFromFile(filePath, description string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path for %s prompt file '%s': %w", description, filePath, err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s prompt file '%s': %w", description, absPath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("%s prompt file '%s' is empty", description, absPath)
	}

	log.Printf("[CONFIG] Loaded %s prompt from %s (%d characters)", description, absPath, len(trimmed))
	return trimmed, nil
}

func (c *Config) validatePromptFiles() error {
	var problems []string
	check := func(path, description string) {
		if path == "" {
			return
		}
		absPath, err := filepath.Abs(path)
		if err != nil {
			problems = append(problems, fmt.Sprintf("invalid path for %s prompt: %s", description, path))
			return
		}
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			problems = append(problems, fmt.Sprintf("%s prompt file not found: %s", description, absPath))
		}
	}

	check(c.AI.CustomPrompts.SystemFile, "global system")
	for _, op := range Operations {
		prompts := c.operationSection(op).CustomPrompts
		check(prompts.SystemFile, op+" system")
		check(prompts.UserFile, op+" user")
	}

	if len(problems) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(problems, "\n"))
	}
	return nil
}
