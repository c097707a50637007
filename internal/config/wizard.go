package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .meshmap.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to meshmap! Let's configure your workspace.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Database path.
	dbPrompt := promptui.Prompt{
		Label:   "SQLite database path",
		Default: cfg.DBPath,
	}
	dbPath, err := dbPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("db path: %w", err)
	}
	cfg.DBPath = dbPath

	// 2. API port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP API port",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	// 3. Repositories to scan.
	for {
		namePrompt := promptui.Prompt{
			Label: "Repository full name (owner/name, blank to finish)",
		}
		fullName, err := namePrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("repo name: %w", err)
		}
		fullName = strings.TrimSpace(fullName)
		if fullName == "" {
			break
		}
		if !strings.Contains(fullName, "/") {
			fmt.Println("Expected owner/name form, try again.")
			continue
		}

		pathPrompt := promptui.Prompt{
			Label:   fmt.Sprintf("Local checkout path for %s", fullName),
			Default: ".",
		}
		path, err := pathPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("repo path: %w", err)
		}

		branchPrompt := promptui.Prompt{
			Label:   "Branch",
			Default: "main",
		}
		branch, err := branchPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("repo branch: %w", err)
		}

		cfg.Repos = append(cfg.Repos, RepoTarget{
			FullName: fullName,
			Path:     path,
			Branch:   branch,
		})
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Save(".meshmap.yml"); err != nil {
		return nil, err
	}
	fmt.Println("\nConfiguration saved to .meshmap.yml")

	return cfg, nil
}
