package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"casefile/internal/config"
)

func initCmd() *cobra.Command {
	var projectName string
	var template string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new casefile project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(projectName, template)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&template, "template", "demo", "Story template name")
	return cmd
}

func runInit(projectName, template string) error {
	cfgPath := config.DefaultFileName
	storyPath := "story.yaml"
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}
	if _, err := os.Stat(storyPath); err == nil {
		return fmt.Errorf("%s already exists", storyPath)
	}

	templatePath := filepath.Join("stories", template+".yaml")
	contents, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("reading template %s: %w", template, err)
	}

	configContents := fmt.Sprintf("project: %s\nversion: 1\n\nstory: ./%s\nusername: %s\n\ndatabase:\n  dsn: sqlite://./saves.db\n\npacing:\n  scale: 1\n\nlog:\n  level: warn\n", projectName, storyPath, config.DefaultUsername)
	if err := os.WriteFile(cfgPath, []byte(configContents), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", cfgPath, err)
	}
	if err := os.WriteFile(storyPath, contents, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", storyPath, err)
	}

	return nil
}
