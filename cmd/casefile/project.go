package main

import (
	"go.uber.org/zap"

	"casefile/internal/config"
	"casefile/internal/story"
)

type project struct {
	cfg   *config.ProjectConfig
	story *story.Story
	log   *zap.Logger
}

func loadProject() (*project, error) {
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return nil, err
	}
	st, err := story.LoadStory(cfg.StoryPath())
	if err != nil {
		return nil, err
	}
	log, err := cfg.Log.NewLogger()
	if err != nil {
		return nil, err
	}
	return &project{cfg: cfg, story: st, log: log}, nil
}
