// Package config loads and validates the YAML configuration documents.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default locations, relative to the working directory.
const (
	RedditConfigFilename = "config/reddit_config.yaml"
	OpenAIConfigFilename = "config/openai_config.yaml"
)

const defaultUserAgent = "Regent"

// ErrMissingRefreshToken indicates the Reddit config has no refresh token yet
// and the OAuth bootstrap has to run first.
var ErrMissingRefreshToken = errors.New("no reddit refresh token in config")

// RedditConfig holds the Reddit app credentials.
type RedditConfig struct {
	ClientID     string `yaml:"client_id" json:"client_id" jsonschema:"required,description=The client id of the Reddit app"`
	ClientSecret string `yaml:"client_secret" json:"client_secret" jsonschema:"required,description=The client secret of the Reddit app"`
	RefreshToken string `yaml:"refresh_token" json:"refresh_token,omitempty" jsonschema:"description=The refresh token of the Reddit app"`
	UserAgent    string `yaml:"user_agent" json:"user_agent,omitempty" jsonschema:"description=The user agent sent with Reddit API requests"`
}

// OpenAIConfig holds the OpenAI credentials and model selection.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key" json:"api_key" jsonschema:"required,description=The API key for the OpenAI API"`
	ModelID string `yaml:"model_id" json:"model_id" jsonschema:"required,description=The ID of the OpenAI model to use"`
}

// AgentConfig is the agent schema document given on the command line.
type AgentConfig struct {
	Name                       string   `yaml:"name" json:"name" jsonschema:"required,description=The name of the agent"`
	AgentDescription           string   `yaml:"agent_description" json:"agent_description" jsonschema:"required,description=A description of the agent"`
	AgentInstructions          string   `yaml:"agent_instructions" json:"agent_instructions" jsonschema:"required,description=Behavioral instructions included in the system prompt"`
	ActiveOnSubreddits         []string `yaml:"active_on_subreddits" json:"active_on_subreddits" jsonschema:"required,minItems=1,description=The subreddits the agent is active on"`
	MaxPostAgeForReplyingHours int      `yaml:"max_post_age_for_replying_hours" json:"max_post_age_for_replying_hours,omitempty" jsonschema:"description=The maximum age of a post in hours that the agent will reply to"`
	MinimumTimeBetweenPostsHrs int      `yaml:"minimum_time_between_posts_hours" json:"minimum_time_between_posts_hours,omitempty" jsonschema:"description=The minimum time since the agent's last post in hours before it will make another"`
	MaxHistoryLength           int      `yaml:"max_history_length" json:"max_history_length,omitempty" jsonschema:"description=How many history notes are kept in the agent state"`
	MaxCommentTreeSize         int      `yaml:"max_comment_tree_size" json:"max_comment_tree_size,omitempty" jsonschema:"description=Comment tree size cap used when rendering post events"`
}

func loadYAML(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file %s not found: create it by copying %s.example and filling in the values", path, path)
		}
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// LoadReddit reads the Reddit config from path, applying the user agent
// default and the REDDIT_CLIENT_SECRET environment override.
//
// A missing refresh token is not an error here; RequireRefreshToken gates the
// agent loop on it.
func LoadReddit(path string) (*RedditConfig, error) {
	cfg := &RedditConfig{}
	if err := loadYAML(path, cfg); err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(os.Getenv("REDDIT_CLIENT_SECRET")); v != "" {
		cfg.ClientSecret = v
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, fmt.Errorf("%s: client_id is required", path)
	}
	if strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, fmt.Errorf("%s: client_secret is required", path)
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return cfg, nil
}

// RequireRefreshToken returns ErrMissingRefreshToken when the OAuth bootstrap
// has not run yet.
func (c *RedditConfig) RequireRefreshToken() error {
	if strings.TrimSpace(c.RefreshToken) == "" {
		return fmt.Errorf("%w: run regent-auth to generate one and add it to %s", ErrMissingRefreshToken, RedditConfigFilename)
	}
	return nil
}

// LoadOpenAI reads the OpenAI config from path, applying the OPENAI_API_KEY
// environment override.
func LoadOpenAI(path string) (*OpenAIConfig, error) {
	cfg := &OpenAIConfig{}
	if err := loadYAML(path, cfg); err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		cfg.APIKey = v
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%s: api_key is required", path)
	}
	if strings.TrimSpace(cfg.ModelID) == "" {
		return nil, fmt.Errorf("%s: model_id is required", path)
	}
	return cfg, nil
}

// LoadAgent reads the agent schema document from path and applies defaults.
func LoadAgent(path string) (*AgentConfig, error) {
	cfg := &AgentConfig{}
	if err := loadYAML(path, cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, fmt.Errorf("%s: name is required", path)
	}
	if strings.TrimSpace(cfg.AgentInstructions) == "" {
		return nil, fmt.Errorf("%s: agent_instructions is required", path)
	}

	subreddits := make([]string, 0, len(cfg.ActiveOnSubreddits))
	for _, sub := range cfg.ActiveOnSubreddits {
		if s := CanonicalSubredditName(sub); s != "" {
			subreddits = append(subreddits, s)
		}
	}
	cfg.ActiveOnSubreddits = subreddits
	if len(cfg.ActiveOnSubreddits) == 0 {
		return nil, fmt.Errorf("%s: active_on_subreddits needs at least one entry", path)
	}

	if cfg.MaxPostAgeForReplyingHours <= 0 {
		cfg.MaxPostAgeForReplyingHours = 24
	}
	if cfg.MinimumTimeBetweenPostsHrs <= 0 {
		cfg.MinimumTimeBetweenPostsHrs = 1
	}
	if cfg.MaxHistoryLength <= 0 {
		cfg.MaxHistoryLength = 10
	}
	if cfg.MaxCommentTreeSize <= 0 {
		cfg.MaxCommentTreeSize = 20
	}
	return cfg, nil
}

// CanonicalSubredditName lowercases and strips an optional r/ prefix.
func CanonicalSubredditName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimPrefix(name, "r/")
}
