package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to the given path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to legalai! Let's configure your deployment.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"openai", "anthropic", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)

	// 2. Model.
	modelPrompt := promptui.Prompt{
		Label:   "Model",
		Default: defaultModelFor(cfg.Provider),
	}
	model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	cfg.Model = model

	// 3. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory (indexes, uploads, database)",
		Default: "data",
	}
	dataDir, err := dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	cfg.DataDir = dataDir

	// 4. Listen port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("must be a port number")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	// 5. Optional S3 mirror for tenant indexes.
	s3Prompt := promptui.Select{
		Label: "Mirror tenant indexes to S3?",
		Items: []string{"no", "yes"},
	}
	s3Idx, _, err := s3Prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("s3 selection: %w", err)
	}
	if s3Idx == 1 {
		bucketPrompt := promptui.Prompt{Label: "S3 bucket"}
		bucket, err := bucketPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("s3 bucket: %w", err)
		}
		cfg.S3.Enabled = true
		cfg.S3.Bucket = bucket
	}

	if env := APIKeyEnvVar(cfg.Provider); env != "" && os.Getenv(env) == "" {
		fmt.Printf("\nNote: %s is not set; set it before starting the server.\n", env)
	}

	if err := cfg.Save(path); err != nil {
		return nil, err
	}
	fmt.Printf("\nConfiguration written to %s\n", path)

	return cfg, nil
}

func defaultModelFor(p ProviderType) string {
	switch p {
	case ProviderAnthropic:
		return "claude-sonnet-4-5-20250929"
	case ProviderOllama:
		return "llama3"
	default:
		return "gpt-4o"
	}
}
