package cmd

import (
	"errors"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	appName = "resumematch"
)

type Config struct {
	LLM    *LLMConfig    `mapstructure:"llm"`
	GitHub *GitHubConfig `mapstructure:"github"`
	Resume *ResumeConfig `mapstructure:"resume"`
	Report *ReportConfig `mapstructure:"report"`
	Server *ServerConfig `mapstructure:"server"`
}

type LLMConfig struct {
	// Provider is one of groq, openai or gemini.
	Provider   string        `mapstructure:"provider"`
	BaseURL    string        `mapstructure:"base-url"`
	Model      string        `mapstructure:"model"`
	APIKey     string        `mapstructure:"api-key" json:"-"`
	APIKeyFile string        `mapstructure:"api-key-file"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type GitHubConfig struct {
	APIURL    string        `mapstructure:"api-url"`
	Token     string        `mapstructure:"token" json:"-"`
	TokenFile string        `mapstructure:"token-file"`
	Exclude   []string      `mapstructure:"exclude"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type ResumeConfig struct {
	ProjectHeaders []string `mapstructure:"project-headers"`
}

type ReportConfig struct {
	SectionLimit int    `mapstructure:"section-limit"`
	Font         string `mapstructure:"font"`
	Compress     bool   `mapstructure:"compress"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	CORSOrigins     string        `mapstructure:"cors-origins"`
	RateLimitPerMin int           `mapstructure:"rate-limit-per-min"`
	MaxUploadMB     int64         `mapstructure:"max-upload-mb"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   appName,
		Short: "resumematch scores a resume against a job description and picks GitHub projects worth listing",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resumematch.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults()

	envs := map[string][]string{
		"llm.provider":      {"LLM_PROVIDER"},
		"llm.base-url":      {"LLM_BASE_URL"},
		"llm.model":         {"LLM_MODEL"},
		"llm.api-key-file":  {"LLM_API_KEY_FILE"},
		"github.token-file": {"GITHUB_TOKEN_FILE"},
		"server.addr":       {"RESUMEMATCH_ADDR"},
	}
	for key, vars := range envs {
		if err := viper.BindEnv(append([]string{key}, vars...)...); err != nil {
			log.Fatalf("binding %v environment variables: %v", vars, err)
		}
	}
}

func setDefaults() {
	viper.SetDefault("llm.provider", providerGroq)
	viper.SetDefault("llm.timeout", 60*time.Second)
	viper.SetDefault("github.timeout", 30*time.Second)
	viper.SetDefault("report.section-limit", 1000)
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.rate-limit-per-min", 30)
	viper.SetDefault("server.max-upload-mb", 5)
	viper.SetDefault("server.shutdown-timeout", 10*time.Second)
}

func initConfig() {
	// Secrets usually live in .env next to the binary; a missing file is fine.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(appName)
		viper.SetConfigType("yaml")
	}

	// The config file is optional, but a broken one is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}
	if config == nil {
		config = &Config{}
	}
	if config.LLM == nil {
		config.LLM = &LLMConfig{}
	}
	if config.GitHub == nil {
		config.GitHub = &GitHubConfig{}
	}
	if config.Resume == nil {
		config.Resume = &ResumeConfig{}
	}
	if config.Report == nil {
		config.Report = &ReportConfig{}
	}
	if config.Server == nil {
		config.Server = &ServerConfig{}
	}

	return config, nil
}
