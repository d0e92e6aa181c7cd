package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/washp/pkg/adapter"
	"github.com/m-mizutani/washp/pkg/model"
	"github.com/m-mizutani/washp/pkg/repository"
	"github.com/m-mizutani/washp/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// config holds configuration values
type config struct {
	// Logging
	logLevel  string
	logFormat string

	// Repository
	store      string
	project    string
	database   string
	sqlitePath string

	// Identity
	identity       string
	firebaseAPIKey string
	localSecret    string

	// Image storage
	imageStore     string
	bucket         string
	minioEndpoint  string
	minioRegion    string
	minioAccessKey string
	minioSecretKey string
	minioUseSSL    bool

	// Inference
	provider         string
	openaiAPIKey     string
	openaiModel      string
	openaiBaseURL    string
	anthropicAPIKey  string
	claudeModel      string
	geminiProject    string
	geminiLocation   string
	geminiModel      string
	inferenceTimeout time.Duration

	locale      string
	sessionFile string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("WASHP_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json)",
			Value:       "console",
			Sources:     cli.EnvVars("WASHP_LOG_FORMAT"),
			Destination: &cfg.logFormat,
		},
		&cli.StringFlag{
			Name:        "store",
			Usage:       "Document store (firestore, sqlite, memory)",
			Value:       "sqlite",
			Sources:     cli.EnvVars("WASHP_STORE"),
			Destination: &cfg.store,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "sqlite-path",
			Usage:       "SQLite database file (default: washp.db in the user config directory)",
			Sources:     cli.EnvVars("WASHP_SQLITE_PATH"),
			Destination: &cfg.sqlitePath,
		},
		&cli.StringFlag{
			Name:        "identity",
			Usage:       "Identity provider (firebase, local)",
			Value:       "local",
			Sources:     cli.EnvVars("WASHP_IDENTITY"),
			Destination: &cfg.identity,
		},
		&cli.StringFlag{
			Name:        "firebase-api-key",
			Usage:       "Firebase web API key",
			Sources:     cli.EnvVars("FIREBASE_API_KEY"),
			Destination: &cfg.firebaseAPIKey,
		},
		&cli.StringFlag{
			Name:        "local-auth-secret",
			Usage:       "Secret signing ID tokens of the local identity provider",
			Sources:     cli.EnvVars("WASHP_LOCAL_AUTH_SECRET"),
			Destination: &cfg.localSecret,
		},
		&cli.StringFlag{
			Name:        "image-store",
			Usage:       "Where saved captures are uploaded (gcs, minio); inline data URIs when empty",
			Sources:     cli.EnvVars("WASHP_IMAGE_STORE"),
			Destination: &cfg.imageStore,
		},
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Bucket for saved captures",
			Sources:     cli.EnvVars("WASHP_BUCKET"),
			Destination: &cfg.bucket,
		},
		&cli.StringFlag{
			Name:        "minio-endpoint",
			Usage:       "MinIO endpoint (host:port)",
			Sources:     cli.EnvVars("MINIO_ENDPOINT"),
			Destination: &cfg.minioEndpoint,
		},
		&cli.StringFlag{
			Name:        "minio-region",
			Usage:       "MinIO region",
			Sources:     cli.EnvVars("MINIO_REGION"),
			Destination: &cfg.minioRegion,
		},
		&cli.StringFlag{
			Name:        "minio-access-key",
			Usage:       "MinIO access key",
			Sources:     cli.EnvVars("MINIO_ACCESS_KEY"),
			Destination: &cfg.minioAccessKey,
		},
		&cli.StringFlag{
			Name:        "minio-secret-key",
			Usage:       "MinIO secret key",
			Sources:     cli.EnvVars("MINIO_SECRET_KEY"),
			Destination: &cfg.minioSecretKey,
		},
		&cli.BoolFlag{
			Name:        "minio-ssl",
			Usage:       "Use TLS for MinIO",
			Sources:     cli.EnvVars("MINIO_USE_SSL"),
			Destination: &cfg.minioUseSSL,
		},
		&cli.StringFlag{
			Name:        "locale",
			Aliases:     []string{"l"},
			Usage:       "Display language (fr, en)",
			Value:       string(model.DefaultLocale),
			Sources:     cli.EnvVars("WASHP_LOCALE"),
			Destination: &cfg.locale,
		},
		&cli.StringFlag{
			Name:        "session-file",
			Usage:       "Where the signed-in session is kept (default: session.json in the user config directory)",
			Sources:     cli.EnvVars("WASHP_SESSION_FILE"),
			Destination: &cfg.sessionFile,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "provider",
			Usage:       "Inference provider (openai, gemini, claude)",
			Value:       "openai",
			Sources:     cli.EnvVars("WASHP_PROVIDER"),
			Destination: &cfg.provider,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key",
			Sources:     cli.EnvVars("OPENAI_API_KEY"),
			Destination: &cfg.openaiAPIKey,
		},
		&cli.StringFlag{
			Name:        "openai-model",
			Usage:       "OpenAI model",
			Value:       "gpt-4o",
			Sources:     cli.EnvVars("OPENAI_MODEL"),
			Destination: &cfg.openaiModel,
		},
		&cli.StringFlag{
			Name:        "openai-base-url",
			Usage:       "OpenAI compatible API base URL",
			Sources:     cli.EnvVars("OPENAI_BASE_URL"),
			Destination: &cfg.openaiBaseURL,
		},
		&cli.StringFlag{
			Name:        "anthropic-api-key",
			Usage:       "Anthropic API key",
			Sources:     cli.EnvVars("ANTHROPIC_API_KEY"),
			Destination: &cfg.anthropicAPIKey,
		},
		&cli.StringFlag{
			Name:        "claude-model",
			Usage:       "Claude model",
			Value:       "claude-sonnet-4-5",
			Sources:     cli.EnvVars("CLAUDE_MODEL"),
			Destination: &cfg.claudeModel,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model",
			Value:       "gemini-2.5-flash",
			Sources:     cli.EnvVars("GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
		&cli.DurationFlag{
			Name:        "inference-timeout",
			Usage:       "Timeout of one model call (0 for none)",
			Sources:     cli.EnvVars("WASHP_INFERENCE_TIMEOUT"),
			Destination: &cfg.inferenceTimeout,
		},
	}
}

// setupLogger installs the configured logger as default and in ctx
func (cfg *config) setupLogger(ctx context.Context) (context.Context, error) {
	format, err := logging.ParseFormat(cfg.logFormat)
	if err != nil {
		return ctx, err
	}
	logger := logging.New(cfg.logLevel, os.Stderr, logging.WithFormat(format))
	logging.SetDefault(logger)
	return logging.With(ctx, logger), nil
}

func (cfg *config) getLocale() model.Locale {
	return model.ParseLocale(cfg.locale)
}

func configDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", goerr.Wrap(err, "failed to resolve user config directory")
	}
	dir = filepath.Join(dir, "washp")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", goerr.Wrap(err, "failed to create config directory", goerr.V("dir", dir))
	}
	return dir, nil
}

// newRepository creates a new repository instance
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	switch cfg.store {
	case "firestore":
		if cfg.project == "" {
			return nil, goerr.New("project is required for firestore")
		}
		repo, err := repository.New(ctx, cfg.project, cfg.database)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create repository")
		}
		return repo, nil

	case "sqlite", "":
		path := cfg.sqlitePath
		if path == "" {
			dir, err := configDir()
			if err != nil {
				return nil, err
			}
			path = filepath.Join(dir, "washp.db")
		}
		repo, err := repository.NewSQLite(ctx, path)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create repository")
		}
		return repo, nil

	case "memory":
		return repository.NewMemory(), nil

	default:
		return nil, goerr.New("unsupported store", goerr.V("store", cfg.store))
	}
}

// newIdentity creates the identity provider. The local provider keeps its
// accounts in repo, which must support it.
func (cfg *config) newIdentity(ctx context.Context, repo repository.Repository) (adapter.Identity, error) {
	switch cfg.identity {
	case "firebase":
		if cfg.project == "" {
			return nil, goerr.New("project is required for firebase identity")
		}
		identity, err := adapter.NewFirebaseIdentity(ctx, cfg.project, cfg.firebaseAPIKey)
		if err != nil {
			return nil, err
		}
		return identity, nil

	case "local", "":
		store, ok := repo.(adapter.LocalAccountStore)
		if !ok {
			return nil, goerr.New("store cannot keep local accounts, use --identity firebase", goerr.V("store", cfg.store))
		}
		if cfg.localSecret == "" {
			return nil, goerr.New("local-auth-secret is required for local identity")
		}
		identity, err := adapter.NewLocalIdentity(store, []byte(cfg.localSecret))
		if err != nil {
			return nil, err
		}
		return identity, nil

	default:
		return nil, goerr.New("unsupported identity provider", goerr.V("identity", cfg.identity))
	}
}

// newInference creates the configured model client
func (cfg *config) newInference(ctx context.Context) (adapter.Inference, error) {
	var (
		inference adapter.Inference
		err       error
	)

	switch cfg.provider {
	case "openai", "":
		opts := []adapter.OpenAIOption{adapter.WithOpenAIModel(cfg.openaiModel)}
		if cfg.openaiBaseURL != "" {
			opts = append(opts, adapter.WithOpenAIBaseURL(cfg.openaiBaseURL))
		}
		inference, err = adapter.NewOpenAI(cfg.openaiAPIKey, opts...)

	case "gemini":
		if cfg.geminiProject == "" {
			return nil, goerr.New("gemini-project is required")
		}
		if cfg.geminiLocation == "" {
			return nil, goerr.New("gemini-location is required")
		}
		inference, err = adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation, adapter.WithGenerativeModel(cfg.geminiModel))

	case "claude":
		inference, err = adapter.NewClaude(cfg.anthropicAPIKey, adapter.WithClaudeModel(cfg.claudeModel))

	default:
		return nil, goerr.New("unsupported inference provider", goerr.V("provider", cfg.provider))
	}
	if err != nil {
		return nil, err
	}

	return adapter.WithInferenceTimeout(inference, cfg.inferenceTimeout), nil
}

// newImageStore creates the capture store, or nil to keep data URIs
func (cfg *config) newImageStore(ctx context.Context) (adapter.ImageStore, error) {
	switch cfg.imageStore {
	case "":
		return nil, nil

	case "gcs":
		if cfg.bucket == "" {
			return nil, goerr.New("bucket name is required")
		}
		return adapter.NewGCSImageStore(ctx, cfg.bucket)

	case "minio":
		if cfg.bucket == "" || cfg.minioEndpoint == "" {
			return nil, goerr.New("bucket and minio-endpoint are required")
		}
		return adapter.NewMinIOImageStore(ctx, adapter.MinIOConfig{
			Endpoint:  cfg.minioEndpoint,
			Region:    cfg.minioRegion,
			Bucket:    cfg.bucket,
			AccessKey: cfg.minioAccessKey,
			SecretKey: cfg.minioSecretKey,
			UseSSL:    cfg.minioUseSSL,
		})

	default:
		return nil, goerr.New("unsupported image store", goerr.V("image_store", cfg.imageStore))
	}
}
