package cli

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cebeepredict/admin/internal/apiclient"
	"github.com/cebeepredict/admin/internal/cms"
	"github.com/cebeepredict/admin/internal/config"
	"github.com/cebeepredict/admin/internal/definition"
	"github.com/cebeepredict/admin/internal/resource"
	"github.com/cebeepredict/admin/internal/session"
	"github.com/cebeepredict/admin/internal/table"
)

// sessionKey is the one FileStore entry the CLI signs in under.
const sessionKey = "cebeectl"

// app holds the resolved flags and the services built from them. The
// services are created on first use so that commands such as version and
// completion run without a backend.
type app struct {
	configPath  string
	backendURL  string
	sessionFile string
	output      string
	verbose     bool

	cfg       *config.Config
	logger    *zap.Logger
	registry  *definition.Registry
	resources *resource.Provider
	content   *cms.Service
	auth      *session.Authenticator
	formatter *table.Formatter
	slot      *session.Slot

	// backend sends no token; client is bound to the session slot.
	backend *apiclient.Client
	client  *apiclient.Client
}

// open builds the backend client and providers. It is safe to call more
// than once.
func (a *app) open() error {
	if a.client != nil {
		return nil
	}

	// Step 1: Resolve configuration.
	cfg := config.Defaults()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if a.backendURL != "" {
		cfg.Backend.BaseURL = a.backendURL
	}
	if cfg.Backend.BaseURL == "" {
		return fmt.Errorf("backend URL not set: pass --backend or set %s", envBackend)
	}

	// Step 2: Logger. Verbose output goes to stderr to keep stdout parseable.
	logger := zap.NewNop()
	if a.verbose {
		dev, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		logger = dev
	}

	// Step 3: Definitions.
	defs, err := definition.NewLoader().LoadConfigured(cfg.Definitions.Builtin, cfg.Definitions.Directories)
	if err != nil {
		return fmt.Errorf("loading definitions: %w", err)
	}
	if verrs := definition.NewValidator().Validate(defs); len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, e := range verrs {
			errs[i] = e
		}
		return fmt.Errorf("invalid definitions: %w", errors.Join(errs...))
	}
	registry := definition.NewRegistry(defs)

	// Step 4: Session slot and clients.
	a.slot = session.NewSlot(session.NewFileStore(a.sessionFile), sessionKey)
	a.backend = apiclient.New(cfg.Backend, apiclient.WithLogger(logger))
	a.client = a.backend.WithSession(a.slot)

	a.cfg = cfg
	a.logger = logger
	a.registry = registry
	a.resources = resource.NewProvider(registry, cfg.Listing, resource.WithLogger(logger))
	a.content = cms.NewService(registry, logger)
	a.auth = session.NewAuthenticator(nil, logger)
	a.formatter = table.NewFormatter(cfg.Listing.Locale)
	return nil
}
