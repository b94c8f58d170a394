package app

import (
	"net/http"
	"path/filepath"

	"qiyas/internal/domain"
	"qiyas/internal/protocol/ratchet"
	"qiyas/internal/relay"
	identitysvc "qiyas/internal/services/identity"
	messagesvc "qiyas/internal/services/message"
	prekeysvc "qiyas/internal/services/prekey"
	sessionsvc "qiyas/internal/services/session"
	"qiyas/internal/store"
)

// Wire bundles all stores, services, and clients for the CLI.
type Wire struct {
	IdentityService domain.IdentityService
	PreKeyService   domain.PreKeyService
	SessionService  domain.SessionService
	MessageService  domain.MessageService
	RelayClient     domain.RelayClient
	AccountStore    domain.AccountStore
	RatchetStore    domain.RatchetStore
	PreKeyStore     domain.PreKeyStore
	HTTPClient      *http.Client
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	if cfg.MaxSkippedKeys > 0 {
		ratchet.MaxSkip = cfg.MaxSkippedKeys
	}

	// File-based stores
	idStore := store.NewIdentityFileStore(cfg.HomeDir)
	bundleStore := store.NewBundleFileStore(cfg.HomeDir)
	sessionStore := store.NewSessionFileStore(cfg.HomeDir)
	ratchetStore := store.NewRatchetFileStore(cfg.HomeDir)
	accountStore := store.NewAccountFileStore(cfg.HomeDir)

	prekeyStore, err := store.NewSQLitePreKeyStore(filepath.Join(cfg.HomeDir, "prekeys.db"))
	if err != nil {
		return nil, err
	}

	// Ensure an HTTP client is available for outbound calls
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	// Relay client (uses provided HTTP client)
	relayClient := relay.NewHTTP(cfg.RelayURL, httpClient)

	algo := cfg.Algorithm
	if algo == 0 {
		algo = domain.AEADXChaCha20
	}

	// High-level services
	idSvc := identitysvc.New(idStore)
	prekeySvc := prekeysvc.New(idStore, prekeyStore, bundleStore)
	sessionSvc := sessionsvc.New(idStore, sessionStore, relayClient)
	messageSvc := messagesvc.New(
		idStore,
		prekeyStore,
		ratchetStore,
		sessionSvc,
		relayClient,
		accountStore,
		cfg.RelayURL,
		algo,
	)

	return &Wire{
		IdentityService: idSvc,
		PreKeyService:   prekeySvc,
		SessionService:  sessionSvc,
		MessageService:  messageSvc,
		RelayClient:     relayClient,
		AccountStore:    accountStore,
		RatchetStore:    ratchetStore,
		PreKeyStore:     prekeyStore,
		HTTPClient:      httpClient,
	}, nil
}
