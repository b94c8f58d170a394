package app

import (
	"net/http"

	"qiyas/internal/domain"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	HomeDir    string       // config directory, e.g. $HOME/.qiyas
	RelayURL   string       // relay base URL, e.g. http://127.0.0.1:8080
	HTTPClient *http.Client // optional; defaults to http.DefaultClient

	// Algorithm selects the AEAD used to seal newly sent envelopes.
	// Zero value defaults to domain.AEADXChaCha20.
	Algorithm domain.AEADAlgorithm

	// MaxSkippedKeys overrides ratchet.MaxSkip for this process when
	// non-zero, letting deployments tune the skipped-key cache window.
	MaxSkippedKeys int
}
