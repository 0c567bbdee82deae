// SPDX-License-Identifier: BSD-3-Clause

package cert

import (
	"crypto/tls"
	"fmt"
	"net/http"

	"golang.org/x/crypto/acme/autocert"

	"github.com/u-bmc-forks/daemonkit/internal/obslog"
)

// GenerateAndSign builds an autocert.Manager from cfg and returns the TLS
// configuration and ACME HTTP-01 challenge handler pkg/controlsrv wires
// into its listener and fallback http.Server respectively. cfg.Validate
// already rejects a Let's Encrypt config with no Email/CacheDir, so this
// only re-checks the bits Validate doesn't know about: that the caller
// actually asked for Let's Encrypt, and that there's at least one
// hostname left once IP-only alternative names are filtered out.
func GenerateAndSign(cfg *Config) (*tls.Config, http.Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidCertificateOptions, err)
	}

	if cfg.Type != CertificateTypeLetsEncrypt {
		return nil, nil, fmt.Errorf("%w: configuration type must be Let's Encrypt", ErrAutocertSetup)
	}

	hostnames := cfg.GetAllHostnames()
	if len(hostnames) == 0 {
		return nil, nil, fmt.Errorf("%w: at least one hostname is required", ErrInvalidHostname)
	}

	m := &autocert.Manager{
		Email:      cfg.Email,
		Cache:      autocert.DirCache(cfg.CacheDir),
		HostPolicy: autocert.HostWhitelist(hostnames...),
	}

	if cfg.AcceptTOS {
		m.Prompt = autocert.AcceptTOS
	} else {
		m.Prompt = func(tosURL string) bool {
			obslog.Global().Warn("cert: refusing ACME terms of service, certificate issuance will stall",
				"tos_url", tosURL, "hostnames", hostnames)
			return false
		}
	}

	return m.TLSConfig(), m.HTTPHandler(nil), nil
}
