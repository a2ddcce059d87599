// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// validateNATSURL validates that the NATS URL is properly formatted.
// Accepts nats://, tls://, ws:// and wss:// with a host and optional port.
// A comma-separated list of servers is validated entry by entry.
func validateNATSURL(rawURL string) error {
	for _, part := range strings.Split(rawURL, ",") {
		parsedURL, err := url.Parse(strings.TrimSpace(part))
		if err != nil {
			return fmt.Errorf("failed to parse URL: %w", err)
		}

		switch parsedURL.Scheme {
		case "nats", "tls", "ws", "wss":
		default:
			return fmt.Errorf("scheme must be nats, tls, ws, or wss, got: %s", parsedURL.Scheme)
		}

		if parsedURL.Host == "" {
			return fmt.Errorf("host is required (e.g., localhost:4222, nats.example.com)")
		}
	}
	return nil
}
