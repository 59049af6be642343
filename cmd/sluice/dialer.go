package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/zoobzio/sluice"
	"github.com/zoobzio/sluice/pkg/postgres"
	"github.com/zoobzio/sluice/pkg/sqldb"
	_ "modernc.org/sqlite"
)

// dialerFor picks a Dialer from the scheme of raw. An empty url yields a
// nil Dialer: the adapter either rejects the config or skips loading
// before it would dial.
func dialerFor(raw string) (sluice.Dialer, error) {
	if raw == "" {
		return nil, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	switch u.Scheme {
	case "postgres", "postgresql":
		return postgres.New(), nil
	case "sqlite":
		return sqldb.New("sqlite", sqldb.WithDSN(func(s string) string {
			return strings.TrimPrefix(s, "sqlite://")
		})), nil
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
}
