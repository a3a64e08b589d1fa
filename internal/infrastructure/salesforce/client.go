// Package salesforce implements the four login strategies against the remote
// org: OAuth2, legacy SOAP partner login, Salesforce CLI delegation, and
// pre-authenticated session-id validation.
package salesforce

import (
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/turtacn/sfauth/internal/config"
	"github.com/turtacn/sfauth/pkg/constants"
	"github.com/turtacn/sfauth/pkg/errors"
)

// ConfigProvider returns the current Salesforce settings. Strategies call it
// per request so config hot reloads take effect without restarts.
type ConfigProvider func() config.SalesforceConfig

// newHTTPClient builds the outbound client with explicit connect and read
// timeouts so a stuck org cannot hold a request thread forever.
func newHTTPClient(cfg config.SalesforceConfig) *http.Client {
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeoutDuration()}
	return &http.Client{
		Timeout: cfg.ReadTimeoutDuration(),
		Transport: &http.Transport{
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: cfg.ConnectTimeoutDuration(),
		},
	}
}

// resolveBase picks the login host for a request, letting the request's org
// type override the configured default.
func resolveBase(cfg config.SalesforceConfig, orgType constants.OrgEnvironment) (string, *errors.AuthError) {
	env := orgType
	if env == "" {
		env = constants.OrgEnvironment(cfg.OrgEnvironment)
	}

	base, err := config.ResolveEndpoint(env, cfg.CustomEndpoint)
	if err != nil {
		if env == constants.OrgEnvironmentCustom {
			return "", errors.Configuration(constants.ErrCodeCustomEndpointMissing, "%v", err)
		}
		return "", errors.Configuration(constants.ErrCodeConfigNotFound, "%v", err)
	}
	return base, nil
}

// truncateInstanceURL cuts a server URL down to the org's API base, dropping
// everything from the first /services path segment on.
func truncateInstanceURL(serverURL string) string {
	if idx := strings.Index(serverURL, "/services"); idx >= 0 {
		return serverURL[:idx]
	}
	return strings.TrimRight(serverURL, "/")
}

// extractUserID takes the last path segment of an identity URL, e.g.
// https://login.salesforce.com/id/00Dxx/005xx yields 005xx.
func extractUserID(idURL string) string {
	if idURL == "" {
		return ""
	}
	parsed, err := url.Parse(idURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}

// sandboxFromBase reports whether a login host is the sandbox environment.
func sandboxFromBase(base string) bool {
	return strings.Contains(base, "test.salesforce.com")
}
