package runner

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/raphaelgruber/agentwatch/internal/models"
)

// methodsWithoutBody never carry the body template.
var methodsWithoutBody = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

// buildRequest assembles the outbound request for an agent.
// Header precedence: defaults, then auth, then the agent's custom headers.
func buildRequest(ctx context.Context, agent *models.Agent, userAgent string) (*http.Request, error) {
	method := strings.ToUpper(strings.TrimSpace(agent.Method))
	if method == "" {
		method = http.MethodGet
	}

	u, err := url.Parse(agent.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	// Configured params are appended; the URL's own query is kept verbatim.
	if len(agent.QueryParams) > 0 {
		extra := url.Values{}
		for k, v := range agent.QueryParams {
			extra.Add(k, v)
		}
		if u.RawQuery == "" {
			u.RawQuery = extra.Encode()
		} else {
			u.RawQuery += "&" + extra.Encode()
		}
	}

	var body io.Reader
	if agent.BodyTemplate != "" && !methodsWithoutBody[method] {
		body = strings.NewReader(agent.BodyTemplate)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	switch agent.AuthMethod {
	case models.AuthBearer:
		req.Header.Set("Authorization", "Bearer "+agent.AuthSecret)
	case models.AuthAPIKey:
		req.Header.Set("X-API-Key", agent.AuthSecret)
	case models.AuthBasic:
		req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(agent.AuthSecret)))
	}

	for k, v := range agent.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// isJSON reports whether a Content-Type header declares a JSON body.
func isJSON(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
