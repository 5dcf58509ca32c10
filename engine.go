package pnwkit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Engine builds and submits GraphQL requests through Config's HTTP client,
// gating every attempt on a shared RateLimiter and retrying transport
// failures and 429s up to a fixed number of attempts. It has no mutable
// state of its own beyond the limiter, so a Kit shares one Engine across
// every Get/GetWithVariables call.
type Engine struct {
	config      *Config
	rateLimiter *RateLimiter
}

// NewEngine wires an Engine to cfg's HTTP client, clock and sleeper.
func NewEngine(cfg *Config) *Engine {
	return &Engine{config: cfg, rateLimiter: NewRateLimiter()}
}

// maxAttempts is the fixed submit-loop retry policy.
const maxAttempts = 4

type graphQLEnvelope struct {
	Data   *Value           `json:"data"`
	Errors []graphQLErrItem `json:"errors"`
}

type graphQLErrItem struct {
	Message string `json:"message"`
}

// buildRequest validates query (and variables, if supplied), ensures a
// reserved __page variable is seeded, and renders the JSON request body.
func (e *Engine) buildRequest(query *Query, variables *Variables) (HTTPRequest, error) {
	if err := query.Valid(); err != nil {
		return HTTPRequest{}, fmt.Errorf("Invalid query: %s: %w", err, ErrValidation)
	}

	vars := variables
	if vars == nil {
		vars = NewVariables()
	} else {
		declared := query.collectVariables()
		required := make([]string, 0, len(declared))
		for _, v := range declared {
			required = append(required, v.Name)
		}
		if err := vars.Valid(required); err != nil {
			return HTTPRequest{}, fmt.Errorf("Invalid variables: %s: %w", err, ErrValidation)
		}
	}
	vars.PageInit()

	body := struct {
		Query     string     `json:"query"`
		Variables *Variables `json:"variables"`
	}{
		Query:     query.Resolve(),
		Variables: vars,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return HTTPRequest{}, fmt.Errorf("encoding request body: %w", err)
	}

	headers := map[string]string{
		"Authorization": "Bearer " + e.config.APIKey,
		"Content-Type":  "application/json",
		"User-Agent":    e.config.UserAgent,
	}
	if e.config.BotAPIKey != "" {
		headers["X-Api-Key"] = e.config.BotAPIKey
	}
	if e.config.BotKey != "" {
		headers["X-Bot-Key"] = e.config.BotKey
	}

	return HTTPRequest{
		Method:  "POST",
		URL:     e.config.APIURL,
		Headers: headers,
		Body:    payload,
	}, nil
}

// Get submits query with no bound variables.
func (e *Engine) Get(ctx context.Context, query *Query) (*Value, error) {
	return e.GetWithVariables(ctx, query, nil)
}

// GetWithVariables submits query bound to variables (nil is treated as an
// empty set), enforcing the rate limiter and the fixed 4-attempt retry
// policy described by the HTTP engine contract.
func (e *Engine) GetWithVariables(ctx context.Context, query *Query, variables *Variables) (*Value, error) {
	req, err := e.buildRequest(query, variables)
	if err != nil {
		return nil, err
	}

	errMsg := "something went very wrong"
	for attempt := 0; attempt < maxAttempts; attempt++ {
		for {
			wait := e.rateLimiter.Hit(e.config.Clock.Now())
			if wait == 0 {
				break
			}
			if err := e.config.Sleep.Sleep(ctx, wait); err != nil {
				return nil, err
			}
		}

		resp, err := e.config.HTTPClient.Do(ctx, req)
		if err != nil {
			errMsg = err.Error()
			continue
		}

		if resp.StatusCode == 429 {
			reset := parseRatelimitReset(resp.Headers.Get("X-Ratelimit-Reset"))
			wait := e.rateLimiter.HandleTooManyRequests(e.config.Clock.Now(), reset)
			if err := e.config.Sleep.Sleep(ctx, wait); err != nil {
				return nil, err
			}
			errMsg = "rate limited (429)"
			continue
		}

		e.seedRateLimiter(resp.Headers)
		return parseEnvelope(resp.Body)
	}
	return nil, fmt.Errorf("max retries exceeded: %s: %w", errMsg, ErrTransport)
}

func parseRatelimitReset(header string) *uint64 {
	if header == "" {
		return nil
	}
	v, err := strconv.ParseUint(strings.TrimSpace(header), 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseUintHeader(h http.Header, name string) (uint64, bool) {
	raw := h.Get(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// seedRateLimiter initializes the limiter from the X-Ratelimit-* response
// headers, per §4.3. A response carrying no rate-limit headers at all
// (e.g. a mock transport in tests) leaves the limiter untouched rather
// than forcing it to zero values.
func (e *Engine) seedRateLimiter(h http.Header) {
	limit, ok1 := parseUintHeader(h, "X-Ratelimit-Limit")
	remaining, ok2 := parseUintHeader(h, "X-Ratelimit-Remaining")
	reset, ok3 := parseUintHeader(h, "X-Ratelimit-Reset")
	interval, ok4 := parseUintHeader(h, "X-Ratelimit-Interval")
	if !ok1 || !ok2 || !ok3 {
		return
	}
	if !ok4 {
		interval = 60
	}
	e.rateLimiter.Initialize(limit, remaining, reset, interval)
}

func parseEnvelope(body []byte) (*Value, error) {
	var env graphQLEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%s: %w", err, ErrProtocol)
	}
	if len(env.Errors) > 0 {
		msgs := make([]string, len(env.Errors))
		for i, e := range env.Errors {
			msgs[i] = e.Message
		}
		return nil, fmt.Errorf("%s: %w", strings.Join(msgs, ", "), ErrSemantic)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("no data: %w", ErrProtocol)
	}
	return env.Data, nil
}
