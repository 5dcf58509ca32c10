package pnwkit

import "net/http"

// Default endpoints, overridable via options. These point at the
// production Politics & War API and its Pusher-compatible subscription
// stack; construction glue beyond these defaults (env loading, CLI
// flags, version-string assembly) is explicitly out of scope (§1).
const (
	DefaultAPIURL       = "https://api.politicsandwar.com/graphql"
	DefaultSocketURL    = "wss://socket.politicsandwar.com/app/a22734a47847a64386c8"
	DefaultSubscribeURL = "https://api.politicsandwar.com/subscriptions/v1/subscribe/{model}/{event}"
	DefaultAuthURL      = "https://api.politicsandwar.com/subscriptions/v1/auth"

	defaultUserAgent = "pnwkit-go"
)

// Config holds the shared, immutable-after-construction configuration a
// Kit wires into its HTTP engine and socket engine.
type Config struct {
	APIKey    string
	BotKey    string
	BotAPIKey string

	APIURL       string
	SocketURL    string
	SubscribeURL string
	AuthURL      string

	UserAgent string

	HTTPClient HTTPClient
	Clock      Clock
	Sleep      Sleeper

	Logf func(format string, args ...interface{})
}

// Option configures a Config during NewConfig.
type Option func(*Config)

// WithBotKey sets the optional X-Bot-Key header value.
func WithBotKey(botKey string) Option {
	return func(c *Config) { c.BotKey = botKey }
}

// WithBotAPIKey sets the optional X-Api-Key header value.
func WithBotAPIKey(botAPIKey string) Option {
	return func(c *Config) { c.BotAPIKey = botAPIKey }
}

// WithAPIURL overrides the GraphQL endpoint.
func WithAPIURL(url string) Option {
	return func(c *Config) { c.APIURL = url }
}

// WithSocketURL overrides the WebSocket endpoint.
func WithSocketURL(url string) Option {
	return func(c *Config) { c.SocketURL = url }
}

// WithSubscribeURL overrides the channel-request endpoint template.
func WithSubscribeURL(url string) Option {
	return func(c *Config) { c.SubscribeURL = url }
}

// WithAuthURL overrides the channel authorization endpoint.
func WithAuthURL(url string) Option {
	return func(c *Config) { c.AuthURL = url }
}

// WithUserAgent overrides the default User-Agent header value.
func WithUserAgent(ua string) Option {
	return func(c *Config) { c.UserAgent = ua }
}

// WithHTTPClient injects a custom HTTPClient, e.g. a mock in tests or a
// *http.Client with custom transport/timeouts in production.
func WithHTTPClient(client HTTPClient) Option {
	return func(c *Config) { c.HTTPClient = client }
}

// WithStdHTTPClient wraps a *http.Client as the HTTPClient.
func WithStdHTTPClient(client *http.Client) Option {
	return func(c *Config) { c.HTTPClient = NewStdHTTPClient(client) }
}

// WithClock injects a custom Clock, e.g. a fixed/stepped clock in tests.
func WithClock(clock Clock) Option {
	return func(c *Config) { c.Clock = clock }
}

// WithSleep injects a custom Sleeper, e.g. one that returns instantly in
// tests instead of actually sleeping.
func WithSleep(sleep Sleeper) Option {
	return func(c *Config) { c.Sleep = sleep }
}

// WithLogf injects a logging closure. A nil logger is replaced with a
// no-op.
func WithLogf(logf func(format string, args ...interface{})) Option {
	return func(c *Config) {
		if logf == nil {
			logf = func(string, ...interface{}) {}
		}
		c.Logf = logf
	}
}

// NewConfig builds a Config for apiKey, applying defaults for every
// unset field and then applying opts in order.
func NewConfig(apiKey string, opts ...Option) *Config {
	c := &Config{
		APIKey:       apiKey,
		APIURL:       DefaultAPIURL,
		SocketURL:    DefaultSocketURL,
		SubscribeURL: DefaultSubscribeURL,
		AuthURL:      DefaultAuthURL,
		UserAgent:    defaultUserAgent,
		HTTPClient:   NewStdHTTPClient(nil),
		Clock:        SystemClock{},
		Sleep:        StdSleeper{},
		Logf:         func(string, ...interface{}) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
