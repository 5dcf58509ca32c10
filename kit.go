package pnwkit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Kit is the facade: shared configuration, the HTTP engine, and the
// lazily-wired socket engine. One Kit is meant to be built once per
// process and shared across goroutines; every method is safe for
// concurrent use.
type Kit struct {
	config *Config
	engine *Engine
	socket *Socket
}

// NewKit builds a Kit for apiKey, applying opts over the default
// configuration.
func NewKit(apiKey string, opts ...Option) *Kit {
	cfg := NewConfig(apiKey, opts...)
	return &Kit{
		config: cfg,
		engine: NewEngine(cfg),
		socket: NewSocket(cfg),
	}
}

// Get submits query with no variables.
func (k *Kit) Get(ctx context.Context, query *Query) (*Value, error) {
	return k.engine.Get(ctx, query)
}

// GetWithVariables submits query bound to variables.
func (k *Kit) GetWithVariables(ctx context.Context, query *Query, variables *Variables) (*Value, error) {
	return k.engine.GetWithVariables(ctx, query, variables)
}

// Query builds an empty query-kind document over the given top-level
// fields, ready to pass to Get.
func (k *Kit) Query(fields ...*Field) *Query {
	return NewQuery(fields...)
}

// Mutation builds an empty mutation-kind document over the given
// top-level fields.
func (k *Kit) Mutation(fields ...*Field) *Query {
	return NewMutation(fields...)
}

// Paginator builds a Paginator over a single-field query, with no
// caller-supplied variables.
func (k *Kit) Paginator(field *Field) *Paginator {
	return NewPaginator(NewQuery(field))
}

// PaginatorWithCapacity builds a Paginator whose internal queue is
// preallocated to capacity.
func (k *Kit) PaginatorWithCapacity(field *Field, capacity int) *Paginator {
	return NewPaginatorWithCapacity(NewQuery(field), capacity)
}

// PaginatorWithVariables builds a Paginator over a single-field query
// using caller-supplied variables.
func (k *Kit) PaginatorWithVariables(field *Field, variables *Variables) *Paginator {
	return NewPaginatorWithVariables(NewQuery(field), variables)
}

// PaginatorWithCapacityAndVariables combines PaginatorWithCapacity and
// PaginatorWithVariables.
func (k *Kit) PaginatorWithCapacityAndVariables(field *Field, capacity int, variables *Variables) *Paginator {
	return NewPaginatorWithCapacityAndVariables(NewQuery(field), capacity, variables)
}

// Subscribe registers a live subscription for (model, event) with no
// filters.
func (k *Kit) Subscribe(ctx context.Context, model SubscriptionModel, event SubscriptionEvent) (*Subscription, error) {
	return k.SubscribeWithFilters(ctx, model, event, NewObject())
}

// SubscribeWithFilters registers a live subscription for (model, event),
// narrowed by filters (a flat or nested Object query-stringified per
// encodeFilters).
func (k *Kit) SubscribeWithFilters(ctx context.Context, model SubscriptionModel, event SubscriptionEvent, filters *Object) (*Subscription, error) {
	k.socket.SetKit(k)

	channel, err := k.requestSubscriptionChannel(ctx, model, event, filters)
	if err != nil {
		return nil, err
	}

	sub := NewSubscription(model, event, filters, channel)
	if err := k.subscribeRequest(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// subscribeRequest drives the handshake described by §4.8.1 for an
// already-constructed Subscription: ensure the transport is up and
// authorized, register the Subscription, send pusher:subscribe, and wait
// for the server's subscription_succeeded acknowledgement. It also
// satisfies Socket's subscribeRequester interface so reconnect can
// re-drive the same handshake for every previously registered
// Subscription.
func (k *Kit) subscribeRequest(ctx context.Context, sub *Subscription) error {
	if !k.socket.GetConnected().IsSet() {
		if err := k.socket.Connect(ctx, k.config.SocketURL); err != nil {
			return err
		}
		k.socket.StartPingPong()
	}

	channel := sub.Channel()
	auth, err := k.authorizeSubscription(ctx, channel)
	if err != nil {
		if err.Error() != "unauthorized" {
			return err
		}
		newChannel, reqErr := k.requestSubscriptionChannel(ctx, sub.Model, sub.Event, sub.Filters)
		if reqErr != nil {
			return reqErr
		}
		oldChannel := sub.Channel()
		sub.setChannel(newChannel)
		k.socket.registry.Rename(sub, oldChannel)
		channel = newChannel
		auth, err = k.authorizeSubscription(ctx, channel)
		if err != nil {
			return err
		}
	}

	k.socket.AddSubscription(sub)

	payload, err := json.Marshal(map[string]any{
		"event": "pusher:subscribe",
		"data": map[string]string{
			"channel": channel,
			"auth":    auth,
		},
	})
	if err != nil {
		return err
	}
	if err := k.socket.Send(string(payload)); err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()
	if err := sub.Succeeded.Wait(waitCtx); err != nil {
		k.socket.RemoveSubscription(sub)
		return fmt.Errorf("timed out waiting for subscription to succeed: %w", ErrTimeout)
	}
	return nil
}

func (k *Kit) requestSubscriptionChannel(ctx context.Context, model SubscriptionModel, event SubscriptionEvent, filters *Object) (string, error) {
	reqURL := strings.NewReplacer("{model}", string(model), "{event}", string(event)).Replace(k.config.SubscribeURL)
	if filters != nil && filters.Len() > 0 {
		if qs := encodeFilters("", filters); qs != "" {
			reqURL += "?" + qs
		}
	}

	resp, err := k.config.HTTPClient.Do(ctx, HTTPRequest{
		Method: "GET",
		URL:    reqURL,
		Headers: map[string]string{
			"Authorization": "Bearer " + k.config.APIKey,
			"User-Agent":    k.config.UserAgent,
		},
	})
	if err != nil {
		return "", err
	}

	var body Value
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return "", err
	}
	obj, ok := body.AsObject()
	if !ok {
		return "", fmt.Errorf("malformed response")
	}
	if errVal, ok := obj.Get("error"); ok {
		msg, _ := errVal.AsString()
		return "", fmt.Errorf("%s", msg)
	}
	if chVal, ok := obj.Get("channel"); ok {
		channel, _ := chVal.AsString()
		return channel, nil
	}
	return "", fmt.Errorf("malformed response")
}

func (k *Kit) authorizeSubscription(ctx context.Context, channel string) (string, error) {
	if err := k.socket.GetEstablished().Wait(ctx); err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("socket_id", k.socket.GetSocketID())
	form.Set("channel_name", channel)

	resp, err := k.config.HTTPClient.Do(ctx, HTTPRequest{
		Method: "POST",
		URL:    k.config.AuthURL,
		Headers: map[string]string{
			"Content-Type": "application/x-www-form-urlencoded",
		},
		Body: []byte(form.Encode()),
	})
	if err != nil {
		return "", err
	}
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("unauthorized")
	}

	var authBody struct {
		Auth string `json:"auth"`
	}
	if err := json.Unmarshal(resp.Body, &authBody); err != nil {
		return "", err
	}
	return authBody.Auth, nil
}

// Close tears down the socket engine's background goroutines and
// connection. It is a supplemental teardown path: the original
// implementation relies on process exit to reclaim these.
func (k *Kit) Close(ctx context.Context) error {
	k.socket.Close()
	return nil
}
