// Package api holds the wire types shared by both backend facades: the
// normalized response envelope, paged listings, and the helper that turns any
// transport outcome into an envelope the rendering layer can always display.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/paylinehq/adminctl/internal/errors"
	"github.com/paylinehq/adminctl/internal/httpclient"
)

// Envelope is the normalized result of every facade operation. Exactly one of
// Data and Error is meaningful: Data when Success is true, Error otherwise.
// The wrapped-or-raw decision is made once, in Normalize, and never
// re-inspected downstream.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
}

// Ok wraps a payload in a successful envelope.
func Ok[T any](data T) Envelope[T] {
	return Envelope[T]{Success: true, Data: data}
}

// Fail wraps a fallback payload and a human-readable message in a failed
// envelope. The fallback keeps the envelope well-typed so renderers never
// null-check.
func Fail[T any](fallback T, err error) Envelope[T] {
	return Envelope[T]{Success: false, Data: fallback, Error: Message(err)}
}

// Message extracts the human-readable message from an error chain.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ae *errors.AdminError
	if stderrors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}

// wireEnvelope probes whether the backend already wrapped its payload.
type wireEnvelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *string         `json:"error"`
}

// Normalize decodes a response body into an envelope. If the payload carries
// a success boolean it is passed through; otherwise the raw payload is
// wrapped as a successful envelope. A payload that cannot be decoded into T
// on the success path is a hard failure.
func Normalize[T any](body []byte) (Envelope[T], error) {
	var env Envelope[T]

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		env.Success = true
		return env, nil
	}

	if trimmed[0] == '{' {
		var wire wireEnvelope
		if err := json.Unmarshal(trimmed, &wire); err == nil && wire.Success != nil {
			env.Success = *wire.Success
			if wire.Error != nil {
				env.Error = *wire.Error
			}
			if len(wire.Data) > 0 && !bytes.Equal(wire.Data, []byte("null")) {
				if err := json.Unmarshal(wire.Data, &env.Data); err != nil {
					return env, errors.NewMalformedResponseError(err)
				}
			}
			return env, nil
		}
	}

	if err := json.Unmarshal(trimmed, &env.Data); err != nil {
		return env, errors.NewMalformedResponseError(err)
	}
	env.Success = true
	return env, nil
}

// Page is one page of a listing. Listing fallbacks are empty pages, never
// nil, so the rendering layer can always range over Content.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
}

// EmptyPage returns the well-typed empty page used as a listing fallback.
func EmptyPage[T any]() Page[T] {
	return Page[T]{Content: []T{}}
}

// Exchange performs one facade call end to end: dispatch, normalize, and on
// any failure substitute the documented fallback inside a failed envelope.
// Facade operations never return transport errors directly; a data source
// failure degrades the view, it does not crash it.
func Exchange[T any](ctx context.Context, client *httpclient.Client, req *httpclient.Request, fallback T) Envelope[T] {
	resp, err := client.Do(ctx, req)
	if err != nil {
		return Fail(fallback, err)
	}

	env, err := Normalize[T](resp.Body)
	if err != nil {
		return Fail(fallback, err)
	}
	if !env.Success {
		// A backend-reported failure carries no usable payload; substitute
		// the documented fallback so the envelope stays well-typed.
		env.Data = fallback
	}
	return env
}
