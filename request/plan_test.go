// Copyright 2026 The fetchretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"fmt"
	"io"
	"net/http"
	urlpkg "net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/explainers-by-googlers/fetch-retry/retry"
)

func TestNewPlan(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		p, err := NewPlan("", "http://example.com", nil)
		require.NoError(t, err)
		assert.Equal(t, "GET", p.Method)
		assert.Equal(t, "example.com", p.URL.Host)
		assert.Equal(t, "example.com", p.Host)
		assert.Nil(t, p.Body)
		assert.NotNil(t, p.Header)
		assert.False(t, p.Keepalive)
		assert.Equal(t, retry.Config{}, p.Retry)
		assert.Equal(t, context.Background(), p.Context())
	})
	t.Run("empty port removed", func(t *testing.T) {
		p, err := NewPlan("GET", "http://example.com:/x", nil)
		require.NoError(t, err)
		assert.Equal(t, "example.com", p.URL.Host)
	})
	t.Run("invalid method", func(t *testing.T) {
		_, err := NewPlan("GE T", "http://example.com", nil)
		assert.Error(t, err)
		_, err = NewPlan("GET\n", "http://example.com", nil)
		assert.Error(t, err)
	})
	t.Run("invalid url", func(t *testing.T) {
		_, err := NewPlan("GET", "http://example com/%zz", nil)
		assert.Error(t, err)
	})
	t.Run("body variants", func(t *testing.T) {
		bodies := []interface{}{"text", []byte("text")}
		for i, body := range bodies {
			t.Run(fmt.Sprintf("bodies[%d]", i), func(t *testing.T) {
				p, err := NewPlan("POST", "http://example.com", body)
				require.NoError(t, err)
				assert.Equal(t, []byte("text"), p.Body)
			})
		}
	})
	t.Run("invalid body", func(t *testing.T) {
		_, err := NewPlan("POST", "http://example.com", 42)
		assert.Error(t, err)
	})
}

func TestNewPlanWithContext(t *testing.T) {
	t.Run("nil context", func(t *testing.T) {
		_, err := NewPlanWithContext(nil, "GET", "http://example.com", nil) //nolint:staticcheck
		assert.Error(t, err)
	})
	t.Run("context retained", func(t *testing.T) {
		type key struct{}
		ctx := context.WithValue(context.Background(), key{}, "v")
		p, err := NewPlanWithContext(ctx, "GET", "http://example.com", nil)
		require.NoError(t, err)
		assert.Equal(t, "v", p.Context().Value(key{}))
	})
}

func TestPlanWithContext(t *testing.T) {
	p, err := NewPlan("GET", "http://example.com", nil)
	require.NoError(t, err)
	assert.Panics(t, func() { p.WithContext(nil) }) //nolint:staticcheck
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p2 := p.WithContext(ctx)
	assert.NotSame(t, p, p2)
	assert.Same(t, ctx, p2.Context())
	assert.Equal(t, context.Background(), p.Context())
}

func TestToRequest(t *testing.T) {
	p, err := NewPlan("POST", "http://example.com/a", "payload")
	require.NoError(t, err)
	p.Header.Set("X-Custom", "yes")

	t.Run("initial attempt has no attempt header", func(t *testing.T) {
		r := p.ToRequest(context.Background(), p.URL, 0)
		assert.Equal(t, "POST", r.Method)
		assert.Same(t, p.URL, r.URL)
		assert.Equal(t, "", r.Header.Get(AttemptHeader))
		assert.Equal(t, "yes", r.Header.Get("X-Custom"))
		assert.Equal(t, int64(len("payload")), r.ContentLength)
		body, bodyErr := r.GetBody()
		require.NoError(t, bodyErr)
		b, bodyErr := io.ReadAll(body)
		require.NoError(t, bodyErr)
		assert.Equal(t, []byte("payload"), b)
	})
	t.Run("retries carry the attempt header", func(t *testing.T) {
		for attempt := 1; attempt <= 3; attempt++ {
			r := p.ToRequest(context.Background(), p.URL, attempt)
			assert.Equal(t, fmt.Sprintf("%d", attempt), r.Header.Get(AttemptHeader))
			assert.Equal(t, "yes", r.Header.Get("X-Custom"))
		}
	})
	t.Run("attempt header never leaks into the plan", func(t *testing.T) {
		_ = p.ToRequest(context.Background(), p.URL, 2)
		assert.Equal(t, "", p.Header.Get(AttemptHeader))
	})
	t.Run("targets the given url, not the plan url", func(t *testing.T) {
		u, parseErr := urlpkg.Parse("http://moved.example.com/b")
		require.NoError(t, parseErr)
		r := p.ToRequest(context.Background(), u, 1)
		assert.Same(t, u, r.URL)
	})
}

func TestAddCookie(t *testing.T) {
	p, err := NewPlan("GET", "http://example.com", nil)
	require.NoError(t, err)
	p.AddCookie(&http.Cookie{Name: "a", Value: "1"})
	assert.Equal(t, "a=1", p.Header.Get("Cookie"))
	p.AddCookie(&http.Cookie{Name: "b", Value: "2"})
	assert.Equal(t, "a=1; b=2", p.Header.Get("Cookie"))
}

func TestSetBasicAuth(t *testing.T) {
	p, err := NewPlan("GET", "http://example.com", nil)
	require.NoError(t, err)
	p.SetBasicAuth("user", "pass")
	r := p.ToRequest(context.Background(), p.URL, 0)
	user, pass, ok := r.BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "user", user)
	assert.Equal(t, "pass", pass)
}
