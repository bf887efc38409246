package geoip

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestLookupSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"country":"United States","regionName":"California","city":"Mountain View"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zap.NewNop())
	loc := c.Lookup(context.Background(), "8.8.8.8")

	assert.Equal(t, "United States", loc.Country)
	assert.Equal(t, "California", loc.Region)
	assert.Equal(t, "Mountain View", loc.City)
}

func TestLookupPrivateIPSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zap.NewNop())

	for _, ip := range []string{"127.0.0.1", "::1", "192.168.1.10", "10.0.0.5", "localhost"} {
		loc := c.Lookup(context.Background(), ip)
		assert.Equal(t, LocalLocation(), loc, "ip=%s", ip)
	}
	assert.Zero(t, calls.Load(), "private IPs must not trigger a network lookup")
}

func TestLookupTimeoutReturnsUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 20*time.Millisecond, zap.NewNop())
	loc := c.Lookup(context.Background(), "8.8.8.8")

	assert.Equal(t, UnknownLocation(), loc)
}

func TestLookupServerErrorReturnsUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zap.NewNop())
	assert.Equal(t, UnknownLocation(), c.Lookup(context.Background(), "8.8.8.8"))
}

func TestLookupMalformedPayloadReturnsUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zap.NewNop())
	assert.Equal(t, UnknownLocation(), c.Lookup(context.Background(), "8.8.8.8"))
}

func TestLookupPartialPayloadFillsUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"country":"France"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zap.NewNop())
	loc := c.Lookup(context.Background(), "8.8.8.8")

	assert.Equal(t, "France", loc.Country)
	assert.Equal(t, Unknown, loc.Region)
	assert.Equal(t, Unknown, loc.City)
}

func TestLookupEmptyIP(t *testing.T) {
	c := NewClient("http://unused.invalid", time.Second, zap.NewNop())
	assert.Equal(t, UnknownLocation(), c.Lookup(context.Background(), ""))
}
