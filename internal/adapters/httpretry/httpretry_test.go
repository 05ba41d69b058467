package httpretry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func retryFixture(t *testing.T, handler http.HandlerFunc) (*http.Client, func() (*http.Request, error)) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	makeReq := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, srv.URL, nil)
	}
	return srv.Client(), makeReq
}

func TestDoWithRetryRecoversFromTransientFailure(t *testing.T) {
	var hits int
	client, makeReq := retryFixture(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	resp, err := DoWithRetry(context.Background(), client, makeReq)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 3, hits)
}

func TestDoWithRetryDoesNotRetryClientErrors(t *testing.T) {
	var hits int
	client, makeReq := retryFixture(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "bad coordinates", http.StatusBadRequest)
	})

	_, err := DoWithRetry(context.Background(), client, makeReq)
	require.Error(t, err)
	assert.Equal(t, 1, hits, "4xx other than 429 must not be retried")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, "bad coordinates", se.Body)
}

func TestDoWithRetryGivesUpAfterMaxAttempts(t *testing.T) {
	var hits int
	client, makeReq := retryFixture(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := DoWithRetry(context.Background(), client, makeReq)
	require.Error(t, err)
	assert.Equal(t, 3, hits)
}

func TestDoWithRetryHonorsCancellation(t *testing.T) {
	client, makeReq := retryFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := DoWithRetry(ctx, client, makeReq)
	assert.ErrorIs(t, err, context.Canceled)
}
