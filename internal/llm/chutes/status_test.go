package chutes_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/nulzo/provider-hub/internal/llm"
	"github.com/nulzo/provider-hub/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChecker(t *testing.T, settings llm.Settings) llm.StatusChecker {
	t.Helper()
	checker, ok := newAdapter(t, settings).(llm.StatusChecker)
	require.True(t, ok)
	return checker
}

func statusServer(code int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}))
}

func TestCheckStatus_SuccessCodes(t *testing.T) {
	for _, code := range []int{http.StatusOK, http.StatusCreated, http.StatusNoContent, 299} {
		t.Run(strconv.Itoa(code), func(t *testing.T) {
			server := statusServer(code)
			defer server.Close()

			res := newChecker(t, llm.Settings{StatusURL: server.URL}).CheckStatus(context.Background())

			assert.Equal(t, api.StatusOperational, res.Status)
			assert.Equal(t, "Chutes status page is accessible", res.Message)
			assert.Empty(t, res.Incidents)
		})
	}
}

func TestCheckStatus_NonSuccessCodes(t *testing.T) {
	for _, code := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusTooManyRequests, http.StatusServiceUnavailable} {
		t.Run(strconv.Itoa(code), func(t *testing.T) {
			server := statusServer(code)
			defer server.Close()

			res := newChecker(t, llm.Settings{StatusURL: server.URL}).CheckStatus(context.Background())

			assert.Equal(t, api.StatusDegraded, res.Status)
			assert.Equal(t, "Chutes status page is not responding normally", res.Message)
		})
	}
}

func TestCheckStatus_SendsNoCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	res := newChecker(t, llm.Settings{StatusURL: server.URL}).CheckStatus(context.Background())
	assert.Equal(t, api.StatusOperational, res.Status)
}

func TestCheckStatus_Unreachable(t *testing.T) {
	server := statusServer(http.StatusOK)
	url := server.URL
	server.Close()

	res := newChecker(t, llm.Settings{StatusURL: url}).CheckStatus(context.Background())

	assert.Equal(t, api.StatusDown, res.Status)
	assert.Equal(t, "Unable to connect to Chutes status page", res.Message)
	assert.Equal(t, []string{"Connection error"}, res.Incidents)
}

func TestCheckStatus_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	res := newChecker(t, llm.Settings{StatusURL: server.URL, Timeout: 50 * time.Millisecond}).CheckStatus(context.Background())

	assert.Equal(t, api.StatusDown, res.Status)
	assert.Equal(t, []string{"Connection error"}, res.Incidents)
}

func TestCheckAPI_Operational(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	res := newChecker(t, llm.Settings{APIURL: server.URL}).CheckAPI(context.Background(), "test-key")

	assert.Equal(t, api.StatusOperational, res.Status)
	assert.Empty(t, res.Incidents)

	m := regexp.MustCompile(`^API is operational \(response time: (\d+)ms\)$`).FindStringSubmatch(res.Message)
	require.Len(t, m, 2, res.Message)
	latency, err := strconv.Atoi(m[1])
	require.NoError(t, err)
	assert.GreaterOrEqual(t, latency, 0)
}

func TestCheckAPI_Degraded(t *testing.T) {
	server := statusServer(http.StatusUnauthorized)
	defer server.Close()

	res := newChecker(t, llm.Settings{APIURL: server.URL}).CheckAPI(context.Background(), "bad-key")

	assert.Equal(t, api.StatusDegraded, res.Status)
	assert.Equal(t, "API is responding with errors", res.Message)
	assert.Empty(t, res.Incidents)
}

func TestCheckAPI_Unreachable(t *testing.T) {
	server := statusServer(http.StatusOK)
	url := server.URL
	server.Close()

	res := newChecker(t, llm.Settings{APIURL: url}).CheckAPI(context.Background(), "test-key")

	assert.Equal(t, api.StatusDown, res.Status)
	assert.Equal(t, "Unable to connect to Chutes API", res.Message)
	assert.Equal(t, []string{"Connection error"}, res.Incidents)
}
