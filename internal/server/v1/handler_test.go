package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/provider-hub/internal/gateway"
	"github.com/nulzo/provider-hub/internal/httpclient"
	"github.com/nulzo/provider-hub/internal/llm"
	"github.com/nulzo/provider-hub/internal/server/middleware"
	"github.com/nulzo/provider-hub/internal/server/validator"
	"github.com/nulzo/provider-hub/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) RegisterProvider(p llm.Provider) error {
	return m.Called(p).Error(0)
}

func (m *MockService) Providers() []api.ProviderSummary {
	return m.Called().Get(0).([]api.ProviderSummary)
}

func (m *MockService) ListModels(ctx context.Context, filter api.ModelFilter, creds gateway.Credentials) ([]api.ModelInfo, error) {
	args := m.Called(ctx, filter, creds)
	models, _ := args.Get(0).([]api.ModelInfo)
	return models, args.Error(1)
}

func (m *MockService) ModelInstance(ctx context.Context, providerName, model string, creds gateway.Credentials) (llm.LanguageModel, error) {
	args := m.Called(ctx, providerName, model, creds)
	lm, _ := args.Get(0).(llm.LanguageModel)
	return lm, args.Error(1)
}

func (m *MockService) CheckStatus(ctx context.Context, providerName string) (api.StatusCheckResult, error) {
	args := m.Called(ctx, providerName)
	return args.Get(0).(api.StatusCheckResult), args.Error(1)
}

func (m *MockService) CheckAPI(ctx context.Context, providerName, apiKey string) (api.StatusCheckResult, error) {
	args := m.Called(ctx, providerName, apiKey)
	return args.Get(0).(api.StatusCheckResult), args.Error(1)
}

type MockModel struct {
	mock.Mock
}

func (m *MockModel) ModelID() string { return "chutes-default" }
func (m *MockModel) BaseURL() string { return "https://api.chutes.ai/v1" }
func (m *MockModel) Generate(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*api.ChatResponse)
	return resp, args.Error(1)
}

func setupRouter(svc gateway.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	validator.InitValidator()

	r := gin.New()
	r.Use(middleware.ErrorHandler(zap.NewNop()))

	models := NewModelHandler(svc)
	r.GET("/v1/providers", models.ListProviders)
	r.GET("/v1/models", models.ListModels)

	status := NewStatusHandler(svc)
	r.GET("/v1/providers/:provider/status", status.ProviderStatus)
	r.POST("/v1/providers/:provider/status/api", status.APIStatus)

	chat := NewChatHandler(svc, zap.NewNop())
	r.POST("/v1/chat/completions", chat.CreateCompletion)

	r.GET("/health", NewHealthHandler().Health)
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	w := serve(setupRouter(new(MockService)), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestListProviders(t *testing.T) {
	svc := new(MockService)
	svc.On("Providers").Return([]api.ProviderSummary{{Name: "Chutes", APIKeyLink: "https://chutes.ai", StaticModels: 1}})

	w := serve(setupRouter(svc), httptest.NewRequest(http.MethodGet, "/v1/providers", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"object":"list","data":[{"name":"Chutes","api_key_link":"https://chutes.ai","static_models":1}]}`, w.Body.String())
}

func TestListModels(t *testing.T) {
	t.Run("forwards filter and header credentials", func(t *testing.T) {
		svc := new(MockService)
		enabled := true
		want := gateway.Credentials{
			APIKeys:          map[string]string{"Chutes": "sk-user"},
			ProviderSettings: map[string]api.ProviderSettings{"Chutes": {Enabled: &enabled, BaseURL: "https://proxy.local"}},
		}
		svc.On("ListModels", mock.Anything, api.ModelFilter{Provider: "chutes", Name: "llama"}, want).
			Return([]api.ModelInfo{{Name: "meta/llama", Label: "meta/llama", Provider: "Chutes", MaxTokenAllowed: 32000}}, nil)

		req := httptest.NewRequest(http.MethodGet, "/v1/models?provider=chutes&name=llama", nil)
		req.Header.Set(HeaderAPIKeys, `{"Chutes":"sk-user"}`)
		req.Header.Set(HeaderProviderSettings, `{"Chutes":{"enabled":true,"baseUrl":"https://proxy.local"}}`)
		w := serve(setupRouter(svc), req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"maxTokenAllowed":32000`)
		svc.AssertExpectations(t)
	})

	t.Run("empty list is not null", func(t *testing.T) {
		svc := new(MockService)
		svc.On("ListModels", mock.Anything, api.ModelFilter{}, gateway.Credentials{}).Return(nil, nil)

		w := serve(setupRouter(svc), httptest.NewRequest(http.MethodGet, "/v1/models", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"object":"list","data":[]}`, w.Body.String())
	})

	t.Run("malformed key header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
		req.Header.Set(HeaderAPIKeys, `not json`)
		w := serve(setupRouter(new(MockService)), req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown provider", func(t *testing.T) {
		svc := new(MockService)
		svc.On("ListModels", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: nope", gateway.ErrProviderNotFound))

		w := serve(setupRouter(svc), httptest.NewRequest(http.MethodGet, "/v1/models?provider=nope", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	})
}

func TestProviderStatus(t *testing.T) {
	svc := new(MockService)
	svc.On("CheckStatus", mock.Anything, "chutes").Return(api.StatusCheckResult{
		Status:    api.StatusOperational,
		Message:   "All systems operational",
		Incidents: []string{},
	}, nil)
	svc.On("CheckStatus", mock.Anything, "local").Return(api.StatusCheckResult{},
		fmt.Errorf("%w: local", gateway.ErrStatusNotSupported))

	r := setupRouter(svc)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/v1/providers/chutes/status", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"operational","message":"All systems operational","incidents":[]}`, w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/v1/providers/local/status", nil))
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestAPIStatus(t *testing.T) {
	t.Run("requires a key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/providers/chutes/status/api", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := serve(setupRouter(new(MockService)), req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeProblem(t, w)
		assert.Contains(t, body["errors"], "api_key")
	})

	t.Run("rejected key is still a 200", func(t *testing.T) {
		svc := new(MockService)
		svc.On("CheckAPI", mock.Anything, "chutes", "sk-bad").Return(api.StatusCheckResult{
			Status:    api.StatusDown,
			Message:   "API error: 401 Unauthorized",
			Incidents: []string{"Authentication failed"},
		}, nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/providers/chutes/status/api", strings.NewReader(`{"api_key":"sk-bad"}`))
		req.Header.Set("Content-Type", "application/json")
		w := serve(setupRouter(svc), req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"down"`)
	})
}

func chatBody(model string) *strings.Reader {
	return strings.NewReader(fmt.Sprintf(`{"provider":"Chutes","model":%q,"messages":[{"role":"user","content":"hi"}]}`, model))
}

func TestCreateCompletion(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		lm := new(MockModel)
		lm.On("Generate", mock.Anything, mock.MatchedBy(func(r *api.ChatRequest) bool {
			return r.Model == "chutes-default" && len(r.Messages) == 1
		})).Return(&api.ChatResponse{
			ID:      "chatcmpl-1",
			Object:  "chat.completion",
			Model:   "chutes-default",
			Choices: []api.Choice{{Message: &api.ChatMessage{Role: "assistant", Content: "hello"}, FinishReason: "stop"}},
		}, nil)

		svc := new(MockService)
		svc.On("ModelInstance", mock.Anything, "Chutes", "chutes-default", gateway.Credentials{}).Return(lm, nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", chatBody("chutes-default"))
		req.Header.Set("Content-Type", "application/json")
		w := serve(setupRouter(svc), req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"content":"hello"`)
		lm.AssertExpectations(t)
	})

	t.Run("bad role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions",
			strings.NewReader(`{"provider":"Chutes","model":"m","messages":[{"role":"robot","content":"hi"}]}`))
		req.Header.Set("Content-Type", "application/json")
		w := serve(setupRouter(new(MockService)), req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeProblem(t, w)
		errs, ok := body["errors"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "must be one of [user, assistant, system]", errs["messages[0].role"])
	})

	errCases := []struct {
		name string
		err  error
		want int
	}{
		{"missing key", &llm.MissingCredentialError{Provider: "Chutes"}, http.StatusUnauthorized},
		{"invalid model id", fmt.Errorf("%w: %q", llm.ErrInvalidModelID, "/x"), http.StatusBadRequest},
		{"unknown provider", gateway.ErrProviderNotFound, http.StatusNotFound},
	}
	for _, tc := range errCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("ModelInstance", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, tc.err)

			req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", chatBody("x"))
			req.Header.Set("Content-Type", "application/json")
			w := serve(setupRouter(svc), req)

			assert.Equal(t, tc.want, w.Code)
		})
	}

	t.Run("upstream failure", func(t *testing.T) {
		lm := new(MockModel)
		lm.On("Generate", mock.Anything, mock.Anything).
			Return(nil, &httpclient.UpstreamError{StatusCode: http.StatusServiceUnavailable, URL: "https://api.chutes.ai/v1/chat/completions"})

		svc := new(MockService)
		svc.On("ModelInstance", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(lm, nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", chatBody("chutes-default"))
		req.Header.Set("Content-Type", "application/json")
		w := serve(setupRouter(svc), req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		body := decodeProblem(t, w)
		assert.EqualValues(t, 503, body["upstream_status"])
	})
}
