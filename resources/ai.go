package resources

import (
	"context"
	"net/http"

	"github.com/gaborage/dataapi-go/apierror"
	"github.com/gaborage/dataapi-go/httpclient"
	"github.com/gaborage/dataapi-go/page"
	"github.com/gaborage/dataapi-go/types"
	"github.com/gaborage/dataapi-go/validation"
)

const (
	aiProvidersPath = "/ai-providers"
	aiPath          = "/ai"
)

// Provider is a configured AI provider.
type Provider struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Status    string          `json:"status"`
	Endpoint  string          `json:"endpoint,omitempty"`
	Models    []string        `json:"models,omitempty"`
	CreatedAt types.Timestamp `json:"createdAt"`
}

// ProviderConfig is tested with Test before it is saved.
type ProviderConfig struct {
	Type     string `json:"type" validate:"required"`
	APIKey   string `json:"apiKey,omitempty"`
	Endpoint string `json:"endpoint,omitempty" validate:"omitempty,url"`
	Model    string `json:"model,omitempty"`
}

// ProviderTestResult is the outcome of a provider connectivity check.
type ProviderTestResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
}

// InvokeRequest calls a provider with free-form input.
type InvokeRequest struct {
	Input      types.Value `json:"input"`
	Parameters types.Value `json:"parameters,omitzero"`
}

// InvokeResponse is the raw answer of a provider invocation.
type InvokeResponse struct {
	Output     types.Value `json:"output"`
	RequestID  string      `json:"requestId,omitempty"`
	TokensUsed int         `json:"tokensUsed"`
}

// TextRequest asks for a text completion.
type TextRequest struct {
	Prompt      string                  `json:"prompt" validate:"required"`
	Model       string                  `json:"model,omitempty"`
	ProviderID  string                  `json:"providerId,omitempty" validate:"omitempty,resource_id"`
	MaxTokens   types.Optional[int]     `json:"maxTokens,omitzero"`
	Temperature types.Optional[float64] `json:"temperature,omitzero"`
	Stream      bool                    `json:"stream,omitempty"`
}

// TextResult is the generated text and its token accounting.
type TextResult struct {
	Text         string `json:"text"`
	Model        string `json:"model"`
	TokensUsed   int    `json:"tokensUsed"`
	FinishReason string `json:"finishReason,omitempty"`
}

// EmbeddingRequest asks for one vector per input.
type EmbeddingRequest struct {
	Input []string `json:"input" validate:"required,min=1,dive,required"`
	Model string   `json:"model,omitempty"`
}

// EmbeddingResult holds vectors in input order.
type EmbeddingResult struct {
	Embeddings [][]float64 `json:"embeddings"`
	Model      string      `json:"model"`
	TokensUsed int         `json:"tokensUsed"`
}

// Usage summarizes AI consumption over a period.
type Usage struct {
	TotalRequests int64   `json:"totalRequests"`
	TotalTokens   int64   `json:"totalTokens"`
	TotalCost     float64 `json:"totalCost"`
	Period        string  `json:"period,omitempty"`
}

// UsageQuery narrows Usage to a date range (YYYY-MM-DD) and model.
type UsageQuery struct {
	StartDate string `validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `validate:"omitempty,datetime=2006-01-02"`
	Model     string
}

// AI wraps the AI provider and generation endpoints.
type AI struct {
	c httpclient.Client
}

// NewAI binds the AI endpoints to c.
func NewAI(c httpclient.Client) *AI { return &AI{c: c} }

// Page lists configured AI providers.
func (a *AI) Page(ctx context.Context, req PageRequest) (page.Result[Provider], error) {
	return getPage[Provider](ctx, a.c, aiProvidersPath, req)
}

// Get fetches one AI provider.
func (a *AI) Get(ctx context.Context, id string) (Provider, error) {
	return getByID[Provider](ctx, a.c, "id", aiProvidersPath, id)
}

// Test checks a provider configuration without saving it.
func (a *AI) Test(ctx context.Context, cfg ProviderConfig) (ProviderTestResult, error) {
	return send[ProviderTestResult](ctx, a.c, http.MethodPost, aiProvidersPath+"/test", cfg, httpclient.AllowRetry())
}

// Invoke calls provider id. Invocations are billed, so they are not retried.
func (a *AI) Invoke(ctx context.Context, id string, req InvokeRequest) (InvokeResponse, error) {
	p, err := idPath("id", aiProvidersPath, id, "invoke")
	if err != nil {
		return InvokeResponse{}, err
	}
	return send[InvokeResponse](ctx, a.c, http.MethodPost, p, req)
}

// GenerateText runs a single text generation.
func (a *AI) GenerateText(ctx context.Context, req TextRequest) (TextResult, error) {
	req.Stream = false
	return send[TextResult](ctx, a.c, http.MethodPost, aiPath+"/generate/text", req)
}

// StreamText generates text and hands each chunk to fn as the server flushes
// it. The request is retried only until the first chunk arrives.
func (a *AI) StreamText(ctx context.Context, req TextRequest, fn func(chunk string) error) error {
	if fn == nil {
		return apierror.NewValidationError("stream consumer cannot be nil", "fn")
	}
	req.Stream = true
	if err := validation.Struct(req); err != nil {
		return err
	}
	r := httpclient.NewRequest(http.MethodPost, aiPath+"/generate/text",
		httpclient.WithBody(req),
		httpclient.WithHeader("Accept", "text/plain"),
		httpclient.AllowRetry(),
	)
	return a.c.Stream(ctx, r, func(chunk []byte) error { return fn(string(chunk)) })
}

// Embeddings computes vectors for the given inputs.
func (a *AI) Embeddings(ctx context.Context, req EmbeddingRequest) (EmbeddingResult, error) {
	return send[EmbeddingResult](ctx, a.c, http.MethodPost, aiPath+"/embeddings", req, httpclient.AllowRetry())
}

// Usage reports token consumption for the queried window.
func (a *AI) Usage(ctx context.Context, q UsageQuery) (Usage, error) {
	if err := validation.Struct(q); err != nil {
		return Usage{}, err
	}
	var opts []httpclient.RequestOption
	if q.StartDate != "" {
		opts = append(opts, httpclient.WithQuery("startDate", q.StartDate))
	}
	if q.EndDate != "" {
		opts = append(opts, httpclient.WithQuery("endDate", q.EndDate))
	}
	if q.Model != "" {
		opts = append(opts, httpclient.WithQuery("model", q.Model))
	}
	return httpclient.Execute[Usage](ctx, a.c, httpclient.NewRequest(http.MethodGet, aiPath+"/usage", opts...))
}
