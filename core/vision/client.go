// Package vision sends still frames to an OpenAI-style chat-completions
// endpoint for one-shot analysis. It backs tool handlers that need to
// answer questions about what the camera currently sees, outside the live
// session's own streaming channel.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jonw15/Memorize-AI-Meta-Glasses-sub001/internal/utils"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultBaseURL = "https://api.openai.com/v1"

type Client struct {
	apiKey  string
	baseURL string
	model   string

	httpClient *http.Client
}

type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

func NewClient(apiKey, model string, opts ...ClientOption) *Client {
	client := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   model,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens *int          `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Analyze describes the JPEG image according to prompt and returns the
// model's text answer.
func (c *Client) Analyze(ctx context.Context, image []byte, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "analyze image")
	defer span.End()

	encodedImage := base64.StdEncoding.EncodeToString(image)
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &imageURL{
					URL: "data:image/jpeg;base64," + encodedImage,
				}},
			},
		}},
		MaxTokens: utils.Ptr(1024),
	}

	requestBodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", c.recordError(span, fmt.Errorf("error marshalling JSON: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return "", c.recordError(span, fmt.Errorf("error creating HTTP request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", c.recordError(span, fmt.Errorf("error sending request: %w", err))
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", c.recordError(span, fmt.Errorf("error reading response body: %w", err))
	}

	var responseBody chatResponse
	if err := json.Unmarshal(bodyBytes, &responseBody); err != nil {
		return "", c.recordError(span, fmt.Errorf("error unmarshalling response body: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		if responseBody.Error != nil {
			return "", c.recordError(span, fmt.Errorf("non-OK HTTP status: %s: %s", resp.Status, responseBody.Error.Message))
		}
		return "", c.recordError(span, fmt.Errorf("non-OK HTTP status: %s", resp.Status))
	}

	if len(responseBody.Choices) == 0 {
		return "", c.recordError(span, fmt.Errorf("response contained no choices"))
	}

	answer := responseBody.Choices[0].Message.Content
	logger.DebugContext(ctx, "Image analyzed", "model", c.model, "answer_length", len(answer))
	return answer, nil
}

func (c *Client) recordError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
