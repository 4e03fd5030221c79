package ai

import (
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrRateLimited indicates the gateway answered 429. Callers may retry later.
	ErrRateLimited = errors.New("rate limit exceeded, please try again later")
	// ErrBillingRequired indicates the gateway answered 402.
	ErrBillingRequired = errors.New("payment required, please add credits to the AI gateway")
	// ErrEvaluationService covers every other gateway failure.
	ErrEvaluationService = errors.New("AI evaluation service error")
	// ErrInvalidResponseFormat indicates the model did not answer through the expected tool call.
	ErrInvalidResponseFormat = errors.New("invalid AI response format")
)

// classifyGatewayError maps an upstream failure onto the exported error kinds.
func classifyGatewayError(err error) error {
	switch gatewayStatus(err) {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case http.StatusPaymentRequired:
		return fmt.Errorf("%w: %v", ErrBillingRequired, err)
	default:
		return fmt.Errorf("%w: %v", ErrEvaluationService, err)
	}
}

func gatewayStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
