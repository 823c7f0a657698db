package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType classifies a provider failure independent of the wire format.
type ErrorType string

const (
	ErrorTypeUnknown           ErrorType = "unknown"
	ErrorTypeInvalidRequest    ErrorType = "invalid_request"
	ErrorTypeAuthentication    ErrorType = "authentication_error"
	ErrorTypePermission        ErrorType = "permission_error"
	ErrorTypeNotFound          ErrorType = "not_found"
	ErrorTypeRateLimit         ErrorType = "rate_limit_exceeded"
	ErrorTypeInsufficientQuota ErrorType = "insufficient_quota"
	ErrorTypeInvalidModel      ErrorType = "invalid_model"
	ErrorTypeContextLength     ErrorType = "context_length_exceeded"
	ErrorTypeContentFilter     ErrorType = "content_filter"
	ErrorTypeServerError       ErrorType = "server_error"
	ErrorTypeOverloaded        ErrorType = "overloaded"
	ErrorTypeTimeout           ErrorType = "timeout"
	ErrorTypeConnectionError   ErrorType = "connection_error"
	ErrorTypeValidationError   ErrorType = "validation_error"
	ErrorTypeJSONParsingError  ErrorType = "json_parsing_error"
)

// LLMError is the provider-neutral error surfaced by every client. Retryable
// is derived from the type; RetryAfter carries a server-suggested backoff in
// seconds when one was supplied.
type LLMError struct {
	Type       ErrorType         `json:"type"`
	Message    string            `json:"message"`
	Code       string            `json:"code,omitempty"`
	Provider   Provider          `json:"provider"`
	Model      string            `json:"model,omitempty"`
	HTTPStatus int               `json:"http_status,omitempty"`
	Retryable  bool              `json:"retryable"`
	RetryAfter int               `json:"retry_after,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
	Cause      error             `json:"-"`
}

func (e *LLMError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *LLMError) Unwrap() error {
	return e.Cause
}

func (e *LLMError) IsRetryable() bool {
	return e.Retryable
}

// NewLLMError builds an error with Retryable derived from the type.
func NewLLMError(provider Provider, errorType ErrorType, message string) *LLMError {
	return &LLMError{
		Type:      errorType,
		Message:   message,
		Provider:  provider,
		Retryable: isRetryableError(errorType),
	}
}

// NewLLMErrorWithCause additionally keeps the underlying error for Unwrap.
func NewLLMErrorWithCause(provider Provider, errorType ErrorType, message string, cause error) *LLMError {
	err := NewLLMError(provider, errorType, message)
	err.Cause = cause
	return err
}

func isRetryableError(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeRateLimit, ErrorTypeServerError, ErrorTypeOverloaded, ErrorTypeTimeout, ErrorTypeConnectionError:
		return true
	default:
		return false
	}
}

// ParseHTTPError maps an HTTP status and response body to an LLMError. The
// status table follows the OpenAI-compatible wire contract that both OpenAI
// and DeepSeek speak: notably 402 (insufficient balance) and 422 (invalid
// parameters) from DeepSeek, and 503 when the endpoint is overloaded.
func ParseHTTPError(provider Provider, statusCode int, body string) *LLMError {
	var errorType ErrorType
	var message string
	retryable := false

	switch statusCode {
	case http.StatusBadRequest:
		errorType = ErrorTypeInvalidRequest
		message = "Invalid request parameters"
	case http.StatusUnauthorized:
		errorType = ErrorTypeAuthentication
		message = "Invalid API key or authentication failed"
	case http.StatusPaymentRequired:
		errorType = ErrorTypeInsufficientQuota
		message = "Insufficient account balance"
	case http.StatusForbidden:
		errorType = ErrorTypePermission
		message = "Permission denied"
	case http.StatusNotFound:
		errorType = ErrorTypeNotFound
		message = "Resource not found"
	case http.StatusUnprocessableEntity:
		errorType = ErrorTypeInvalidRequest
		message = "Invalid request parameters"
	case http.StatusTooManyRequests:
		errorType = ErrorTypeRateLimit
		message = "Rate limit exceeded"
		retryable = true
	case http.StatusServiceUnavailable:
		errorType = ErrorTypeOverloaded
		message = "Server overloaded"
		retryable = true
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusGatewayTimeout:
		errorType = ErrorTypeServerError
		message = "Server error occurred"
		retryable = true
	default:
		errorType = ErrorTypeUnknown
		message = fmt.Sprintf("HTTP %d error", statusCode)
	}

	// A recognizable body pattern is more specific than the status code.
	if body != "" {
		if specificError := classifyBody(provider, body); specificError != nil {
			specificError.HTTPStatus = statusCode
			return specificError
		}
		message = fmt.Sprintf("%s: %s", message, truncateBody(body, 200))
	}

	return &LLMError{
		Type:       errorType,
		Message:    message,
		Provider:   provider,
		HTTPStatus: statusCode,
		Retryable:  retryable,
	}
}

// classifyBody matches the error phrasings the OpenAI-compatible providers
// put in response bodies, sometimes under statuses that say less than the
// text does.
func classifyBody(provider Provider, body string) *LLMError {
	lowerBody := strings.ToLower(body)

	switch {
	case strings.Contains(lowerBody, "rate limit") || strings.Contains(lowerBody, "too many requests"):
		return &LLMError{
			Type:      ErrorTypeRateLimit,
			Message:   "Rate limit exceeded",
			Provider:  provider,
			Retryable: true,
		}
	case strings.Contains(lowerBody, "insufficient balance") ||
		strings.Contains(lowerBody, "insufficient quota") ||
		strings.Contains(lowerBody, "quota exceeded"):
		return &LLMError{
			Type:     ErrorTypeInsufficientQuota,
			Message:  "Insufficient quota or balance",
			Provider: provider,
		}
	case strings.Contains(lowerBody, "context length") || strings.Contains(lowerBody, "token limit"):
		return &LLMError{
			Type:     ErrorTypeContextLength,
			Message:  "Context length exceeded",
			Provider: provider,
		}
	case strings.Contains(lowerBody, "content filter") || strings.Contains(lowerBody, "safety"):
		return &LLMError{
			Type:     ErrorTypeContentFilter,
			Message:  "Content filtered by safety system",
			Provider: provider,
		}
	case strings.Contains(lowerBody, "model") &&
		(strings.Contains(lowerBody, "not found") || strings.Contains(lowerBody, "invalid") || strings.Contains(lowerBody, "not exist")):
		return &LLMError{
			Type:     ErrorTypeInvalidModel,
			Message:  "Invalid or unavailable model",
			Provider: provider,
		}
	}
	return nil
}

func truncateBody(body string, maxLength int) string {
	if len(body) <= maxLength {
		return body
	}
	return body[:maxLength] + "..."
}

// IsLLMError extracts an *LLMError from err, looking through wrapping.
func IsLLMError(err error) (*LLMError, bool) {
	var llmErr *LLMError
	if errors.As(err, &llmErr) {
		return llmErr, true
	}
	return nil, false
}

// IsRetryableError reports whether err should be retried. Retryability is
// computed from the error type so a hand-built LLMError classifies the same
// as one from a constructor.
func IsRetryableError(err error) bool {
	if llmErr, ok := IsLLMError(err); ok {
		return isRetryableError(llmErr.Type)
	}
	return false
}

func IsRateLimitError(err error) bool {
	if llmErr, ok := IsLLMError(err); ok {
		return llmErr.Type == ErrorTypeRateLimit
	}
	return false
}

func IsContextLengthError(err error) bool {
	if llmErr, ok := IsLLMError(err); ok {
		return llmErr.Type == ErrorTypeContextLength
	}
	return false
}

func IsAuthenticationError(err error) bool {
	if llmErr, ok := IsLLMError(err); ok {
		return llmErr.Type == ErrorTypeAuthentication
	}
	return false
}

// IsQuotaError reports whether err means the account is out of quota or
// balance; these never resolve by retrying.
func IsQuotaError(err error) bool {
	if llmErr, ok := IsLLMError(err); ok {
		return llmErr.Type == ErrorTypeInsufficientQuota
	}
	return false
}
