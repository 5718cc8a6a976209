package errors

import (
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	ErrCodeSessionNotFound    ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeSessionStoreFailed ErrorCode = "SESSION_STORE_FAILED"
	ErrCodeCourseNotFound     ErrorCode = "COURSE_NOT_FOUND"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeEvidenceQueryFailed           ErrorCode = "EVIDENCE_QUERY_FAILED"
	ErrCodeIndexNotFound                 ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeLLMTimeout         ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMRequestFailed   ErrorCode = "LLM_REQUEST_FAILED"
	ErrCodeLLMMalformedOutput ErrorCode = "LLM_MALFORMED_OUTPUT"

	ErrCodeWebSearchTimeout     ErrorCode = "WEB_SEARCH_TIMEOUT"
	ErrCodeWebSearchAuthFailed  ErrorCode = "WEB_SEARCH_AUTH_FAILED"
	ErrCodeWebSearchRateLimited ErrorCode = "WEB_SEARCH_RATE_LIMITED"
	ErrCodeWebSearchFailed      ErrorCode = "WEB_SEARCH_FAILED"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Job input failed validation", details, false)
}

func NewSessionNotFoundError(sessionID string) *StandardError {
	return newError(ErrCodeSessionNotFound, "Session not found or expired", fmt.Sprintf("sessionId: %s", sessionID), false)
}

func NewSessionStoreFailedError(err error) *StandardError {
	return newError(ErrCodeSessionStoreFailed, "Session store unavailable", err.Error(), true)
}

func NewCourseNotFoundError(course string) *StandardError {
	return newError(ErrCodeCourseNotFound, "Course is not in the catalog", fmt.Sprintf("course: %s", course), false)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

func NewQueryExecutionFailedError(queryName string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("query: %s, error: %s", queryName, err.Error()), true)
}

func NewQueryTimeoutError(queryName string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout", fmt.Sprintf("query: %s", queryName), true)
}

func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeElasticsearchConnectionFailed, "Elasticsearch connection error", err.Error(), true)
}

func NewEvidenceQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeEvidenceQueryFailed, "Evidence store query error",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

func NewIndexNotFoundError(indexName string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Elasticsearch index not found", fmt.Sprintf("indexName: %s", indexName), false)
}

func NewLLMTimeoutError() *StandardError {
	return newError(ErrCodeLLMTimeout, "Language model timeout", "call exceeded the worker deadline", true)
}

func NewLLMRequestFailedError(err error) *StandardError {
	return newError(ErrCodeLLMRequestFailed, "Language model request failed", err.Error(), true)
}

func NewLLMMalformedOutputError(details string) *StandardError {
	return newError(ErrCodeLLMMalformedOutput, "Language model returned unparseable output", details, false)
}

func NewWebSearchTimeoutError() *StandardError {
	return newError(ErrCodeWebSearchTimeout, "Web search API timeout", "search call exceeded its timeout", false)
}

func NewWebSearchAuthFailedError(details string) *StandardError {
	return newError(ErrCodeWebSearchAuthFailed, "Web search authentication failed", details, false)
}

func NewWebSearchRateLimitedError(details string) *StandardError {
	return newError(ErrCodeWebSearchRateLimited, "Web search rate limit exceeded", details, true)
}

func NewWebSearchFailedError(err error) *StandardError {
	return newError(ErrCodeWebSearchFailed, "Web search request failed", err.Error(), true)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError("EXTERNAL_SERVICE_ERROR", fmt.Sprintf("External service '%s' error", service), err.Error(), true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError("TIMEOUT_ERROR", fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError("RESOURCE_NOT_FOUND", fmt.Sprintf("Resource not found in %s", service), details, false)
}

func NewAuthenticationError(details string) *StandardError {
	return newError("AUTHENTICATION_ERROR", "Authentication failed", details, false)
}

func NewBusinessRuleError(message, details string) *StandardError {
	return newError("BUSINESS_RULE_VIOLATION", message, details, false)
}

// BPMNErrorMapping maps internal codes to the error codes caught by
// boundary events in the course-assistant process models.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:                  "INVALID_INPUT",
	ErrCodeSessionNotFound:               "SESSION_NOT_FOUND",
	ErrCodeSessionStoreFailed:            "SESSION_STORE_FAILED",
	ErrCodeCourseNotFound:                "COURSE_NOT_FOUND",
	ErrCodeDatabaseConnectionFailed:      "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:          "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:                  "QUERY_TIMEOUT",
	ErrCodeElasticsearchConnectionFailed: "ELASTICSEARCH_CONNECTION_FAILED",
	ErrCodeEvidenceQueryFailed:           "EVIDENCE_QUERY_FAILED",
	ErrCodeIndexNotFound:                 "INDEX_NOT_FOUND",
	ErrCodeLLMTimeout:                    "LLM_TIMEOUT",
	ErrCodeLLMRequestFailed:              "LLM_REQUEST_FAILED",
	ErrCodeLLMMalformedOutput:            "LLM_MALFORMED_OUTPUT",
	ErrCodeWebSearchTimeout:              "WEB_SEARCH_TIMEOUT",
	ErrCodeWebSearchAuthFailed:           "WEB_SEARCH_AUTH_FAILED",
	ErrCodeWebSearchRateLimited:          "WEB_SEARCH_RATE_LIMITED",
	ErrCodeWebSearchFailed:               "WEB_SEARCH_FAILED",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSessionStoreFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeEvidenceQueryFailed,
		ErrCodeLLMRequestFailed,
		ErrCodeWebSearchFailed:
		return 3

	case ErrCodeQueryTimeout,
		ErrCodeWebSearchRateLimited:
		return 2

	case ErrCodeLLMTimeout:
		return 1

	default:
		return 0 // business errors are thrown, not retried
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SESSION") || strings.Contains(codeStr, "COURSE"):
		return "SESSION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY_"):
		return "DATABASE"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "EVIDENCE") || strings.Contains(codeStr, "INDEX"):
		return "RETRIEVAL"
	case strings.Contains(codeStr, "WEB_SEARCH"):
		return "WEB_SEARCH"
	case strings.Contains(codeStr, "LLM"):
		return "AI"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
