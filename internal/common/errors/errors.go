// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeContractViolation     ErrorCode = "CONTRACT_VIOLATION"
	ErrCodeConfigurationMismatch ErrorCode = "CONFIGURATION_MISMATCH"
	ErrCodeTemplateNotFound      ErrorCode = "TEMPLATE_NOT_FOUND"

	ErrCodeEngineCommunication ErrorCode = "ENGINE_COMMUNICATION_FAILED"
	ErrCodeEngineTimeout       ErrorCode = "ENGINE_TIMEOUT"
	ErrCodeEngineRejected      ErrorCode = "ENGINE_REJECTED"

	ErrCodeAnswerDecodeFailed   ErrorCode = "ANSWER_DECODE_FAILED"
	ErrCodeResponseDecodeFailed ErrorCode = "RESPONSE_DECODE_FAILED"
	ErrCodeNothingAssembled     ErrorCode = "NOTHING_ASSEMBLED"

	ErrCodeInputValidationFailed ErrorCode = "INPUT_VALIDATION_FAILED"
	ErrCodeBrokerUnavailable     ErrorCode = "BROKER_UNAVAILABLE"
	ErrCodeInternal              ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// AsStandard extracts a StandardError from an error chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandard(err)
	return ok && stdErr.Code == code
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
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

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
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

// ==========================
// 3. Error Constructors
// ==========================

// NewContractViolationError reports a missing or blank required argument.
// operation names the call, param the offending parameter.
func NewContractViolationError(operation, param string) *StandardError {
	err := newError(ErrCodeContractViolation,
		fmt.Sprintf("%s: %s is required", operation, param),
		"", false, nil)
	err.Metadata = map[string]interface{}{"operation": operation, "parameter": param}
	return err
}

// NewConfigurationMismatchError reports a template outside the configured base path.
func NewConfigurationMismatchError(templatePath, basePath string) *StandardError {
	err := newError(ErrCodeConfigurationMismatch,
		"Template path is not under the configured base path",
		fmt.Sprintf("templatePath: %s, basePath: %s", templatePath, basePath),
		false, nil)
	err.Metadata = map[string]interface{}{"templatePath": templatePath, "basePath": basePath}
	return err
}

func NewTemplateNotFoundError(templatePath string) *StandardError {
	return newError(ErrCodeTemplateNotFound,
		"Template not found in template store",
		fmt.Sprintf("templatePath: %s", templatePath),
		false, nil)
}

// NewEngineCommunicationError wraps a transport failure talking to the engine.
func NewEngineCommunicationError(operation string, err error) *StandardError {
	return newError(ErrCodeEngineCommunication,
		fmt.Sprintf("Assembly engine communication failed during %s", operation),
		err.Error(), true, err)
}

func NewEngineTimeoutError(operation string, err error) *StandardError {
	return newError(ErrCodeEngineTimeout,
		fmt.Sprintf("Assembly engine timed out during %s", operation),
		err.Error(), true, err)
}

// NewEngineRejectedError reports a request the engine refused (4xx).
func NewEngineRejectedError(operation string, status int, body string) *StandardError {
	err := newError(ErrCodeEngineRejected,
		fmt.Sprintf("Assembly engine rejected %s", operation),
		fmt.Sprintf("status %d: %s", status, body),
		false, nil)
	err.Metadata = map[string]interface{}{"status": status}
	return err
}

// NewAnswerDecodeError names the positional answer source that failed.
func NewAnswerDecodeError(index int, err error) *StandardError {
	stdErr := newError(ErrCodeAnswerDecodeFailed,
		fmt.Sprintf("Answer source %d could not be decoded", index),
		err.Error(), false, err)
	stdErr.Metadata = map[string]interface{}{"sourceIndex": index}
	return stdErr
}

func NewResponseDecodeError(operation string, err error) *StandardError {
	return newError(ErrCodeResponseDecodeFailed,
		fmt.Sprintf("Engine response for %s could not be decoded", operation),
		err.Error(), false, err)
}

func NewNothingAssembledError(templateFile string) *StandardError {
	return newError(ErrCodeNothingAssembled,
		"Engine produced no document",
		fmt.Sprintf("template: %s", templateFile),
		false, nil)
}

func NewInputValidationError(details string) *StandardError {
	return newError(ErrCodeInputValidationFailed,
		"Job input failed validation",
		details, false, nil)
}

// NewBrokerError reports a failed workflow broker command.
func NewBrokerError(operation string, err error, retryable bool) *StandardError {
	code := ErrCodeInternal
	if retryable {
		code = ErrCodeBrokerUnavailable
	}
	stdErr := newError(code,
		fmt.Sprintf("Workflow broker operation '%s' failed", operation),
		err.Error(), retryable, err)
	stdErr.Metadata = map[string]interface{}{"operation": operation}
	return stdErr
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeContractViolation:     "CONTRACT_VIOLATION",
	ErrCodeConfigurationMismatch: "CONFIGURATION_MISMATCH",
	ErrCodeTemplateNotFound:      "TEMPLATE_NOT_FOUND",
	ErrCodeEngineCommunication:   "ENGINE_COMMUNICATION_FAILED",
	ErrCodeEngineTimeout:         "ENGINE_TIMEOUT",
	ErrCodeEngineRejected:        "ENGINE_REJECTED",
	ErrCodeAnswerDecodeFailed:    "ANSWER_DECODE_FAILED",
	ErrCodeResponseDecodeFailed:  "RESPONSE_DECODE_FAILED",
	ErrCodeNothingAssembled:      "NOTHING_ASSEMBLED",
	ErrCodeInputValidationFailed: "INPUT_VALIDATION_FAILED",
	ErrCodeBrokerUnavailable:     "BROKER_UNAVAILABLE",
}

// KnownBPMNCodes returns the set of BPMN error codes jobs can throw.
func KnownBPMNCodes() map[string]bool {
	known := make(map[string]bool, len(BPMNErrorMapping))
	for _, code := range BPMNErrorMapping {
		known[code] = true
	}
	return known
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeEngineCommunication:
		return 3
	case ErrCodeEngineTimeout, ErrCodeBrokerUnavailable:
		return 2
	default:
		return 0 // Business and contract errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
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

// ==========================
// 5. Utility Functions
// ==========================

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "ENGINE"):
		return "ENGINE"
	case strings.HasPrefix(codeStr, "BROKER"):
		return "BROKER"
	case strings.Contains(codeStr, "TEMPLATE") || strings.Contains(codeStr, "CONFIGURATION"):
		return "CONFIGURATION"
	case strings.Contains(codeStr, "DECODE") || codeStr == string(ErrCodeNothingAssembled):
		return "DECODE"
	case strings.Contains(codeStr, "CONTRACT") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
