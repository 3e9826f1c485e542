package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// Codes follow the "<MODULE>_<nnn>" convention.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeStorageError       ErrorCode = "COMMON_014"
	ErrCodeMessagingError     ErrorCode = "COMMON_015"
)

// Ligand Module Error Codes
const (
	ErrCodeLigandParseFailed   ErrorCode = "LIG_001"
	ErrCodeLigandNotFound      ErrorCode = "LIG_002"
	ErrCodeLigandIndexInvalid  ErrorCode = "LIG_003"
	ErrCodeLigandLimitExceeded ErrorCode = "LIG_004"
	ErrCodeSortOrderInvalid    ErrorCode = "LIG_005"
)

// Protein Module Error Codes
const (
	ErrCodeProteinEmpty          ErrorCode = "PRO_001"
	ErrCodeProteinParseFailed    ErrorCode = "PRO_002"
	ErrCodeProteinPresetNotFound ErrorCode = "PRO_003"
	ErrCodeBindingSiteInvalid    ErrorCode = "PRO_004"
)

// Docking Module Error Codes
const (
	ErrCodeDockingNoResult      ErrorCode = "DCK_001"
	ErrCodeDockingToolMissing   ErrorCode = "DCK_002"
	ErrCodeDockingTimeout       ErrorCode = "DCK_003"
	ErrCodeDockingOutputInvalid ErrorCode = "DCK_004"
	ErrCodeDockingPrerequisite  ErrorCode = "DCK_005"
)

// Session Module Error Codes
const (
	ErrCodeSessionNotFound  ErrorCode = "SES_001"
	ErrCodeSessionLocked    ErrorCode = "SES_002"
	ErrCodeSessionNoProtein ErrorCode = "SES_003"
	ErrCodeSessionNoLigands ErrorCode = "SES_004"
)

// Short aliases used at call sites.
const (
	CodeOK      = ErrorCode("OK")
	CodeUnknown = ErrorCode("UNKNOWN")

	CodeInternal           = ErrCodeInternal
	CodeInvalidParam       = ErrCodeBadRequest
	CodeNotFound           = ErrCodeNotFound
	CodeConflict           = ErrCodeConflict
	CodeServiceUnavailable = ErrCodeServiceUnavailable
	CodeTimeout            = ErrCodeTimeout
	CodeValidation         = ErrCodeValidation
	CodeSerialization      = ErrCodeSerialization
	CodeDBQueryError       = ErrCodeDatabaseError
	CodeCacheError         = ErrCodeCacheError
	CodeStorageError       = ErrCodeStorageError
	CodeMessageQueueError  = ErrCodeMessagingError

	CodeLigandNotFound        = ErrCodeLigandNotFound
	CodeProteinPresetNotFound = ErrCodeProteinPresetNotFound
	CodeSessionNotFound       = ErrCodeSessionNotFound
	CodeDockingNoResult       = ErrCodeDockingNoResult
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeStorageError:       http.StatusInternalServerError,
	ErrCodeMessagingError:     http.StatusInternalServerError,

	ErrCodeLigandParseFailed:   http.StatusUnprocessableEntity,
	ErrCodeLigandNotFound:      http.StatusNotFound,
	ErrCodeLigandIndexInvalid:  http.StatusBadRequest,
	ErrCodeLigandLimitExceeded: http.StatusRequestEntityTooLarge,
	ErrCodeSortOrderInvalid:    http.StatusBadRequest,

	ErrCodeProteinEmpty:          http.StatusBadRequest,
	ErrCodeProteinParseFailed:    http.StatusUnprocessableEntity,
	ErrCodeProteinPresetNotFound: http.StatusNotFound,
	ErrCodeBindingSiteInvalid:    http.StatusBadRequest,

	ErrCodeDockingNoResult:      http.StatusBadGateway,
	ErrCodeDockingToolMissing:   http.StatusServiceUnavailable,
	ErrCodeDockingTimeout:       http.StatusGatewayTimeout,
	ErrCodeDockingOutputInvalid: http.StatusBadGateway,
	ErrCodeDockingPrerequisite:  http.StatusConflict,

	ErrCodeSessionNotFound:  http.StatusNotFound,
	ErrCodeSessionLocked:    http.StatusConflict,
	ErrCodeSessionNoProtein: http.StatusConflict,
	ErrCodeSessionNoLigands: http.StatusConflict,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization error",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeStorageError:       "object storage error",
	ErrCodeMessagingError:     "message queue error",

	ErrCodeLigandParseFailed:   "ligand file could not be parsed",
	ErrCodeLigandNotFound:      "ligand not found",
	ErrCodeLigandIndexInvalid:  "ligand index out of range",
	ErrCodeLigandLimitExceeded: "too many ligands",
	ErrCodeSortOrderInvalid:    "invalid score order",

	ErrCodeProteinEmpty:          "protein structure is empty",
	ErrCodeProteinParseFailed:    "protein structure could not be parsed",
	ErrCodeProteinPresetNotFound: "protein preset not found",
	ErrCodeBindingSiteInvalid:    "invalid binding site",

	ErrCodeDockingNoResult:      "docking produced no result",
	ErrCodeDockingToolMissing:   "docking tool not available",
	ErrCodeDockingTimeout:       "docking tool timed out",
	ErrCodeDockingOutputInvalid: "docking output could not be parsed",
	ErrCodeDockingPrerequisite:  "docking prerequisites missing",

	ErrCodeSessionNotFound:  "session not found",
	ErrCodeSessionLocked:    "session is being modified",
	ErrCodeSessionNoProtein: "no protein loaded",
	ErrCodeSessionNoLigands: "no ligands loaded",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 1 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
