package rpc

import "fmt"

// RpcError is returned inside result with status "error"
type RpcError struct {
	Code        int    `json:"error_code"`
	ErrorString string `json:"error"`
	Message     string `json:"error_message,omitempty"`
}

func (e *RpcError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.ErrorString, e.Code, e.Message)
}

// Error codes
const (
	RpcJSON_INVALID     = -32700
	RpcINTERNAL         = -32603
	RpcINVALID_PARAMS   = 31
	RpcMETHOD_NOT_FOUND = 32
	RpcMISSING_COMMAND  = 2
	RpcACT_MALFORMED    = 35
	RpcACT_NOT_FOUND    = 19
	RpcTXN_NOT_FOUND    = 24
	RpcENTRY_NOT_FOUND  = 21
	RpcNOT_ENABLED      = 12
	RpcSHUT_DOWN        = 58
	RpcINVALID_HASH     = 44
	RpcSTREAM_MALFORMED = 26
)

func NewRpcError(code int, errorString, message string) *RpcError {
	return &RpcError{
		Code:        code,
		ErrorString: errorString,
		Message:     message,
	}
}

func RpcErrorInvalidParams(message string) *RpcError {
	return NewRpcError(RpcINVALID_PARAMS, "invalidParams", message)
}

func RpcErrorMethodNotFound(method string) *RpcError {
	return NewRpcError(RpcMETHOD_NOT_FOUND, "unknownCmd", "Unknown method: "+method)
}

func RpcErrorMissingField(field string) *RpcError {
	return NewRpcError(RpcINVALID_PARAMS, "invalidParams", "Missing field '"+field+"'.")
}

func RpcErrorInvalidField(field string) *RpcError {
	return NewRpcError(RpcINVALID_PARAMS, "invalidParams", "Invalid field '"+field+"'.")
}

func RpcErrorActMalformed(message string) *RpcError {
	return NewRpcError(RpcACT_MALFORMED, "actMalformed", message)
}

func RpcErrorActNotFound(message string) *RpcError {
	return NewRpcError(RpcACT_NOT_FOUND, "actNotFound", message)
}

func RpcErrorEntryNotFound(message string) *RpcError {
	return NewRpcError(RpcENTRY_NOT_FOUND, "entryNotFound", message)
}

func RpcErrorTxnNotFound(message string) *RpcError {
	return NewRpcError(RpcTXN_NOT_FOUND, "txnNotFound", message)
}

func RpcErrorNotEnabled(feature string) *RpcError {
	return NewRpcError(RpcNOT_ENABLED, "notEnabled", "Feature not enabled: "+feature)
}

func RpcErrorShutDown(message string) *RpcError {
	return NewRpcError(RpcSHUT_DOWN, "shutDown", message)
}

func RpcErrorInternal(message string) *RpcError {
	return NewRpcError(RpcINTERNAL, "internal", message)
}
