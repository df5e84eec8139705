package epp

import "fmt"

// Code is an EPP result code (RFC 5730 section 3).
type Code int

// Result codes.
const (
	CodeSuccess        Code = 1000
	CodeSuccessPending Code = 1001
	CodeNoMessages     Code = 1300
	CodeAckToDequeue   Code = 1301
	CodeEndingSession  Code = 1500

	CodeUnknownCommand             Code = 2000
	CodeSyntaxError                Code = 2001
	CodeUseError                   Code = 2002
	CodeMissingParameter           Code = 2003
	CodeParameterValueRange        Code = 2004
	CodeParameterValueSyntax       Code = 2005
	CodeUnimplementedVersion       Code = 2100
	CodeUnimplementedCommand       Code = 2101
	CodeUnimplementedOption        Code = 2102
	CodeUnimplementedExtension     Code = 2103
	CodeBillingFailure             Code = 2104
	CodeNotEligibleForRenewal      Code = 2105
	CodeNotEligibleForTransfer     Code = 2106
	CodeAuthenticationError        Code = 2200
	CodeAuthorizationError         Code = 2201
	CodeInvalidAuthorization       Code = 2202
	CodePendingTransfer            Code = 2300
	CodeNotPendingTransfer         Code = 2301
	CodeObjectExists               Code = 2302
	CodeObjectDoesNotExist         Code = 2303
	CodeStatusProhibitsOperation   Code = 2304
	CodeAssociationProhibits       Code = 2305
	CodeParameterValuePolicy       Code = 2306
	CodeUnimplementedService       Code = 2307
	CodeDataManagementViolation    Code = 2308
	CodeCommandFailed              Code = 2400
	CodeCommandFailedClosing       Code = 2500
	CodeAuthenticationErrorClosing Code = 2501
	CodeSessionLimitExceeded       Code = 2502
)

var codeNames = map[Code]string{
	CodeSuccess:                    "Command completed successfully",
	CodeSuccessPending:             "Command completed successfully; action pending",
	CodeNoMessages:                 "Command completed successfully; no messages",
	CodeAckToDequeue:               "Command completed successfully; ack to dequeue",
	CodeEndingSession:              "Command completed successfully; ending session",
	CodeUnknownCommand:             "Unknown command",
	CodeSyntaxError:                "Command syntax error",
	CodeUseError:                   "Command use error",
	CodeMissingParameter:           "Required parameter missing",
	CodeParameterValueRange:        "Parameter value range error",
	CodeParameterValueSyntax:       "Parameter value syntax error",
	CodeUnimplementedVersion:       "Unimplemented protocol version",
	CodeUnimplementedCommand:       "Unimplemented command",
	CodeUnimplementedOption:        "Unimplemented option",
	CodeUnimplementedExtension:     "Unimplemented extension",
	CodeBillingFailure:             "Billing failure",
	CodeNotEligibleForRenewal:      "Object is not eligible for renewal",
	CodeNotEligibleForTransfer:     "Object is not eligible for transfer",
	CodeAuthenticationError:        "Authentication error",
	CodeAuthorizationError:         "Authorization error",
	CodeInvalidAuthorization:       "Invalid authorization information",
	CodePendingTransfer:            "Object pending transfer",
	CodeNotPendingTransfer:         "Object not pending transfer",
	CodeObjectExists:               "Object exists",
	CodeObjectDoesNotExist:         "Object does not exist",
	CodeStatusProhibitsOperation:   "Object status prohibits operation",
	CodeAssociationProhibits:       "Object association prohibits operation",
	CodeParameterValuePolicy:       "Parameter value policy error",
	CodeUnimplementedService:       "Unimplemented object service",
	CodeDataManagementViolation:    "Data management policy violation",
	CodeCommandFailed:              "Command failed",
	CodeCommandFailedClosing:       "Command failed; server closing connection",
	CodeAuthenticationErrorClosing: "Authentication error; server closing connection",
	CodeSessionLimitExceeded:       "Session limit exceeded; server closing connection",
}

// IsSuccess reports whether the code is one of the success codes.
func (c Code) IsSuccess() bool {
	switch c {
	case CodeSuccess, CodeSuccessPending, CodeNoMessages, CodeAckToDequeue, CodeEndingSession:
		return true
	}
	return false
}

// ClosesSession reports whether the server ends the session after sending
// this code.
func (c Code) ClosesSession() bool {
	return c == CodeEndingSession || (c >= 2500 && c < 2600)
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("result code %d", int(c))
}
