package model

import "fmt"

// QueryRequest 单次知识库查询参数，每个问题单独构造
type QueryRequest struct {
	Prompt    string `json:"prompt"`
	GroupID   int    `json:"group_id"`
	SessionID int    `json:"session_id"`
	Endpoint  string `json:"endpoint"`
}

type ErrorKind string

const (
	ErrTimeout               ErrorKind = "timeout"
	ErrConnectionUnreachable ErrorKind = "connection_unreachable"
	ErrTransport             ErrorKind = "transport_error"
	ErrMalformedResponse     ErrorKind = "malformed_response"
	ErrUnexpectedShape       ErrorKind = "unexpected_shape"
)

// QueryOutcome 要么是 Answer，要么是 Failure，二者只有一个有值
type QueryOutcome struct {
	answer  string
	kind    ErrorKind
	message string
	failed  bool
}

func Answer(text string) QueryOutcome {
	return QueryOutcome{answer: text}
}

func Failure(kind ErrorKind, message string) QueryOutcome {
	return QueryOutcome{kind: kind, message: message, failed: true}
}

func (o QueryOutcome) IsAnswer() bool { return !o.failed }

func (o QueryOutcome) Text() string { return o.answer }

func (o QueryOutcome) Kind() ErrorKind { return o.kind }

func (o QueryOutcome) Message() string { return o.message }

// Display 报告层的兼容字符串：失败以 "Error:" 或 "Unexpected API Response:" 开头
func (o QueryOutcome) Display() string {
	if !o.failed {
		return o.answer
	}
	switch o.kind {
	case ErrTimeout:
		return fmt.Sprintf("Error: Request timeout. The server is taking too long to respond (%s)", o.message)
	case ErrConnectionUnreachable:
		return fmt.Sprintf("Error: Unable to connect to the RAG server. Please verify the server address and port (%s)", o.message)
	case ErrMalformedResponse:
		return "Error: Invalid JSON Response: " + o.message
	case ErrUnexpectedShape:
		return "Unexpected API Response: " + o.message
	default:
		return "Error: " + o.message
	}
}

func (o QueryOutcome) String() string {
	if !o.failed {
		return fmt.Sprintf("Answer(%q)", o.answer)
	}
	return fmt.Sprintf("Failure(%s, %q)", o.kind, o.message)
}
