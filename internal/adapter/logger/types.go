package logger

import "errors"

const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// LogEntry is one output line. shop_id and order_id are copied out of the
// details so a shop's queue activity can be filtered without parsing them.
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Service   string                 `json:"service"`
	Hostname  string                 `json:"hostname"`
	RequestID string                 `json:"request_id,omitempty"`
	Action    string                 `json:"action"`
	Message   string                 `json:"message"`
	ShopID    string                 `json:"shop_id,omitempty"`
	OrderID   string                 `json:"order_id,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Error     *ErrorInfo             `json:"error,omitempty"`
}

// ErrorInfo keeps the messages of the wrapped errors, outermost first.
type ErrorInfo struct {
	Msg   string   `json:"msg"`
	Chain []string `json:"chain,omitempty"`
}

func newErrorInfo(err error) *ErrorInfo {
	info := &ErrorInfo{Msg: err.Error()}
	for e := errors.Unwrap(err); e != nil; e = errors.Unwrap(e) {
		info.Chain = append(info.Chain, e.Error())
	}
	return info
}
