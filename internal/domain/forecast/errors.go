package forecast

import (
	"errors"
	"fmt"
)

const (
	genericFetchMessage = "failed to fetch predictions"
	invalidShapeMessage = "invalid prediction data format"
)

// ErrSeriesNotFound is returned when no points array can be located in a payload.
var ErrSeriesNotFound = errors.New("prediction series not found")

// TransportError covers network failures and non-2xx responses.
type TransportError struct {
	StatusCode int
	Detail     string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Detail != "":
		return fmt.Sprintf("prediction request failed: status=%d: %s", e.StatusCode, e.Detail)
	case e.StatusCode != 0:
		return fmt.Sprintf("prediction request failed: status=%d", e.StatusCode)
	case e.Err != nil:
		return "prediction request failed: " + e.Err.Error()
	default:
		return "prediction request failed"
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// NormalizationError is the shape error: the payload had a success status but no series.
type NormalizationError struct {
	Err error
}

func (e *NormalizationError) Error() string {
	return "normalize predictions: " + e.Err.Error()
}

func (e *NormalizationError) Unwrap() error { return e.Err }

// describeFailure turns a request level error into what the user is shown.
func describeFailure(err error) *ErrorInfo {
	var shapeErr *NormalizationError
	if errors.As(err, &shapeErr) {
		return &ErrorInfo{Kind: ErrorKindShape, Message: invalidShapeMessage}
	}
	info := &ErrorInfo{Kind: ErrorKindTransport, Message: genericFetchMessage}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		info.StatusCode = transportErr.StatusCode
		if transportErr.Detail != "" {
			info.Message = transportErr.Detail
		}
	}
	return info
}
