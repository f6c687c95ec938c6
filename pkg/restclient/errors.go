package restclient

import "errors"

var (
	ErrMissingPathParam = errors.New("restclient: missing path parameter")
	ErrUnknownRoute     = errors.New("restclient: unknown route")
	ErrEncodeBody       = errors.New("restclient: failed to encode request body")
	ErrRequestFailed    = errors.New("restclient: request failed")
	ErrDecodeResponse   = errors.New("restclient: failed to decode response")
)
