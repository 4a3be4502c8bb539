// Package model provides data-structs and errors shared across the relay
package model

import (
	"errors"
	"fmt"
)

// Descriptor - successful answer of the shrink endpoint
type Descriptor struct {
	Input  InputFacet  `json:"input"`
	Output OutputFacet `json:"output"`
}

type InputFacet struct {
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// OutputFacet - URL is valid for a single download only and is never stored
type OutputFacet struct {
	Height int     `json:"height"`
	Width  int     `json:"width"`
	Ratio  float64 `json:"ratio"`
	Size   int64   `json:"size"`
	Type   string  `json:"type"`
	URL    string  `json:"url"`
}

// UploadError - error-shaped answer of the shrink endpoint
type UploadError struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("tinify returned an error: %s", e.Message)
}

//-------------------

// RelayResult - compressed artifact ready to be written to the caller
type RelayResult struct {
	Body               []byte
	ContentType        string
	ContentDisposition string
}

// ------------------

var (
	ErrMissingAPIKey     error = errors.New("api key missed")                // config
	ErrTransport         error = errors.New("request error")                 // network while uploading
	ErrMalformedResponse error = errors.New("malformed upstream response")   // neither descriptor nor error
	ErrDownloadFailed    error = errors.New("download failed")               // second outbound call
	ErrMediaType         error = errors.New("malformed upstream media type") // output.type unparsable
	ErrInvalidHeader     error = errors.New("invalid response header value") // unsafe header chars
)

//--------------------

const (
	HeaderContentType        = "Content-Type"
	HeaderContentDisposition = "Content-Disposition"
	HeaderRequestID          = "X-Request-Id"
)
