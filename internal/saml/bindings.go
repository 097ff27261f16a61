package saml

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ============================================================================
// HTTP-Redirect Binding (SAML 2.0 Bindings Section 3.4)
// ============================================================================

// RedirectBinding decodes SAML messages carried on the HTTP-Redirect
// binding. Request/response generation and its XML signature scheme are an
// external collaborator's concern here — this type only inverts what an
// IdP or SP produced.
type RedirectBinding struct{}

// NewRedirectBinding creates a new redirect binding decoder.
func NewRedirectBinding() *RedirectBinding {
	return &RedirectBinding{}
}

// Encode applies HTTP-Redirect binding encoding: raw DEFLATE compress, then
// base64.
func (b *RedirectBinding) Encode(xmlData []byte) (string, error) {
	var buf bytes.Buffer
	writer, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return "", fmt.Errorf("failed to create compressor: %w", err)
	}
	if _, err := writer.Write(xmlData); err != nil {
		return "", fmt.Errorf("failed to compress: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to flush compressor: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// RedirectURL builds the full redirect-binding URL carrying an encoded
// SAMLRequest, with an optional RelayState.
func (b *RedirectBinding) RedirectURL(destination string, xmlData []byte, relayState string) (string, error) {
	encoded, err := b.Encode(xmlData)
	if err != nil {
		return "", err
	}
	params := url.Values{}
	params.Set("SAMLRequest", encoded)
	if relayState != "" {
		params.Set("RelayState", relayState)
	}
	sep := "?"
	if strings.Contains(destination, "?") {
		sep = "&"
	}
	return destination + sep + params.Encode(), nil
}

// Decode reverses HTTP-Redirect binding encoding: base64 decode, then raw
// DEFLATE decompress.
func (b *RedirectBinding) Decode(encoded string) ([]byte, error) {
	compressed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to base64 decode: %w", err)
	}

	reader := flate.NewReader(bytes.NewReader(compressed))
	defer reader.Close()

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}

	return decompressed, nil
}

// ParseRedirectRequest extracts and decodes the SAMLRequest or SAMLResponse
// query parameter from an HTTP-Redirect binding request.
func (b *RedirectBinding) ParseRedirectRequest(r *http.Request) ([]byte, string, error) {
	query := r.URL.Query()

	var encoded string
	if samlRequest := query.Get("SAMLRequest"); samlRequest != "" {
		encoded = samlRequest
	} else if samlResponse := query.Get("SAMLResponse"); samlResponse != "" {
		encoded = samlResponse
	} else {
		return nil, "", fmt.Errorf("no SAMLRequest or SAMLResponse in query")
	}

	relayState := query.Get("RelayState")

	xmlData, err := b.Decode(encoded)
	if err != nil {
		return nil, "", err
	}

	return xmlData, relayState, nil
}

// ============================================================================
// HTTP-POST Binding (SAML 2.0 Bindings Section 3.5)
// ============================================================================

// PostBinding decodes SAML messages carried on the HTTP-POST binding, the
// binding the assertion consumer service endpoint normally receives.
type PostBinding struct{}

// NewPostBinding creates a new POST binding decoder.
func NewPostBinding() *PostBinding {
	return &PostBinding{}
}

// Decode reverses HTTP-POST binding encoding: base64 decode only, no
// compression.
func (b *PostBinding) Decode(encoded string) ([]byte, error) {
	decoded := strings.ReplaceAll(encoded, " ", "+")

	xmlData, err := base64.StdEncoding.DecodeString(decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to base64 decode: %w", err)
	}

	return xmlData, nil
}

// ParsePostRequest extracts and decodes the SAMLRequest or SAMLResponse form
// field from an HTTP-POST binding submission.
func (b *PostBinding) ParsePostRequest(r *http.Request) ([]byte, string, error) {
	if err := r.ParseForm(); err != nil {
		return nil, "", fmt.Errorf("failed to parse form: %w", err)
	}

	var encoded string
	if samlRequest := r.FormValue("SAMLRequest"); samlRequest != "" {
		encoded = samlRequest
	} else if samlResponse := r.FormValue("SAMLResponse"); samlResponse != "" {
		encoded = samlResponse
	} else {
		return nil, "", fmt.Errorf("no SAMLRequest or SAMLResponse in form")
	}

	relayState := r.FormValue("RelayState")

	xmlData, err := b.Decode(encoded)
	if err != nil {
		return nil, "", err
	}

	return xmlData, relayState, nil
}

// ============================================================================
// Shared utilities
// ============================================================================

// BindingType identifies which SAML 2.0 binding carried a message.
type BindingType string

const (
	BindingTypeRedirect BindingType = "redirect"
	BindingTypePost     BindingType = "post"
)

// DetectBinding infers the binding type from the HTTP method used.
func DetectBinding(r *http.Request) BindingType {
	if r.Method == http.MethodPost {
		return BindingTypePost
	}
	return BindingTypeRedirect
}

// ParseRequest decodes an inbound SAML message regardless of which of the
// two bindings carried it.
func ParseRequest(r *http.Request) ([]byte, string, BindingType, error) {
	bindingType := DetectBinding(r)

	var xmlData []byte
	var relayState string
	var err error

	switch bindingType {
	case BindingTypePost:
		xmlData, relayState, err = NewPostBinding().ParsePostRequest(r)
	case BindingTypeRedirect:
		xmlData, relayState, err = NewRedirectBinding().ParseRedirectRequest(r)
	}

	if err != nil {
		return nil, "", bindingType, err
	}

	return xmlData, relayState, bindingType, nil
}
