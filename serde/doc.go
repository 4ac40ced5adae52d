// Package serde defines the codec boundary of the client runtime: a
// Serializer converts typed values to and from wire bytes, with the encoding
// selected from the response's Content-Type header.
//
// The default serializer handles JSON (goccy/go-json), XML (encoding/xml),
// form-urlencoded (gorilla/schema), and plain text. Unknown content types
// fail with ErrUnsupportedEncoding.
package serde
