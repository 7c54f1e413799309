// Package model defines the request-scoped types shared by the proxy layers.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// SnippetLength is the number of characters of upstream HTML returned
// alongside a not-found result.
const SnippetLength = 2000

// Static routing fields the portal controller expects with every query.
const (
	formArchivo = "Remesas"
	formClase   = "Remesas"
	formFuncion = "trakingRemesas"
	formPR01    = "true"
	formBoton   = "Boton"
)

// GuideNumber is a waybill identifier (numeroGuia). It decodes from a JSON
// string, number or boolean so clients that send {"numeroGuia": 12345} keep
// working. Falsy scalars (0, false, null) decode as empty, i.e. missing.
type GuideNumber string

// UnmarshalJSON implements json.Unmarshaler.
func (g *GuideNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*g = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*g = GuideNumber(s)
		return nil
	case bytes.Equal(data, []byte("true")):
		*g = "true"
		return nil
	case bytes.Equal(data, []byte("false")):
		*g = ""
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("numeroGuia must be a string, number or boolean")
	}
	if f, err := strconv.ParseFloat(n.String(), 64); err == nil && f == 0 {
		*g = ""
		return nil
	}
	*g = GuideNumber(n.String())
	return nil
}

// TrackingRequest is a single lookup as received from a client.
type TrackingRequest struct {
	NumeroGuia GuideNumber `json:"numeroGuia" form:"numeroGuia" validate:"required"`
}

// ID returns the identifier as a plain string.
func (r TrackingRequest) ID() string {
	return string(r.NumeroGuia)
}

// SessionContext carries the cookies issued by the portal's form page for
// replay on the query call. It never outlives one lookup.
type SessionContext struct {
	Cookie string
}

// NewSessionContext joins Set-Cookie values into a single Cookie header value.
func NewSessionContext(setCookies []string) SessionContext {
	return SessionContext{Cookie: strings.Join(setCookies, "; ")}
}

// QueryForm is the form submitted to the portal controller.
type QueryForm struct {
	TrackingID string
}

// Values returns the full field set. PR00 carries the identifier untouched.
func (f QueryForm) Values() url.Values {
	return url.Values{
		"PR00":    {f.TrackingID},
		"Archivo": {formArchivo},
		"Clase":   {formClase},
		"Funcion": {formFuncion},
		"PR20":    {""},
		"PR01":    {formPR01},
		"Boton":   {formBoton},
	}
}

// Encode returns the application/x-www-form-urlencoded body.
func (f QueryForm) Encode() string {
	return f.Values().Encode()
}

// Result is the classified outcome of a lookup that reached the portal.
type Result struct {
	TrackingID string
	Found      bool
	// HTML is the raw upstream body, unmodified.
	HTML string
}

// Snippet returns the first SnippetLength characters of the upstream body.
func (r *Result) Snippet() string {
	return Truncate(r.HTML, SnippetLength)
}

// Truncate returns at most n characters of s without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
