// Package pix locates the copy-paste PIX code and the transaction id inside a
// gateway's transaction object. Providers nest these under different keys, so
// the lookup walks a fixed priority list. The API proxy and the checkout client
// both go through here.
package pix

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrPixPayloadMissing = errors.New("pix payload not found in gateway response")

const QRCodeServiceURL = "https://api.qrserver.com/v1/create-qr-code/"

var payloadPaths = [][]string{
	{"pix", "payload"},
	{"pix", "qrcode"},
	{"pix", "code"},
	{"data", "pix", "payload"},
	{"data", "pix", "qrcode"},
	{"data", "pix", "code"},
	{"qrcode"},
	{"payload"},
}

var idPaths = [][]string{
	{"id"},
	{"data", "id"},
}

// Decode parses a transaction object keeping numbers intact.
func Decode(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("decode transaction object: %w", err)
	}
	return obj, nil
}

// Payload returns the first non-empty PIX code, or ErrPixPayloadMissing.
func Payload(obj map[string]any) (string, error) {
	if v := firstString(obj, payloadPaths); v != "" {
		return v, nil
	}
	return "", ErrPixPayloadMissing
}

// TransactionID returns the gateway id, or "" when the object carries none.
func TransactionID(obj map[string]any) string {
	return firstString(obj, idPaths)
}

// QRCodeURL points at the external image service rendering payload as a QR code.
func QRCodeURL(payload string) string {
	if payload == "" {
		return ""
	}
	return QRCodeServiceURL + "?size=200x200&data=" + url.QueryEscape(payload)
}

// Field reads the string or number found at path, or "".
func Field(obj map[string]any, path ...string) string {
	return lookup(obj, path)
}

func firstString(obj map[string]any, paths [][]string) string {
	for _, p := range paths {
		if s := lookup(obj, p); s != "" {
			return s
		}
	}
	return ""
}

func lookup(obj map[string]any, path []string) string {
	var cur any = obj
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = m[key]
	}

	switch v := cur.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return fmt.Sprint(v)
	default:
		return ""
	}
}
