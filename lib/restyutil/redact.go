package restyutil

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
)

// SensitiveFields are form fields whose values never reach logs, spans or
// message dumps.
var SensitiveFields = []string{"password"}

const redacted = "<redacted>"

// RedactBody replaces the values of the given fields in a url-encoded form
// body. Bodies that are not valid forms are returned as-is.
func RedactBody(body string, fields ...string) string {
	values, err := url.ParseQuery(body)
	if err != nil {
		return body
	}
	changed := false
	for _, f := range fields {
		if _, ok := values[f]; ok {
			values.Set(f, redacted)
			changed = true
		}
	}
	if !changed {
		return body
	}
	return values.Encode()
}

// FormatRequestBody renders the body of an outgoing request with sensitive
// form fields redacted. Multipart bodies are summarized instead of dumped.
func FormatRequestBody(req *http.Request) string {
	if req == nil || req.GetBody == nil {
		return ""
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("failed to get request body: %s", err.Error())
	}
	if body == nil {
		return ""
	}
	readBody, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("failed to read request body: %s", err.Error())
	}

	mediaType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		return RedactBody(string(readBody), SensitiveFields...)
	case "multipart/form-data":
		return fmt.Sprintf("<multipart body: %d bytes>", len(readBody))
	}
	return string(readBody)
}
