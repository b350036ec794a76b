package restyutil

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/go-resty/resty/v2"
)

func writeHeaders(out *strings.Builder, headers http.Header) {
	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		for _, value := range headers[key] {
			fmt.Fprintf(out, "%s: %s\n", key, value)
		}
	}
}

// redirectChain lists the hops that led to final, oldest first. each
// request followed from a redirect carries the response that caused it.
func redirectChain(final *http.Request) []string {
	var hops []string
	for req := final; req != nil && req.Response != nil; req = req.Response.Request {
		hops = append(hops, fmt.Sprintf("%d %s", req.Response.StatusCode, req.Response.Request.URL))
	}
	slices.Reverse(hops)
	return hops
}

// formatHttpMessage renders a request/response pair in a plain text layout
// meant for reading the login redirect chain by eye.
func formatHttpMessage(res *resty.Response) string {
	var out strings.Builder

	out.WriteString("---- REQUEST ----\n\n")
	fmt.Fprintf(&out, "%s %s\n\n", res.Request.Method, res.Request.URL)
	if res.Request.RawRequest != nil {
		writeHeaders(&out, res.Request.RawRequest.Header)
	}
	out.WriteString("\n")
	out.WriteString(FormatRequestBody(res.Request.RawRequest))
	out.WriteString("\n\n")

	if res.RawResponse != nil && res.RawResponse.Request != nil {
		hops := redirectChain(res.RawResponse.Request)
		if len(hops) > 0 {
			out.WriteString("---- REDIRECTS ----\n\n")
			for _, hop := range hops {
				out.WriteString(hop)
				out.WriteString("\n")
			}
			out.WriteString("\n")
		}
	}

	out.WriteString("---- RESPONSE ----\n\n")
	fmt.Fprintf(&out, "%d %s\n\n", res.StatusCode(), finalUrl(res))
	writeHeaders(&out, res.Header())
	out.WriteString("\n")
	out.WriteString(res.String())

	return out.String()
}

func finalUrl(res *resty.Response) string {
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		return res.RawResponse.Request.URL.String()
	}
	return res.Request.URL
}
