package core

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"spotifier-core/lib/osutil"
)

// Session is the Cookie header value the jar would send to each domain.
type Session struct {
	Portal           string `json:"portal"`
	IdentityProvider string `json:"identity_provider"`
}

func (s Session) Empty() bool {
	return strings.TrimSpace(s.Portal) == "" && strings.TrimSpace(s.IdentityProvider) == ""
}

func cookieHeader(cookies []*http.Cookie) string {
	pairs := make([]string, len(cookies))
	for i, c := range cookies {
		pairs[i] = c.Name + "=" + c.Value
	}
	return strings.Join(pairs, "; ")
}

func parseCookieHeader(header string) []*http.Cookie {
	var cookies []*http.Cookie
	for _, pair := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		cookies = append(cookies, &http.Cookie{
			Name:  name,
			Value: strings.TrimSpace(value),
			Path:  "/",
		})
	}
	return cookies
}

func (c *Client) ExportSession() Session {
	jar := c.dispatcher.Jar()
	return Session{
		Portal:           cookieHeader(jar.Cookies(c.PortalUrl)),
		IdentityProvider: cookieHeader(jar.Cookies(c.SsoUrl)),
	}
}

// ImportSession puts the cookies of s back into the jar and assumes they
// are still valid, the next content fetch finds out if they are not.
func (c *Client) ImportSession(s Session) error {
	if s.Empty() {
		return fmt.Errorf("%w: session has no cookies", ErrSessionExpired)
	}
	jar := c.dispatcher.Jar()
	for _, domain := range []struct {
		url    *url.URL
		header string
	}{
		{c.PortalUrl, s.Portal},
		{c.SsoUrl, s.IdentityProvider},
	} {
		cookies := parseCookieHeader(domain.header)
		if len(cookies) > 0 {
			jar.SetCookies(domain.url, cookies)
		}
	}
	c.setState(Authenticated)
	return nil
}

func (c *Client) SaveSession(path string) error {
	serialized, err := json.MarshalIndent(c.ExportSession(), "", "  ")
	if err != nil {
		return err
	}
	return osutil.WriteFileAtomic(path, serialized, 0600)
}

func (c *Client) LoadSession(path string) error {
	contents, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var session Session
	err = json.Unmarshal(contents, &session)
	if err != nil {
		return fmt.Errorf("%w: session file %s: %w", ErrParsing, path, err)
	}
	return c.ImportSession(session)
}
