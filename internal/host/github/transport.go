package github

import "net/http"

// bearerTransport adds the token and default headers to every request. The
// token is dropped once a redirect leaves the requested host.
type bearerTransport struct {
	token     string
	userAgent string
	base      http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.token != "" && !crossHostRedirect(req) {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", acceptJSON)
	}
	if t.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

func crossHostRedirect(req *http.Request) bool {
	for prev := req.Response; prev != nil && prev.Request != nil; prev = prev.Request.Response {
		if prev.Request.URL.Host != req.URL.Host {
			return true
		}
	}
	return false
}
