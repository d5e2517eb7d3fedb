package kalshi

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// baseTransportConfig returns the HTTP transport used for trades requests.
// With bypassProxy the transport ignores HTTP(S)_PROXY entirely.
func baseTransportConfig(bypassProxy, insecureSkipVerify bool) *http.Transport {
	t := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConnsPerHost:   4,
	}
	if !bypassProxy {
		t.Proxy = http.ProxyFromEnvironment
	}
	if insecureSkipVerify {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for hosts without a CA bundle
	}
	return t
}

// newRestClient creates the resty client for one Crawler. Retries are handled
// by the crawler, never by resty.
func newRestClient(opts Options) *resty.Client {
	hc := &http.Client{
		Transport: baseTransportConfig(opts.BypassProxy, opts.InsecureSkipVerify),
		Timeout:   opts.RequestTimeout,
	}
	return resty.NewWithClient(hc).
		SetBaseURL(opts.BaseURL).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent).
		SetRetryCount(0)
}
