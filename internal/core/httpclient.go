package core

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const userAgent = "zhenxun-installer (+https://github.com/zhenxun-org/nb-cli-plugin-zhenxun)"

// ClientOptions configures the transport of an HTTP client.
type ClientOptions struct {
	InsecureSkipVerify bool
	UseProxy           bool   // honour HTTP_PROXY / HTTPS_PROXY
	Proxy              string // explicit proxy URL, wins over UseProxy
	Timeout            time.Duration
}

// NewHTTPClient builds a client for the given options.
func NewHTTPClient(opts ClientOptions) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil

	switch {
	case opts.Proxy != "":
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", opts.Proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	case opts.UseProxy:
		transport.Proxy = http.ProxyFromEnvironment
	}

	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- opt-in via verify=false
	}

	return &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
	}, nil
}
