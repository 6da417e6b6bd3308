package util

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"

	xproxy "golang.org/x/net/proxy"
)

// NewProxyFunc creates a proxy function for the HTTP transport. With no
// explicit proxy URLs it falls back to the environment.
func NewProxyFunc(httpProxy, httpsProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}

// NewTransport builds an HTTP transport honoring HTTP/HTTPS proxies and,
// when set, a SOCKS5 proxy address (host:port) for the dial itself.
func NewTransport(httpProxy, httpsProxy, socksProxy string) (*http.Transport, error) {
	transport := &http.Transport{
		Proxy: NewProxyFunc(httpProxy, httpsProxy),
	}

	if socksProxy != "" {
		dialer, err := xproxy.SOCKS5("tcp", socksProxy, nil, xproxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("socks proxy %s: %w", socksProxy, err)
		}
		transport.Proxy = nil
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := dialer.(xproxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		}
	}

	return transport, nil
}
