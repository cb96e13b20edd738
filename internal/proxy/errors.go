package proxy

import "errors"

var (
	// ErrPoolEmpty is returned when the pool has no proxies to hand out
	// and its source yields none either.
	ErrPoolEmpty = errors.New("proxy pool is empty")

	// ErrUnsupportedScheme is returned for proxy URLs whose scheme is
	// neither http, https, nor socks5.
	ErrUnsupportedScheme = errors.New("unsupported proxy scheme")
)
