// Package proxy manages a rotating pool of egress proxies for crawl
// requests. Proxies are shuffled once at load and handed out round-robin;
// a proxy that fails a request is evicted, and the pool reloads from its
// source when it shrinks below a floor.
package proxy
