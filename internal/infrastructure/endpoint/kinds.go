package endpoint

import (
	"net/url"
	"strings"
)

// ProxyKind decides how a target URL is appended to a proxy template.
type ProxyKind struct {
	Name  string
	Match func(template string) bool
	Wrap  func(template, target string) string
}

// QueryStringKind covers proxies that take the target as a query value; the
// target is percent-encoded.
var QueryStringKind = ProxyKind{
	Name:  "query",
	Match: func(t string) bool { return strings.Contains(t, "?") },
	Wrap:  func(t, target string) string { return t + url.QueryEscape(target) },
}

// PathPrefixKind covers proxies that take the target as a raw path suffix.
var PathPrefixKind = ProxyKind{
	Name:  "path",
	Match: func(string) bool { return true },
	Wrap:  func(t, target string) string { return t + target },
}

var defaultKinds = []ProxyKind{QueryStringKind, PathPrefixKind}
