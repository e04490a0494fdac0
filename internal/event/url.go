package event

import (
	"net/url"
	"strings"
)

// ResolveURL turns a possibly site-relative link into an absolute URL.
// Links starting with "/" are prefixed with origin, anything else is returned
// unchanged. A nil or empty link resolves to nil.
func ResolveURL(origin string, raw *string) *string {
	if raw == nil || *raw == "" {
		return nil
	}
	if strings.HasPrefix(*raw, "/") {
		resolved := origin + *raw
		return &resolved
	}
	v := *raw
	return &v
}

// ResolveImageURL resolves an image source against origin as a browser would,
// so protocol-relative sources ("//img.eplus.jp/a.jpg") keep their own host.
// A nil or empty source resolves to nil; an unparsable one is returned as is.
func ResolveImageURL(origin string, raw *string) *string {
	if raw == nil || *raw == "" {
		return nil
	}
	base, err := url.Parse(origin)
	if err != nil {
		return ResolveURL(origin, raw)
	}
	ref, err := url.Parse(*raw)
	if err != nil {
		v := *raw
		return &v
	}
	resolved := base.ResolveReference(ref).String()
	return &resolved
}
