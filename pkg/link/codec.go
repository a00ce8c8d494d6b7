package link

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// tokenPattern matches a prefixed token inside arbitrary text.
// Groups: checksum, action id, contact id (optional), custom uri (optional).
var tokenPattern = regexp.MustCompile(`\ba\.(\d{1,10})\.(\d{1,10})(?:\.(\d{1,10}))?(?:/([A-Za-z0-9\-._~%!$&*+,;=:@/]*[A-Za-z0-9\-_~%$&*+=:@/]))?`)

// FallbackDecoder decodes tokens the current scheme rejects (e.g. links issued with an older format).
type FallbackDecoder func(token string) (Link, error)

// Codec builds and parses action links relative to a base URL.
type Codec struct {
	baseURL  string
	fallback FallbackDecoder
}

// Option configures a Codec.
type Option func(*Codec)

// WithBaseURL sets the host links are appended to when rendered as absolute URLs.
func WithBaseURL(base string) Option {
	return func(c *Codec) {
		c.baseURL = strings.TrimRight(base, "/") + "/"
	}
}

// WithFallbackDecoder installs a decoder tried when the current scheme rejects a token.
func WithFallbackDecoder(fn FallbackDecoder) Option {
	return func(c *Codec) {
		c.fallback = fn
	}
}

// NewCodec creates a codec. Without WithBaseURL, absolute links are rooted at "/".
func NewCodec(opts ...Option) *Codec {
	c := &Codec{baseURL: "/"}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured base URL, always ending with a slash.
func (c *Codec) BaseURL() string {
	return c.baseURL
}

// Path returns the prefixed token, e.g. "a.123.4.5/landing".
// Each segment of the custom uri is percent-escaped so the result is a valid URL path.
func (c *Codec) Path(l Link) string {
	head, uri, found := strings.Cut(Encode(l), "/")
	if !found {
		return RoutePrefix + head
	}
	segments := strings.Split(uri, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return RoutePrefix + head + "/" + strings.Join(segments, "/")
}

// CreateLink renders the link either as an absolute URL or as a root-relative path.
func (c *Codec) CreateLink(l Link, absolute bool) string {
	if absolute {
		return c.baseURL + c.Path(l)
	}
	return "/" + c.Path(l)
}

// DecodeLink accepts a bare token, a prefixed token, a path, or a full URL whose path contains the token.
func (c *Codec) DecodeLink(raw string) (Link, error) {
	token, err := extractToken(raw)
	if err != nil {
		return Link{}, err
	}

	l, err := Decode(unescapeURI(token), "")
	if err != nil && c.fallback != nil && errors.Is(err, domain.ErrInvalidLinkParameter) {
		if legacy, ferr := c.fallback(token); ferr == nil {
			return legacy, nil
		}
	}
	return l, err
}

func extractToken(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty link", domain.ErrInvalidLinkParameter)
	}

	path := raw
	if strings.Contains(raw, "://") || strings.HasPrefix(raw, "/") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrInvalidLinkParameter, err)
		}
		path = u.EscapedPath()
	}

	if strings.HasPrefix(path, RoutePrefix) {
		return strings.TrimPrefix(path, RoutePrefix), nil
	}
	if i := strings.Index(path, "/"+RoutePrefix); i >= 0 {
		return path[i+1+len(RoutePrefix):], nil
	}
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return "", fmt.Errorf("%w: no token in %q", domain.ErrInvalidLinkParameter, raw)
	}
	return path, nil
}

// unescapeURI decodes the percent-escaped uri part of a token. The checksum covers the
// unescaped uri. A tail that is not valid escaping is kept as is.
func unescapeURI(token string) string {
	head, tail, found := strings.Cut(token, "/")
	if !found {
		return token
	}
	if plain, err := url.PathUnescape(tail); err == nil {
		tail = plain
	}
	return head + "/" + tail
}

// ReplaceLinks finds every prefixed token in text, lets fn adjust the parsed link,
// and substitutes a freshly encoded token. Embedded checksums are ignored, so
// templates with placeholder ids are rewritten as well.
// A nil fn re-encodes the links unchanged.
func (c *Codec) ReplaceLinks(text string, fn func(l *Link)) string {
	return tokenPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := tokenPattern.FindStringSubmatch(match)
		if groups == nil {
			return match
		}

		actionID, err := strconv.ParseInt(groups[2], 10, 32)
		if err != nil {
			return match
		}
		var contactID int64
		if groups[3] != "" {
			contactID, err = strconv.ParseInt(groups[3], 10, 32)
			if err != nil {
				return match
			}
		}

		uri := groups[4]
		if plain, err := url.PathUnescape(uri); err == nil {
			uri = plain
		}
		l := Link{ActionID: int32(actionID), ContactID: int32(contactID), CustomURI: uri}
		if fn != nil {
			fn(&l)
		}
		return c.Path(l)
	})
}
