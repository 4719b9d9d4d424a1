package assets

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"tools.zach/dev/xpcard/internal/card"
	"tools.zach/dev/xpcard/internal/logger"
)

// Avatar errors. Both are wrapped in a [card.AssetLoadError].
var (
	ErrHostNotAllowed = errors.New("avatar host not allowed")
	ErrTooLarge       = errors.New("avatar exceeds size limit")
)

// Avatar loads the avatar at uri. Supported forms:
//
//	https://host/a.png   fetched with GET, subject to the host allow list
//	file:///abs/a.png    read from disk
//	data:image/png;base64,...
//	/abs/a.png, rel/a.png
//
// ctx bounds the HTTP fetch.
func (s *Source) Avatar(ctx context.Context, uri string) (image.Image, error) {
	data, err := s.avatarBytes(ctx, uri)
	if err != nil {
		return nil, &card.AssetLoadError{Asset: "avatar", Source: redact(uri), Err: err}
	}
	img, err := decode(data)
	if err != nil {
		return nil, &card.AssetLoadError{Asset: "avatar", Source: redact(uri), Err: err}
	}
	logger.Trace(s.log, "asset loaded", "asset", "avatar", "source", redact(uri), "bytes", len(data))
	return img, nil
}

func (s *Source) avatarBytes(ctx context.Context, uri string) ([]byte, error) {
	scheme, _, _ := strings.Cut(uri, ":")
	switch strings.ToLower(scheme) {
	case "http", "https":
		return s.fetch(ctx, uri)
	case "data":
		return decodeDataURI(uri)
	case "file":
		u, err := url.Parse(uri)
		if err != nil {
			return nil, fmt.Errorf("parse file url: %w", err)
		}
		return s.readLimited(u.Path)
	default:
		return s.readLimited(uri)
	}
}

// fetch GETs uri and returns the body when the response is 200 and within
// MaxBytes.
func (s *Source) fetch(ctx context.Context, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parse avatar url: %w", err)
	}
	if allowed := s.opts.Avatar.HostAllowed; allowed != nil && !allowed(u.Hostname()) {
		return nil, fmt.Errorf("%w: %s", ErrHostNotAllowed, u.Hostname())
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "image/png,image/jpeg,image/webp,image/gif,image/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch avatar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch avatar: status %d", resp.StatusCode)
	}
	if resp.ContentLength > s.opts.Avatar.MaxBytes {
		return nil, fmt.Errorf("%w: content length %d > %d", ErrTooLarge, resp.ContentLength, s.opts.Avatar.MaxBytes)
	}
	return readAtMost(resp.Body, s.opts.Avatar.MaxBytes)
}

func (s *Source) readLimited(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readAtMost(f, s.opts.Avatar.MaxBytes)
}

// readAtMost reads r fully, failing with [ErrTooLarge] past limit bytes.
func readAtMost(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read avatar: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}

// decodeDataURI decodes "data:[<mediatype>][;base64],<data>".
func decodeDataURI(uri string) ([]byte, error) {
	meta, payload, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok {
		return nil, errors.New("malformed data uri: missing ','")
	}
	if strings.HasSuffix(strings.ToLower(meta), ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Some producers drop padding.
			if data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "=")); err != nil {
				return nil, fmt.Errorf("decode data uri: %w", err)
			}
		}
		return data, nil
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data uri: %w", err)
	}
	return []byte(text), nil
}

// redact shortens data: URIs for logs and errors.
func redact(uri string) string {
	if len(uri) > 5 && strings.EqualFold(uri[:5], "data:") {
		meta, _, _ := strings.Cut(uri, ",")
		return meta + ",..."
	}
	return uri
}
