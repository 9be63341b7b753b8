// Package media turns uploaded images into references a post can carry.
package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/google/uuid"

	"github.com/picshare/backend/internal/logging"
	"github.com/picshare/backend/internal/metrics"
)

var (
	// ErrNotImage indicates the upload is not an image.
	ErrNotImage = errors.New("upload is not an image")
	// ErrEmptyUpload indicates the upload carried no bytes.
	ErrEmptyUpload = errors.New("upload is empty")
	// ErrMalformedDataURL indicates a reference that looks like a data URL but cannot be decoded.
	ErrMalformedDataURL = errors.New("malformed data url")
)

const dataPrefix = "data:"

// AssetStorage persists image bytes and returns a public location.
type AssetStorage interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) (string, error)
}

// DataURL embeds an uploaded image as a base64 data reference.
func DataURL(contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyUpload
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("content type %q: %w", contentType, ErrNotImage)
	}
	return dataPrefix + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// IsDataURL reports whether ref is an embedded data reference.
func IsDataURL(ref string) bool {
	return strings.HasPrefix(ref, dataPrefix)
}

// DecodeDataURL splits a base64 data reference into its media type and bytes.
func DecodeDataURL(ref string) (string, []byte, error) {
	if !IsDataURL(ref) {
		return "", nil, ErrMalformedDataURL
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(ref, dataPrefix), ",")
	if !ok {
		return "", nil, ErrMalformedDataURL
	}
	mediaType, found := strings.CutSuffix(header, ";base64")
	if !found {
		return "", nil, ErrMalformedDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformedDataURL, err)
	}
	return mediaType, data, nil
}

// Publisher moves embedded images into an object store when one is configured.
type Publisher struct {
	storage AssetStorage
}

// NewPublisher returns a Publisher. storage may be nil, in which case
// references are passed through unchanged.
func NewPublisher(storage AssetStorage) *Publisher {
	return &Publisher{storage: storage}
}

// Publish returns the reference a post should carry for ref. Plain URLs and,
// without a storage backend, data references are returned as given.
func (p *Publisher) Publish(ctx context.Context, ref string) (string, error) {
	if p == nil || p.storage == nil || !IsDataURL(ref) {
		return ref, nil
	}

	mediaType, data, err := DecodeDataURL(ref)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return "", ErrNotImage
	}

	key := "posts/" + uuid.NewString() + extension(mediaType)
	location, err := p.storage.Save(ctx, key, mediaType, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("publish image: %w", err)
	}

	metrics.StoreOp("media", "publish")
	logging.FromContext(ctx).Info("image published", "key", key, "bytes", len(data))
	return location, nil
}

func extension(mediaType string) string {
	switch mediaType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ""
}
