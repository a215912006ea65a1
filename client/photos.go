package client

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	// MaxPhotoSize caps uploads at 5MB, matching the backend limit.
	MaxPhotoSize = 5 << 20

	photoFieldName = "photo"
)

// PhotoURL returns the address serving a user's profile photo. A non-zero
// cacheBust value is appended as a timestamp query parameter so a freshly
// uploaded photo replaces the browser-cached one.
func (c *Client) PhotoURL(userID string, cacheBust int64) string {
	u := fmt.Sprintf("%s/api/usuarios/%s/foto", c.baseURL, userID)
	if cacheBust > 0 {
		u = fmt.Sprintf("%s?t=%d", u, cacheBust)
	}
	return u
}

// UploadPhoto replaces the user's profile photo with the given image via a
// multipart POST. Only image content is accepted and size is capped before
// any bytes travel.
func (c *Client) UploadPhoto(ctx context.Context, userID, filename, contentType string, size int64, content io.Reader) error {
	if !strings.HasPrefix(contentType, "image/") {
		return goerrors.New("Por favor selecciona una imagen válida (JPG, PNG, GIF)", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"content_type": contentType})
	}

	if size > MaxPhotoSize {
		return goerrors.New("La imagen no debe superar 5MB", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"size": size})
	}

	var body strings.Builder
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile(photoFieldName, filename)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "unable to build multipart body")
	}
	if _, err := io.Copy(part, io.LimitReader(content, MaxPhotoSize)); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "unable to read photo content")
	}
	if err := writer.Close(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "unable to finalize multipart body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.url(fmt.Sprintf("/api/usuarios/%s/foto", userID)),
		strings.NewReader(body.String()))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "unable to build request")
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := c.authorize(ctx, req); err != nil {
		return err
	}

	return c.send(req, nil)
}

// DeletePhoto removes the user's profile photo.
func (c *Client) DeletePhoto(ctx context.Context, userID string) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/usuarios/%s/foto", userID), nil, nil, true)
}
