package monzo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/baely/monzo/pkg/model"
)

// AttachmentUpload is a file to be uploaded and attached to a transaction
type AttachmentUpload struct {
	FileName string
	FileType string // MIME type, e.g. "image/png"
	Content  io.Reader
}

// ReadAttachment loads a file from disk, detecting its MIME type from its
// content.
func ReadAttachment(path string) (AttachmentUpload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AttachmentUpload{}, fmt.Errorf("monzo: read attachment: %w", err)
	}

	fileType := mimetype.Detect(data).String()
	if i := strings.IndexByte(fileType, ';'); i >= 0 {
		fileType = fileType[:i]
	}

	return AttachmentUpload{
		FileName: filepath.Base(path),
		FileType: fileType,
		Content:  bytes.NewReader(data),
	}, nil
}

// UploadAttachment uploads a file and returns the URL it is served from.
//
// The provider first issues an upload slot; the bytes are then PUT to the
// slot's pre-signed URL. That second request carries no bearer token and
// does not go through Request.
func (c *Client) UploadAttachment(ctx context.Context, upload AttachmentUpload) (string, error) {
	if err := required("file_name", upload.FileName); err != nil {
		return "", err
	}
	if err := required("file_type", upload.FileType); err != nil {
		return "", err
	}
	if upload.Content == nil {
		return "", &ValidationError{Field: "content", Reason: "must not be nil"}
	}

	data, err := io.ReadAll(upload.Content)
	if err != nil {
		return "", fmt.Errorf("monzo: read attachment content: %w", err)
	}

	c.logger.Debug("Uploading attachment", "file_name", upload.FileName, "file_type", upload.FileType, "size", len(data))

	params := url.Values{}
	params.Set("file_name", upload.FileName)
	params.Set("file_type", upload.FileType)
	params.Set("content_length", strconv.Itoa(len(data)))

	body, err := c.Request(ctx, http.MethodPost, "attachment/upload", params)
	if err != nil {
		return "", err
	}
	slot, err := model.ParseUpload(body)
	if err != nil {
		return "", err
	}

	c.logger.Debug("Retrieved upload location", "upload_url", redactQuery(slot.UploadURL))

	if err := c.putUpload(ctx, slot.UploadURL, upload.FileType, data); err != nil {
		return "", err
	}

	c.logger.Debug("Upload complete", "file_url", slot.FileURL)
	return slot.FileURL, nil
}

func (c *Client) putUpload(ctx context.Context, uploadURL, fileType string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("monzo: create upload request: %w", err)
	}
	req.Header.Set("Content-Type", fileType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Method: http.MethodPut, URL: redactQuery(uploadURL), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		return newAPIError(http.MethodPut, redactQuery(uploadURL), resp.StatusCode, payload)
	}
	return nil
}

// RegisterAttachment attaches an already hosted file to a transaction
func (c *Client) RegisterAttachment(ctx context.Context, transactionID, fileURL, fileType string) (model.Attachment, error) {
	if err := required("transaction_id", transactionID); err != nil {
		return model.Attachment{}, err
	}
	if err := required("file_url", fileURL); err != nil {
		return model.Attachment{}, err
	}
	if err := required("file_type", fileType); err != nil {
		return model.Attachment{}, err
	}

	c.logger.Debug("Registering attachment", "transaction_id", transactionID, "file_url", fileURL)

	params := url.Values{}
	params.Set("external_id", transactionID)
	params.Set("file_type", fileType)
	params.Set("file_url", fileURL)

	body, err := c.Request(ctx, http.MethodPost, "attachment/register", params)
	if err != nil {
		return model.Attachment{}, err
	}
	return model.ParseAttachment(body)
}

// AttachFile uploads a file and registers it against a transaction
func (c *Client) AttachFile(ctx context.Context, transactionID string, upload AttachmentUpload) (model.Attachment, error) {
	if err := required("transaction_id", transactionID); err != nil {
		return model.Attachment{}, err
	}

	fileURL, err := c.UploadAttachment(ctx, upload)
	if err != nil {
		return model.Attachment{}, err
	}
	return c.RegisterAttachment(ctx, transactionID, fileURL, upload.FileType)
}

// DeregisterAttachment removes an attachment from its transaction
func (c *Client) DeregisterAttachment(ctx context.Context, attachmentID string) error {
	if err := required("attachment_id", attachmentID); err != nil {
		return err
	}

	c.logger.Debug("Deregistering attachment", "attachment_id", attachmentID)

	params := url.Values{}
	params.Set("id", attachmentID)

	_, err := c.Request(ctx, http.MethodPost, "attachment/deregister", params)
	return err
}
