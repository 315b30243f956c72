// Package api talks to the results server over plain HTTP.
package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	HealthPath = "/healthcheck"
	// ImportPath receives exported session files.
	ImportPath = "/api/v1/calculations/import"
)

// ExportMetadata describes an uploaded session export.
type ExportMetadata struct {
	ExtensionVersion string
	Calculations     int
	Traces           int
}

// StatusError is a non-200 answer from the server.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Op, e.Code, e.Body)
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// do sends req and turns anything but 200 into a StatusError carrying the
// start of the response body.
func (c *Client) do(op string, req *http.Request) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

// Healthcheck reports whether the results server answers.
func (c *Client) Healthcheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+HealthPath, nil)
	if err != nil {
		return fmt.Errorf("healthcheck: %w", err)
	}
	return c.do("healthcheck", req)
}

// UploadExport streams a session export file as a multipart form.
func (c *Client) UploadExport(ctx context.Context, path string, meta ExportMetadata) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	name := filepath.Base(path)
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeExportForm(form, file, name, map[string]string{
			"secret":           c.apiKey,
			"filename":         name,
			"extensionVersion": meta.ExtensionVersion,
			"calculations":     strconv.Itoa(meta.Calculations),
			"traces":           strconv.Itoa(meta.Traces),
		}))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ImportPath, pr)
	if err != nil {
		pr.Close()
		return fmt.Errorf("upload: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	err = c.do("upload", req)
	// unblock the writer if the server answered before reading everything
	pr.Close()
	return err
}

func writeExportForm(form *multipart.Writer, file io.Reader, name string, fields map[string]string) error {
	for k, v := range fields {
		if err := form.WriteField(k, v); err != nil {
			return fmt.Errorf("write field %s: %w", k, err)
		}
	}
	part, err := form.CreateFormFile("file", name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("write file part: %w", err)
	}
	return form.Close()
}
