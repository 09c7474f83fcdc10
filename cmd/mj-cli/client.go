package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/go-resty/resty/v2"
	"gopkg.in/yaml.v3"
)

type apiClient struct {
	http *resty.Client
}

func newAPIClient() *apiClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(globalOpts.baseURL, "/")).
		SetTimeout(globalOpts.timeout).
		SetHeader("Accept", "application/json")
	if globalOpts.token != "" {
		client.SetAuthToken(globalOpts.token)
	}
	return &apiClient{http: client}
}

// document is a decoded JSON response body.
type document map[string]any

func (c *apiClient) get(path string) (document, error) {
	resp, err := c.http.R().Get(path)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	return decodeDocument(resp)
}

func (c *apiClient) postJSON(path string, body any) (document, error) {
	resp, err := c.http.R().SetBody(body).Post(path)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	return decodeDocument(resp)
}

func (c *apiClient) postFiles(path string, fields map[string]string, files []string) (document, error) {
	req := c.http.R().SetFormData(fields)
	for _, file := range files {
		req.SetFile("images", file)
	}
	resp, err := req.Post(path)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	return decodeDocument(resp)
}

func (c *apiClient) download(url, dest string) error {
	resp, err := c.http.R().SetOutput(dest).Get(url)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	if resp.IsError() {
		return fmt.Errorf("download %s: status %d", url, resp.StatusCode())
	}
	return nil
}

func decodeDocument(resp *resty.Response) (document, error) {
	doc := document{}
	if len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), &doc); err != nil {
			return nil, fmt.Errorf("status %d: response is not JSON: %w", resp.StatusCode(), err)
		}
	}
	if resp.IsError() {
		message, _ := doc["error"].(string)
		if message == "" {
			message = resp.Status()
		}
		return doc, fmt.Errorf("status %d: %s", resp.StatusCode(), message)
	}
	return doc, nil
}

func render(w io.Writer, format string, doc any) error {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(doc)
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(doc)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
