package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

// DefaultConfirmation is shown when a form carries no usable confirmation
// message of its own
const DefaultConfirmation = "Form submitted successfully!"

// The three failure states a submitter can observe, kept distinct so the
// caller can report them differently.
var (
	// ErrFormUnavailable means the form definition could not be loaded
	ErrFormUnavailable = errors.New("failed to load form")
	// ErrUploadFailed means the attachment upload did not complete
	ErrUploadFailed = errors.New("failed to upload attachment")
	// ErrSubmissionRejected means the server refused the submission
	ErrSubmissionRejected = errors.New("submission rejected")
)

// FormsClient talks to the form platform: it fetches form definitions and
// posts submissions, uploading any attachment first
type FormsClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewFormsClient creates a client for the given platform base URL
func NewFormsClient(baseURL string) *FormsClient {
	return &FormsClient{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Field describes one input of a fetched form definition
type Field struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Label     string `json:"label"`
	BlockType string `json:"blockType"`
	Required  bool   `json:"required,omitempty"`
}

// FormDefinition is a form as served to the rendering client
type FormDefinition struct {
	ID                  uint    `json:"id"`
	Title               string  `json:"title"`
	Fields              []Field `json:"fields"`
	HasAttachment       bool    `json:"hasAttachment"`
	HasAttatchmentLabel string  `json:"hasAttatchmentLabel"`
	Tenant              uint    `json:"tenant"`
}

// FieldValue is one collected input value, in declared field order
type FieldValue struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Attachment is a file the submitter attached to the form
type Attachment struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// MediaDoc is the stored representation of an uploaded attachment
type MediaDoc struct {
	ID  uint   `json:"id"`
	URL string `json:"url"`
}

// SubmitResult reports a successful submission
type SubmitResult struct {
	SubmissionID        uint
	ConfirmationMessage string
	FileURL             string
}

// ErrorResponse is the platform's error payload
type ErrorResponse struct {
	Error string `json:"error"`
}

// FetchForm retrieves the form definition for a (form, tenant) pair
func (c *FormsClient) FetchForm(ctx context.Context, formID, tenantID uint) (*FormDefinition, error) {
	url := fmt.Sprintf("%s/api/forms/%d?tenant=%d", c.BaseURL, formID, tenantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormUnavailable, err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrFormUnavailable, decodeError(body, resp.StatusCode))
	}

	var form FormDefinition
	if err := json.Unmarshal(body, &form); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormUnavailable, err)
	}

	return &form, nil
}

// UploadMedia uploads an attachment to the media collection and returns
// the stored document with its derived URL
func (c *FormsClient) UploadMedia(ctx context.Context, att *Attachment) (*MediaDoc, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, att.Filename))
	contentType := att.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if _, err := io.Copy(part, att.Content); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	payload, _ := json.Marshal(map[string]string{"alt": att.Filename})
	if err := writer.WriteField("_payload", string(payload)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/media", &buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%w: %s", ErrUploadFailed, decodeError(body, resp.StatusCode))
	}

	var result struct {
		Doc MediaDoc `json:"doc"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	return &result.Doc, nil
}

// Submit posts the collected field values for a form. When an attachment
// is present it is uploaded first and its URL appended as an extra field
// entry; the submission itself is only posted once the upload completed.
func (c *FormsClient) Submit(ctx context.Context, formID, tenantID uint, values []FieldValue, att *Attachment) (*SubmitResult, error) {
	result := &SubmitResult{}

	if att != nil {
		doc, err := c.UploadMedia(ctx, att)
		if err != nil {
			return nil, err
		}
		values = append(values, FieldValue{Field: "attachment", Value: doc.URL})
		result.FileURL = doc.URL
	}

	reqBody, err := json.Marshal(map[string]interface{}{
		"form":           formID,
		"tenant":         tenantID,
		"submissionData": values,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubmissionRejected, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/form-submissions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubmissionRejected, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubmissionRejected, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubmissionRejected, err)
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%w: %s", ErrSubmissionRejected, decodeError(body, resp.StatusCode))
	}

	var submitted struct {
		Doc struct {
			ID   uint `json:"id"`
			Form struct {
				ConfirmationMessage json.RawMessage `json:"confirmationMessage"`
			} `json:"form"`
		} `json:"doc"`
	}
	if err := json.Unmarshal(body, &submitted); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubmissionRejected, err)
	}

	result.SubmissionID = submitted.Doc.ID
	result.ConfirmationMessage = ExtractPlainText(submitted.Doc.Form.ConfirmationMessage)
	if result.ConfirmationMessage == "" {
		result.ConfirmationMessage = DefaultConfirmation
	}

	return result, nil
}

// ExtractPlainText pulls the human-readable text out of rich-text JSON by
// collecting every "text" leaf in document order. The content is otherwise
// opaque to this client.
func ExtractPlainText(richText json.RawMessage) string {
	if len(richText) == 0 {
		return ""
	}

	var node interface{}
	if err := json.Unmarshal(richText, &node); err != nil {
		// Not JSON at all: treat the raw content as the message
		return strings.TrimSpace(strings.Trim(string(richText), `"`))
	}

	var parts []string
	collectText(node, &parts)
	return strings.TrimSpace(strings.Join(parts, " "))
}

func collectText(node interface{}, parts *[]string) {
	switch n := node.(type) {
	case string:
		if n != "" {
			*parts = append(*parts, n)
		}
	case map[string]interface{}:
		if text, ok := n["text"].(string); ok && text != "" {
			*parts = append(*parts, text)
		}
		for _, key := range []string{"root", "children"} {
			if child, ok := n[key]; ok {
				collectText(child, parts)
			}
		}
	case []interface{}:
		for _, child := range n {
			collectText(child, parts)
		}
	}
}

// decodeError extracts the platform's error message from a response body
func decodeError(body []byte, status int) string {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return errResp.Error
	}
	return fmt.Sprintf("unexpected status %d", status)
}
