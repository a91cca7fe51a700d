package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/forms/1", r.URL.Path)
		assert.Equal(t, "9", r.URL.Query().Get("tenant"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":    1,
			"title": "Contact Form",
			"fields": []map[string]interface{}{
				{"id": "f1", "name": "email", "label": "Your email", "blockType": "email", "required": true},
				{"id": "f2", "name": "message", "label": "Message", "blockType": "textarea"},
			},
			"hasAttachment":       true,
			"hasAttatchmentLabel": "Resume",
			"tenant":              9,
		})
	}))
	defer server.Close()

	c := NewFormsClient(server.URL)
	form, err := c.FetchForm(context.Background(), 1, 9)
	require.NoError(t, err)

	assert.Equal(t, uint(1), form.ID)
	assert.Equal(t, "Contact Form", form.Title)
	require.Len(t, form.Fields, 2)
	// Field order is the declared order
	assert.Equal(t, "email", form.Fields[0].Name)
	assert.Equal(t, "message", form.Fields[1].Name)
	assert.True(t, form.HasAttachment)
	assert.Equal(t, "Resume", form.HasAttatchmentLabel)
}

func TestFetchForm_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "form not found"})
	}))
	defer server.Close()

	c := NewFormsClient(server.URL)
	_, err := c.FetchForm(context.Background(), 42, 9)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFormUnavailable)
	assert.Contains(t, err.Error(), "form not found")
}

func TestFetchForm_NetworkError(t *testing.T) {
	c := NewFormsClient("http://127.0.0.1:1")
	_, err := c.FetchForm(context.Background(), 1, 9)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFormUnavailable)
}

func TestSubmit_Success(t *testing.T) {
	var posted map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/form-submissions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"doc": map[string]interface{}{
				"id": 11,
				"form": map[string]interface{}{
					"confirmationMessage": map[string]interface{}{
						"root": map[string]interface{}{
							"children": []interface{}{
								map[string]interface{}{
									"children": []interface{}{
										map[string]interface{}{"text": "Thanks for"},
										map[string]interface{}{"text": "reaching out!"},
									},
								},
							},
						},
					},
				},
			},
		})
	}))
	defer server.Close()

	c := NewFormsClient(server.URL)
	values := []FieldValue{
		{Field: "email", Value: "a@b.c"},
		{Field: "message", Value: "hello"},
	}
	result, err := c.Submit(context.Background(), 1, 9, values, nil)
	require.NoError(t, err)

	assert.Equal(t, uint(11), result.SubmissionID)
	assert.Equal(t, "Thanks for reaching out!", result.ConfirmationMessage)

	assert.Equal(t, float64(1), posted["form"])
	assert.Equal(t, float64(9), posted["tenant"])
	data, ok := posted["submissionData"].([]interface{})
	require.True(t, ok)
	require.Len(t, data, 2)
	first := data[0].(map[string]interface{})
	assert.Equal(t, "email", first["field"])
}

func TestSubmit_DefaultConfirmation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"doc": map[string]interface{}{
				"id":   5,
				"form": map[string]interface{}{"confirmationMessage": nil},
			},
		})
	}))
	defer server.Close()

	c := NewFormsClient(server.URL)
	result, err := c.Submit(context.Background(), 1, 9, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfirmation, result.ConfirmationMessage)
}

func TestSubmit_ValidationRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "missing required field: email"})
	}))
	defer server.Close()

	c := NewFormsClient(server.URL)
	_, err := c.Submit(context.Background(), 1, 9, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSubmissionRejected)
	assert.NotErrorIs(t, err, ErrUploadFailed)
	assert.Contains(t, err.Error(), "missing required field")
}

func TestSubmit_WithAttachment(t *testing.T) {
	// The upload must complete before the submission is posted, and the
	// submission must carry a field entry referencing the stored URL
	var order []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/media":
			order = append(order, "media")

			require.NoError(t, r.ParseMultipartForm(1<<20))
			file, header, err := r.FormFile("file")
			require.NoError(t, err)
			defer file.Close()
			assert.Equal(t, "resume.pdf", header.Filename)
			assert.NotEmpty(t, r.FormValue("_payload"))

			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"doc": map[string]interface{}{"id": 3, "url": "https://cdn.example/media/abc.pdf"},
			})
		case "/api/form-submissions":
			order = append(order, "submission")

			var posted map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
			data := posted["submissionData"].([]interface{})
			last := data[len(data)-1].(map[string]interface{})
			assert.Equal(t, "attachment", last["field"])
			assert.Equal(t, "https://cdn.example/media/abc.pdf", last["value"])

			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"doc": map[string]interface{}{"id": 12, "form": map[string]interface{}{}},
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c := NewFormsClient(server.URL)
	att := &Attachment{
		Filename:    "resume.pdf",
		ContentType: "application/pdf",
		Content:     strings.NewReader("%PDF-1.4 fake"),
	}
	result, err := c.Submit(context.Background(), 1, 9, []FieldValue{{Field: "email", Value: "a@b.c"}}, att)
	require.NoError(t, err)

	assert.Equal(t, []string{"media", "submission"}, order)
	assert.Equal(t, "https://cdn.example/media/abc.pdf", result.FileURL)
}

func TestSubmit_UploadFailureStopsSubmission(t *testing.T) {
	var submissionPosted bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/media":
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(map[string]string{"error": "storage upload failed"})
		case "/api/form-submissions":
			submissionPosted = true
		}
	}))
	defer server.Close()

	c := NewFormsClient(server.URL)
	att := &Attachment{Filename: "a.txt", Content: strings.NewReader("x")}
	_, err := c.Submit(context.Background(), 1, 9, nil, att)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.False(t, submissionPosted, "submission must not be posted after a failed upload")
	assert.False(t, errors.Is(err, ErrSubmissionRejected))
}

func TestExtractPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"lexical document",
			`{"root":{"children":[{"children":[{"text":"Thank"},{"text":"you"}]}]}}`,
			"Thank you",
		},
		{"plain json string", `"All done"`, "All done"},
		{"empty object", `{}`, ""},
		{"empty", ``, ""},
		{"raw text", `not json at all`, "not json at all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractPlainText(json.RawMessage(tt.in)))
		})
	}
}
