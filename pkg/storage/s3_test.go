package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectURL(t *testing.T) {
	t.Run("path-style custom endpoint", func(t *testing.T) {
		s := &MediaStore{bucket: "uploads", region: "us-east-1", endpoint: "http://localhost:9000", pathStyle: true}
		assert.Equal(t, "http://localhost:9000/uploads/media/abc.png", s.ObjectURL("media/abc.png"))
	})

	t.Run("virtual-hosted custom endpoint", func(t *testing.T) {
		s := &MediaStore{bucket: "uploads", region: "us-east-1", endpoint: "https://uploads.cdn.example", pathStyle: false}
		assert.Equal(t, "https://uploads.cdn.example/media/abc.png", s.ObjectURL("media/abc.png"))
	})

	t.Run("aws default endpoint", func(t *testing.T) {
		s := &MediaStore{bucket: "uploads", region: "eu-west-1"}
		assert.Equal(t, "https://uploads.s3.eu-west-1.amazonaws.com/media/abc.png", s.ObjectURL("media/abc.png"))
	})
}
