package storage

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"studentapi/internal/config"
)

func TestValidateConfig(t *testing.T) {
	valid := config.MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s", Bucket: "b"}
	assert.NoError(t, validateConfig(valid))

	noEndpoint := valid
	noEndpoint.Endpoint = ""
	assert.EqualError(t, validateConfig(noEndpoint), "minio endpoint is required")

	noCreds := valid
	noCreds.SecretKey = ""
	assert.EqualError(t, validateConfig(noCreds), "minio credentials are required")

	noBucket := valid
	noBucket.Bucket = ""
	assert.EqualError(t, validateConfig(noBucket), "minio bucket is required")
}

func TestNewMinIORejectsInvalidConfig(t *testing.T) {
	s, err := NewMinIO(config.MinIOConfig{})
	assert.Error(t, err)
	assert.Nil(t, s)
}

func TestPublicURL(t *testing.T) {
	endpoint, _ := url.Parse("http://localhost:9000")

	base := publicBaseURL(config.MinIOConfig{Bucket: "student-files"}, endpoint)
	assert.Equal(t, "http://localhost:9000/student-files", base)

	base = publicBaseURL(config.MinIOConfig{Bucket: "student-files", PublicURL: "https://cdn.example.com/files/"}, endpoint)
	assert.Equal(t, "https://cdn.example.com/files", base)

	m := &minioStorage{baseURL: "http://localhost:9000/student-files"}
	assert.Equal(t, "http://localhost:9000/student-files/students/a.pdf", m.URL("/students/a.pdf"))
}
