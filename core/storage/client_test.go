package storage_test

import (
	"testing"

	"locafix/core/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name string
		cfg  storage.Config
	}{
		{"plain endpoint", storage.Config{Endpoint: "localhost:9000", AccessKey: "k", SecretKey: "s", Bucket: "locafix"}},
		{"http scheme stripped", storage.Config{Endpoint: "http://localhost:9000", AccessKey: "k", SecretKey: "s"}},
		{"https with region", storage.Config{Endpoint: "https://s3.amazonaws.com", AccessKey: "k", SecretKey: "s", UseSSL: true, Region: "eu-west-1"}},
		{"zero timeout uses default", storage.Config{Endpoint: "localhost:9000", TimeoutSeconds: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := storage.NewClient(tt.cfg)
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestNewClient_InvalidEndpoint(t *testing.T) {
	_, err := storage.NewClient(storage.Config{Endpoint: "bad host:9000"})
	assert.Error(t, err)
}
