//go:build integration

package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"booklore/pkg/http_client"
)

func TestOpenLibrary_Live(t *testing.T) {
	c := NewOpenLibraryClient("https://openlibrary.org", 2, http_client.New(10*time.Second))
	eb, err := c.FetchByISBN(context.Background(), "9780134494166")
	require.NoError(t, err)
	require.NotNil(t, eb.Title)
}
