package gravatar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashNormalizesEmail(t *testing.T) {
	assert.Equal(t, Hash("user@example.com"), Hash("  User@Example.COM  "))
	// Known md5 of "user@example.com"
	assert.Equal(t, "b58996c504c5638798eb6b511e6f49af", Hash("user@example.com"))
}

func TestURLReturnsAvatarWhenPresent(t *testing.T) {
	known := Hash("known@example.com")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, known) {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	lookup := NewLookup(WithBaseURL(srv.URL))

	url, err := lookup.URL(context.Background(), "known@example.com")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/"+known, url)

	_, err = lookup.URL(context.Background(), "unknown@example.com")
	assert.Error(t, err)
}
