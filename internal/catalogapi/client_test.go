package catalogapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnyUserName/shopimg-cli/internal/media"
	"github.com/AnyUserName/shopimg-cli/internal/upload"
)

func samplePayload(t *testing.T) *upload.Payload {
	t.Helper()
	p, err := upload.AssembleVariants([]upload.Variant{{
		Name: "Red",
		Code: "#f00",
		Items: []media.Item{
			{ID: "file_a", Src: &media.NormalizedImage{Name: "a.webp", Type: "image/webp", Data: []byte("AAAA")}},
			{ID: "url_b", Src: media.RemoteURL("https://cdn.example/b.webp")},
		},
	}})
	require.NoError(t, err)
	p.SetField("name", "Tee")
	return p
}

func TestCreateProduct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/products", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Tee", r.FormValue("name"))

		var colors []map[string]any
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("colors")), &colors))
		assert.Equal(t, []any{"https://cdn.example/b.webp"}, colors[0]["images"])

		files := r.MultipartForm.File["color_images_0"]
		require.Len(t, files, 1)
		assert.Equal(t, "a.webp", files[0].Filename)
		assert.Equal(t, "image/webp", files[0].Header.Get("Content-Type"))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"_id":"p-1","message":"created"}`))
	}))
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL + "/api/", Token: "tok", Log: zerolog.Nop()})
	require.NoError(t, err)

	resp, err := c.CreateProduct(context.Background(), samplePayload(t))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "p-1", resp.ID)
	assert.Equal(t, "created", resp.Message)
}

func TestUpdateProduct_PathAndMethod(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/products/abc 1", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	resp, err := c.UpdateProduct(context.Background(), "abc 1", samplePayload(t))
	require.NoError(t, err)
	assert.Equal(t, "", resp.ID)
}

func TestCategoryEndpoints(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"c-9"}`))
	}))
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	p, err := upload.AssembleSingle(nil)
	require.NoError(t, err)

	resp, err := c.CreateCategory(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "c-9", resp.ID)
	_, err = c.UpdateCategory(context.Background(), "c-9", p)
	require.NoError(t, err)
	assert.Equal(t, []string{"POST /categories", "PUT /categories/c-9"}, paths)
}

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"price is required"}`))
	}))
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = c.CreateProduct(context.Background(), samplePayload(t))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "price is required", apiErr.Message)
}

func TestAPIError_NonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = c.CreateProduct(context.Background(), samplePayload(t))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "catalog api: status 502", apiErr.Error())
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := New(Options{BaseURL: "ftp://example.com"})
	assert.Error(t, err)
	_, err = New(Options{BaseURL: "::nope"})
	assert.Error(t, err)
}

func TestContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.CreateProduct(ctx, samplePayload(t))
	assert.ErrorIs(t, err, context.Canceled)
}
