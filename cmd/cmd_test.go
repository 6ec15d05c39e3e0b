package cmd

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnyUserName/shopimg-cli/internal/catalogapi"
	"github.com/AnyUserName/shopimg-cli/internal/identity"
	"github.com/AnyUserName/shopimg-cli/internal/manifest"
	"github.com/AnyUserName/shopimg-cli/internal/upload"
)

func gradientJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func writeConfig(t *testing.T, dir, apiURL string) string {
	t.Helper()
	path := filepath.Join(dir, "shopimg.yaml")
	body := `
api:
  baseurl: ` + apiURL + `
  token: secret
rules:
  square64:
    type: image/jpeg
    width: 64
    height: 64
    maxbytes: 65536
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func validReport(t *testing.T, dir string) *manifest.Report {
	t.Helper()
	data := bytes.Repeat([]byte{1}, 100)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.0123abcd.webp"), data, 0o644))

	m := manifest.New("variant", manifest.Target{Type: "image/webp", Width: 600, Height: 600, MaxBytes: 1000})
	m.Items = []manifest.Entry{
		{
			ID:       "file_a.jpg_5000_1",
			Original: &manifest.OriginalInfo{Name: "a.jpg", Type: "image/jpeg", Size: 5000},
			Output: &manifest.Output{
				Type: "image/webp", Width: 600, Height: 600, Size: 100,
				Hash: "0123abcd0123abcd", Path: "a.0123abcd.webp", Quality: 0.92, Attempts: 1,
			},
		},
		{ID: identity.URLID("https://cdn.example/x.webp"), Remote: "https://cdn.example/x.webp"},
	}
	m.ComputeStats()
	return m
}

func TestValidateReport_Valid(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, validateReport(validReport(t, dir), dir))
}

func TestValidateReport_Errors(t *testing.T) {
	cases := map[string]struct {
		mutate func(m *manifest.Report)
		want   string
	}{
		"version":      {func(m *manifest.Report) { m.Version = 9 }, "unsupported report version"},
		"not square":   {func(m *manifest.Report) { m.Target.Height = 500 }, "not a positive square"},
		"over budget":  {func(m *manifest.Report) { m.Target.MaxBytes = 50 }, "over budget"},
		"dimensions":   {func(m *manifest.Report) { m.Items[0].Output.Width = 599 }, "dimensions 599x600"},
		"missing file": {func(m *manifest.Report) { m.Items[0].Output.Path = "gone.webp" }, "file not found"},
		"size":         {func(m *manifest.Report) { m.Items[0].Output.Size = 99 }, "size mismatch"},
		"duplicate id": {func(m *manifest.Report) { m.Items[1].ID = m.Items[0].ID }, "duplicate id"},
		"url id":       {func(m *manifest.Report) { m.Items[1].Remote = "https://other.example" }, "does not match url"},
		"stats":        {func(m *manifest.Report) { m.Stats.Normalized = 3 }, "stats.normalized mismatch"},
		"no source":    {func(m *manifest.Report) { m.Items[0].Output = nil }, "no output and no remote"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			m := validReport(t, dir)
			tc.mutate(m)
			errs := validateReport(m, dir)
			require.NotEmpty(t, errs)
			assert.Contains(t, strings.Join(errs, "\n"), tc.want)
		})
	}
}

func TestNormalizeValidateStats(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "http://localhost:1")
	inDir := filepath.Join(dir, "in")
	require.NoError(t, os.MkdirAll(inDir, 0o755))
	gradientJPEG(t, filepath.Join(inDir, "wide.jpg"), 300, 150)
	gradientJPEG(t, filepath.Join(inDir, "tall.jpg"), 120, 240)
	outDir := filepath.Join(dir, "out")

	out, err := runCLI(t, "--config", cfg, "normalize", "--rule", "square64", "--out", outDir, inDir)
	require.NoError(t, err)
	assert.Contains(t, out, "normalize complete")
	assert.Contains(t, out, "Images:      2")

	m, err := manifest.ReadJSON(filepath.Join(outDir, manifest.FileName))
	require.NoError(t, err)
	assert.Equal(t, "square64", m.Rule)
	require.Len(t, m.Items, 2)
	for _, e := range m.Items {
		require.NotNil(t, e.Output)
		assert.Equal(t, 64, e.Output.Width)
		assert.Equal(t, "image/jpeg", e.Output.Type)
		assert.True(t, strings.HasPrefix(e.ID, "file_"))
	}

	out, err = runCLI(t, "--config", cfg, "validate", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Report is valid")

	out, err = runCLI(t, "--config", cfg, "stats", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Rule:             square64")
	assert.Contains(t, out, "Normalized:       2")
}

func TestNormalize_RepeatedInputAndURLValidate(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "http://localhost:1")
	shirt := filepath.Join(dir, "shirt.jpg")
	gradientJPEG(t, shirt, 200, 120)
	outDir := filepath.Join(dir, "out")

	_, err := runCLI(t, "--config", cfg, "normalize", "--rule", "square64", "--out", outDir,
		shirt, shirt, "https://cdn.example/kept.webp")
	require.NoError(t, err)

	m, err := manifest.ReadJSON(filepath.Join(outDir, manifest.FileName))
	require.NoError(t, err)
	require.Len(t, m.Items, 3)
	assert.NotEqual(t, m.Items[0].Output.Path, m.Items[1].Output.Path)
	assert.Equal(t, "https://cdn.example/kept.webp", m.Items[2].Remote)
	assert.Equal(t, 1, m.Stats.Retained)

	out, err := runCLI(t, "--config", cfg, "validate", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Report is valid")

	out, err = runCLI(t, "--config", cfg, "stats", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Retained URLs:    1")
}

func TestNormalize_UnknownRule(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "http://localhost:1")
	gradientJPEG(t, filepath.Join(dir, "a.jpg"), 10, 10)

	_, err := runCLI(t, "--config", cfg, "normalize", "--rule", "nope", "--out", filepath.Join(dir, "out"), filepath.Join(dir, "a.jpg"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown rule "nope"`)
	assert.NoDirExists(t, filepath.Join(dir, "out"))
}

func TestSubmit_SendsProduct(t *testing.T) {
	var got struct {
		method, path, auth string
		files              int
		colors             string
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method, got.path, got.auth = r.Method, r.URL.Path, r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			got.files = len(r.MultipartForm.File[upload.VariantField(0)])
			got.colors = r.FormValue(upload.FieldColors)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"_id":"p-42"}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := writeConfig(t, dir, srv.URL+"/api")
	gradientJPEG(t, filepath.Join(dir, "front.jpg"), 200, 100)
	productPath := filepath.Join(dir, "tee.yaml")
	require.NoError(t, os.WriteFile(productPath, []byte(`
name: Tee
fields:
  price: "10"
colors:
  - name: Red
    code: "#f00"
    images:
      - front.jpg
      - https://cdn.example/back.webp
`), 0o644))

	out, err := runCLI(t, "--config", cfg, "submit", "--rule", "square64", "--dry-run=false", "--update=", productPath)
	require.NoError(t, err)
	assert.Contains(t, out, "id p-42")

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/api/products", got.path)
	assert.Equal(t, "Bearer secret", got.auth)
	assert.Equal(t, 1, got.files)
	assert.Contains(t, got.colors, "https://cdn.example/back.webp")
}

func TestSubmit_DryRunSendsNothing(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "http://127.0.0.1:1")
	gradientJPEG(t, filepath.Join(dir, "cover.jpg"), 80, 80)
	productPath := filepath.Join(dir, "cat.yaml")
	require.NoError(t, os.WriteFile(productPath, []byte("kind: category\nname: Shirts\nimages: [cover.jpg]\n"), 0o644))

	out, err := runCLI(t, "--config", cfg, "submit", "--rule", "square64", "--dry-run", productPath)
	require.NoError(t, err)
	assert.Contains(t, out, "dry run")
	assert.Contains(t, out, upload.FieldImages)
}

func TestSendRoutes(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
	}))
	defer srv.Close()

	c, err := catalogapi.New(catalogapi.Options{BaseURL: srv.URL})
	require.NoError(t, err)
	p := upload.NewPayload()
	ctx := context.Background()

	for _, tc := range []struct{ kind, id string }{
		{"product", ""}, {"product", "p1"}, {"category", ""}, {"category", "c1"},
	} {
		_, err := send(ctx, c, tc.kind, tc.id, p)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{
		"POST /products", "PUT /products/p1", "POST /categories", "PUT /categories/c1",
	}, calls)
}
