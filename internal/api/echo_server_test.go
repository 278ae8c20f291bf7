package api

import (
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v5"

	"github.com/robert-malhotra/go-wsi/internal/tifftest"
)

func fixtureSlide(t *testing.T) string {
	t.Helper()
	tile := func(r byte) []byte { return tifftest.RawTileRGBA(16, 16, r, 0, 0, 255) }

	b := tifftest.New()
	b.AddDir().TiledLevel(32, 16, 16, 16, tifftest.CompressionNone,
		[][]byte{tile(100), tile(101)})
	b.AddDir().
		Long(tifftest.TagNewSubfileType, 0).
		FlatImage(4, 1, "label - 7", [][]byte{tifftest.RawRowRGB(4, 9, 9, 9)})
	b.AddDir().
		Long(tifftest.TagNewSubfileType, 0).
		FlatImage(4, 1, "label - slide 7", [][]byte{tifftest.RawRowRGB(4, 30, 60, 90)})
	return b.WriteFile(t, "api.tif")
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	NewServer(NewSlideStore(), nil).Register(e)
	return e
}

func do(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func mustOpen(t *testing.T, e *echo.Echo, path string) SlideSummary {
	t.Helper()
	rec := do(t, e, http.MethodPost, "/v1/slides", `{"path":"`+path+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("open status %d: %s", rec.Code, rec.Body.String())
	}
	var sum SlideSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	return sum
}

func TestSlideLifecycle(t *testing.T) {
	e := newTestEcho()
	sum := mustOpen(t, e, fixtureSlide(t))

	if sum.ID == "" || sum.Format != "huron" {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.Width != 32 || sum.Height != 16 {
		t.Errorf("dimensions = %dx%d, want 32x16", sum.Width, sum.Height)
	}
	if len(sum.Levels) != 1 || sum.Levels[0].TileWidth != 16 {
		t.Errorf("levels = %+v", sum.Levels)
	}
	if len(sum.Associated) != 1 || sum.Associated[0].Name != "label" {
		t.Errorf("associated = %+v", sum.Associated)
	}

	rec := do(t, e, http.MethodGet, "/v1/slides/"+sum.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, e, http.MethodDelete, "/v1/slides/"+sum.ID, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"deleted":true`) {
		t.Fatalf("delete status %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, e, http.MethodGet, "/v1/slides/"+sum.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status %d", rec.Code)
	}
}

func TestOpenValidation(t *testing.T) {
	e := newTestEcho()

	rec := do(t, e, http.MethodPost, "/v1/slides", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing path status %d", rec.Code)
	}

	rec = do(t, e, http.MethodPost, "/v1/slides", `{"path":"/nonexistent.tif"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad path status %d", rec.Code)
	}
}

func TestTileEndpoint(t *testing.T) {
	e := newTestEcho()
	sum := mustOpen(t, e, fixtureSlide(t))

	rec := do(t, e, http.MethodGet, "/v1/slides/"+sum.ID+"/tiles/0/1/0", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("tile status %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("decode PNG: %v", err)
	}
	r, _, _, _ := img.At(0, 0).RGBA()
	if r>>8 != 101 {
		t.Errorf("tile pixel red = %d, want 101", r>>8)
	}

	rec = do(t, e, http.MethodGet, "/v1/slides/"+sum.ID+"/tiles/0/9/0", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("out-of-grid tile status %d", rec.Code)
	}
}

func TestRegionEndpoint(t *testing.T) {
	e := newTestEcho()
	sum := mustOpen(t, e, fixtureSlide(t))

	rec := do(t, e, http.MethodGet, "/v1/slides/"+sum.ID+"/region?x=0&y=0&level=0&w=8&h=8", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("region status %d: %s", rec.Code, rec.Body.String())
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("decode PNG: %v", err)
	}
	r, _, _, _ := img.At(0, 0).RGBA()
	if r>>8 != 100 {
		t.Errorf("region pixel red = %d, want 100", r>>8)
	}

	rec = do(t, e, http.MethodGet, "/v1/slides/"+sum.ID+"/region?w=0&h=8", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("zero width status %d", rec.Code)
	}
	rec = do(t, e, http.MethodGet, "/v1/slides/"+sum.ID+"/region?w=100000&h=100000", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("oversized region status %d", rec.Code)
	}
}

func TestAssociatedEndpoint(t *testing.T) {
	e := newTestEcho()
	sum := mustOpen(t, e, fixtureSlide(t))

	rec := do(t, e, http.MethodGet, "/v1/slides/"+sum.ID+"/associated/label", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("associated status %d: %s", rec.Code, rec.Body.String())
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("decode PNG: %v", err)
	}
	if w := img.Bounds().Dx(); w != 4 {
		t.Errorf("associated width = %d, want 4", w)
	}

	rec = do(t, e, http.MethodGet, "/v1/slides/"+sum.ID+"/associated/macro", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown associated status %d", rec.Code)
	}
}

func TestStoreCloseAll(t *testing.T) {
	store := NewSlideStore()
	path := fixtureSlide(t)
	id, _, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	store.Close()
	if _, ok := store.Get(id); ok {
		t.Error("slide still present after Close")
	}
}
