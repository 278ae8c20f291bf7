package api

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/robert-malhotra/go-wsi/internal/logger"
	"github.com/robert-malhotra/go-wsi/wsi"
)

// maxRegionPixels bounds a single region request. Larger reads must be
// tiled by the client.
const maxRegionPixels = 16 << 20

// Server exposes a slide store over HTTP.
type Server struct {
	store *SlideStore
	log   logger.Logger
}

func NewServer(store *SlideStore, log logger.Logger) *Server {
	if store == nil {
		store = NewSlideStore()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Server{store: store, log: log}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/slides", s.handleOpen)
	e.GET("/v1/slides", s.handleListSlides)
	e.GET("/v1/slides/:id", s.handleGetSlide)
	e.DELETE("/v1/slides/:id", s.handleCloseSlide)
	e.GET("/v1/slides/:id/region", s.handleRegion)
	e.GET("/v1/slides/:id/tiles/:level/:col/:row", s.handleTile)
	e.GET("/v1/slides/:id/associated/:name", s.handleAssociated)
}

// Store returns the server's slide store so callers can close it on
// shutdown.
func (s *Server) Store() *SlideStore {
	return s.store
}

func (s *Server) handleOpen(c *echo.Context) error {
	req, err := decodeJSON[OpenRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if req.Path == "" {
		return writeBadRequest(c, "path is required")
	}

	id, slide, err := s.store.Open(req.Path)
	if err != nil {
		return writeBadRequest(c, fmt.Sprintf("opening slide: %v", err))
	}
	s.log.Info("opened slide", "id", id, "path", req.Path, "format", slide.Format())
	return c.JSON(http.StatusOK, summarize(id, slide))
}

func (s *Server) handleListSlides(c *echo.Context) error {
	out := SlideList{Slides: []SlideSummary{}}
	for _, id := range s.store.IDs() {
		if slide, ok := s.store.Get(id); ok {
			out.Slides = append(out.Slides, summarize(id, slide))
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetSlide(c *echo.Context) error {
	id := c.Param("id")
	slide, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, fmt.Sprintf("no slide with id %q", id))
	}
	return c.JSON(http.StatusOK, summarize(id, slide))
}

func (s *Server) handleCloseSlide(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Remove(id) {
		return writeNotFound(c, fmt.Sprintf("no slide with id %q", id))
	}
	s.log.Info("closed slide", "id", id)
	return c.JSON(http.StatusOK, DeleteSlideResponse{ID: id, Deleted: true})
}

func (s *Server) handleRegion(c *echo.Context) error {
	slide, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, fmt.Sprintf("no slide with id %q", c.Param("id")))
	}

	x, err := queryInt64(c, "x", 0)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	y, err := queryInt64(c, "y", 0)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	level, err := queryInt(c, "level", 0)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	w, err := queryInt(c, "w", 0)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	h, err := queryInt(c, "h", 0)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if w <= 0 || h <= 0 {
		return writeBadRequest(c, "w and h must be positive")
	}
	if int64(w)*int64(h) > maxRegionPixels {
		return writeBadRequest(c, fmt.Sprintf("region %dx%d exceeds %d pixels", w, h, maxRegionPixels))
	}

	img, err := slide.ReadRegion(x, y, level, w, h)
	if err != nil {
		return writeBadRequest(c, fmt.Sprintf("reading region: %v", err))
	}
	return writePNG(c, img)
}

func (s *Server) handleTile(c *echo.Context) error {
	slide, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, fmt.Sprintf("no slide with id %q", c.Param("id")))
	}

	level, err := paramInt(c, "level")
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	col, err := paramInt64(c, "col")
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	row, err := paramInt64(c, "row")
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	l, err := slide.Level(level)
	if err != nil {
		return writeNotFound(c, err.Error())
	}
	if col < 0 || col >= l.TilesAcross() || row < 0 || row >= l.TilesDown() {
		return writeNotFound(c, fmt.Sprintf("tile (%d, %d) outside level %d grid", col, row, level))
	}

	// Tile origin in the level's own space, scaled back to level 0
	// coordinates for ReadRegion.
	x := int64(float64(col*l.TileWidth()) * l.Downsample())
	y := int64(float64(row*l.TileHeight()) * l.Downsample())
	img, err := slide.ReadRegion(x, y, level, int(l.TileWidth()), int(l.TileHeight()))
	if err != nil {
		return writeBadRequest(c, fmt.Sprintf("reading tile: %v", err))
	}
	return writePNG(c, img)
}

func (s *Server) handleAssociated(c *echo.Context) error {
	slide, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, fmt.Sprintf("no slide with id %q", c.Param("id")))
	}

	name := c.Param("name")
	img, err := slide.AssociatedImage(name)
	if err != nil {
		return writeNotFound(c, fmt.Sprintf("associated image %q: %v", name, err))
	}
	return writePNG(c, img)
}

func summarize(id string, slide *wsi.Slide) SlideSummary {
	w, h := slide.Dimensions()
	out := SlideSummary{
		ID:         id,
		Path:       slide.Path(),
		Format:     slide.Format(),
		QuickHash:  slide.QuickHash(),
		Width:      w,
		Height:     h,
		Levels:     []LevelInfo{},
		Associated: []AssociatedInfo{},
		Properties: slide.Properties(),
	}
	for i := 0; i < slide.LevelCount(); i++ {
		l, err := slide.Level(i)
		if err != nil {
			continue
		}
		out.Levels = append(out.Levels, LevelInfo{
			Width:      l.Width(),
			Height:     l.Height(),
			TileWidth:  l.TileWidth(),
			TileHeight: l.TileHeight(),
			Downsample: l.Downsample(),
		})
	}
	for _, name := range slide.AssociatedImageNames() {
		aw, ah, err := slide.AssociatedImageDimensions(name)
		if err != nil {
			continue
		}
		out.Associated = append(out.Associated, AssociatedInfo{Name: name, Width: aw, Height: ah})
	}
	return out
}

func writePNG(c *echo.Context, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var v T
	dec := json.NewDecoder(r)
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("invalid JSON body: %w", err)
	}
	return v, nil
}

func queryInt64(c *echo.Context, name string, def int64) (int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("query parameter %q: %w", name, err)
	}
	return v, nil
}

func queryInt(c *echo.Context, name string, def int) (int, error) {
	v, err := queryInt64(c, name, int64(def))
	return int(v), err
}

func paramInt64(c *echo.Context, name string) (int64, error) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("path parameter %q: %w", name, err)
	}
	return v, nil
}

func paramInt(c *echo.Context, name string) (int, error) {
	v, err := paramInt64(c, name)
	return int(v), err
}
