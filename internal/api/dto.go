package api

// OpenRequest asks the server to open a slide file by path.
type OpenRequest struct {
	Path string `json:"path"`
}

// LevelInfo describes one pyramid level.
type LevelInfo struct {
	Width      int64   `json:"width"`
	Height     int64   `json:"height"`
	TileWidth  int64   `json:"tile_width"`
	TileHeight int64   `json:"tile_height"`
	Downsample float64 `json:"downsample"`
}

// AssociatedInfo describes one associated image.
type AssociatedInfo struct {
	Name   string `json:"name"`
	Width  int64  `json:"width"`
	Height int64  `json:"height"`
}

// SlideSummary is the server's representation of an open slide.
type SlideSummary struct {
	ID         string            `json:"id"`
	Path       string            `json:"path"`
	Format     string            `json:"format"`
	QuickHash  string            `json:"quickhash"`
	Width      int64             `json:"width"`
	Height     int64             `json:"height"`
	Levels     []LevelInfo       `json:"levels"`
	Associated []AssociatedInfo  `json:"associated"`
	Properties map[string]string `json:"properties"`
}

// SlideList is the response to a list request.
type SlideList struct {
	Slides []SlideSummary `json:"slides"`
}

// DeleteSlideResponse confirms a close request.
type DeleteSlideResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}
