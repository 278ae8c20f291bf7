package wsi

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/robert-malhotra/go-wsi/internal/tifflike"
)

// Well-known property names.
const (
	PropVendor     = "wsi.vendor"
	PropQuickHash  = "wsi.quickhash-1"
	PropMPPX       = "wsi.mpp-x"
	PropMPPY       = "wsi.mpp-y"
	PropLevelCount = "wsi.level-count"
)

func levelProp(i int, field string) string {
	return fmt.Sprintf("wsi.level[%d].%s", i, field)
}

// setResolutionProperty publishes microns-per-pixel derived from a TIFF
// resolution tag on the representative directory. Resolutions are only
// meaningful in centimeters here: a missing unit defaults to inches, and
// anything but centimeters publishes nothing.
func setResolutionProperty(props map[string]string, d *tifflike.Directory, tag uint16, name string) {
	unit, err := d.Uint(tifflike.TagResolutionUnit)
	if errors.Is(err, tifflike.ErrNoValue) {
		unit = tifflike.ResUnitInch
	} else if err != nil {
		return
	}

	res, err := d.Float(tag)
	if err == nil && res > 0 && unit == tifflike.ResUnitCentimeter {
		props[name] = strconv.FormatFloat(10000.0/res, 'f', -1, 64)
	}
}

// setLevelProperties publishes the per-level geometry properties.
func setLevelProperties(props map[string]string, levels []*Level) {
	props[PropLevelCount] = strconv.Itoa(len(levels))
	for i, l := range levels {
		props[levelProp(i, "width")] = strconv.FormatInt(l.Width(), 10)
		props[levelProp(i, "height")] = strconv.FormatInt(l.Height(), 10)
		props[levelProp(i, "tile-width")] = strconv.FormatInt(l.TileWidth(), 10)
		props[levelProp(i, "tile-height")] = strconv.FormatInt(l.TileHeight(), 10)
		props[levelProp(i, "downsample")] = strconv.FormatFloat(l.Downsample(), 'f', -1, 64)
	}
}
