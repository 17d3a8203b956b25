package image

import (
	"strconv"
	"strings"
)

// BaseWidth is the width used for aspect ratios outside the standard table.
const BaseWidth = 1920

type size struct {
	width  int
	height int
}

var standardSizes = map[string]size{
	"16:9": {1920, 1080},
	"4:3":  {1024, 768},
	"1:1":  {1080, 1080},
	"9:16": {1080, 1920},
	"3:2":  {1800, 1200},
	"21:9": {2560, 1080},
}

// Dimensions maps an aspect ratio string to pixel dimensions. Unknown but well
// formed ratios keep BaseWidth and scale the height; malformed input falls back
// to 16:9.
func Dimensions(aspect string) (int, int) {
	aspect = strings.TrimSpace(aspect)
	if s, ok := standardSizes[aspect]; ok {
		return s.width, s.height
	}
	w, h, ok := strings.Cut(aspect, ":")
	if ok {
		wr, errW := strconv.Atoi(strings.TrimSpace(w))
		hr, errH := strconv.Atoi(strings.TrimSpace(h))
		if errW == nil && errH == nil && wr > 0 && hr > 0 {
			return BaseWidth, BaseWidth * hr / wr
		}
	}
	def := standardSizes["16:9"]
	return def.width, def.height
}

// StandardAspectRatios lists the ratios that have a fixed size, widest first.
func StandardAspectRatios() []string {
	return []string{"21:9", "16:9", "3:2", "4:3", "1:1", "9:16"}
}
