package pipeline

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sort"

	"github.com/fogleman/gg"
	"github.com/nfnt/resize"
	"golang.org/x/image/font/basicfont"

	"cybershield/config"
	"cybershield/types"
)

// Heatmap layout constants.
const (
	stripCellWidth = 16
	stripHeight    = 64
	stripMinWidth  = 320
	thumbWidth     = 320
	thumbHeight    = 180
	gridColumns    = 3
)

// RenderStrip draws a 1-D color-mapped strip of per-frame combined scores, one
// cell per frame in original order. Returns false (and writes nothing) for an
// empty score sequence.
func RenderStrip(combined []float64, outPath string) (bool, error) {
	if len(combined) == 0 {
		return false, nil
	}

	width := len(combined) * stripCellWidth
	if width < stripMinWidth {
		width = stripMinWidth
	}
	cellW := float64(width) / float64(len(combined))

	dc := gg.NewContext(width, stripHeight)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	for i, score := range combined {
		r, g, b := heatColor(score)
		dc.SetRGB255(r, g, b)
		dc.DrawRectangle(float64(i)*cellW, 0, cellW, stripHeight)
		dc.Fill()
	}

	if err := dc.SavePNG(outPath); err != nil {
		return false, fmt.Errorf("save heatmap strip: %w", err)
	}
	return true, nil
}

// RenderTopFramesGrid composes the highest-scoring frame thumbnails into a
// grid with score overlays, for human inspection. Frames that cannot be
// decoded are skipped; an empty result writes nothing.
func RenderTopFramesGrid(frames []types.Frame, combined []float64, outPath string) (bool, error) {
	if len(frames) == 0 || len(frames) != len(combined) {
		return false, nil
	}

	order := make([]int, len(combined))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return combined[order[a]] > combined[order[b]]
	})
	if len(order) > config.HeatmapTopFrames {
		order = order[:config.HeatmapTopFrames]
	}

	thumbs := make([]image.Image, 0, len(order))
	labels := make([]float64, 0, len(order))
	for _, idx := range order {
		img, err := loadImage(frames[idx].Path)
		if err != nil {
			continue
		}
		thumbs = append(thumbs, resize.Resize(thumbWidth, thumbHeight, img, resize.Bilinear))
		labels = append(labels, combined[idx])
	}
	if len(thumbs) == 0 {
		return false, nil
	}

	rows := (len(thumbs) + gridColumns - 1) / gridColumns
	dc := gg.NewContext(gridColumns*thumbWidth, rows*thumbHeight)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	for i, thumb := range thumbs {
		x := (i % gridColumns) * thumbWidth
		y := (i / gridColumns) * thumbHeight
		dc.DrawImage(thumb, x, y)

		// score banner in the thumbnail corner
		dc.SetRGBA(0, 0, 0, 0.6)
		dc.DrawRectangle(float64(x), float64(y), 72, 20)
		dc.Fill()
		dc.SetRGB(1, 1, 1)
		dc.DrawString(fmt.Sprintf("%.1f%%", labels[i]*100), float64(x)+6, float64(y)+14)
	}

	if err := dc.SavePNG(outPath); err != nil {
		return false, fmt.Errorf("save heatmap grid: %w", err)
	}
	return true, nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

// heatColor maps a [0,1] score onto a dark-to-bright palette (black, purple,
// red, orange, near-white), inferno-like.
func heatColor(t float64) (int, int, int) {
	anchors := [][3]float64{
		{0, 0, 4},
		{87, 16, 110},
		{188, 55, 84},
		{249, 142, 9},
		{252, 255, 164},
	}
	if t <= 0 {
		return int(anchors[0][0]), int(anchors[0][1]), int(anchors[0][2])
	}
	if t >= 1 {
		last := anchors[len(anchors)-1]
		return int(last[0]), int(last[1]), int(last[2])
	}

	pos := t * float64(len(anchors)-1)
	i := int(pos)
	frac := pos - float64(i)
	r := anchors[i][0] + frac*(anchors[i+1][0]-anchors[i][0])
	g := anchors[i][1] + frac*(anchors[i+1][1]-anchors[i][1])
	b := anchors[i][2] + frac*(anchors[i+1][2]-anchors[i][2])
	return int(r), int(g), int(b)
}
