// Package canvas executes render draw lists on ebiten images. The live
// preview and the recording picture-in-picture both draw through a Painter.
package canvas

import (
	"errors"
	"fmt"
	"image"
	_ "image/png" // sprite files are PNG
	"io/fs"
	"path"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Garsondee/Camshot/internal/render"
)

// Atlas maps sprite ids to loaded images. The zero value is empty and every
// lookup misses, which makes the renderer fall back to primitives.
type Atlas struct {
	images map[render.SpriteID]*ebiten.Image
}

// NewAtlas returns an empty atlas.
func NewAtlas() *Atlas {
	return &Atlas{images: map[render.SpriteID]*ebiten.Image{}}
}

// Add registers img under id.
func (a *Atlas) Add(id render.SpriteID, img *ebiten.Image) {
	if a.images == nil {
		a.images = map[render.SpriteID]*ebiten.Image{}
	}
	a.images[id] = img
}

// Has reports whether id is loaded.
func (a *Atlas) Has(id render.SpriteID) bool {
	if a == nil {
		return false
	}
	_, ok := a.images[id]
	return ok
}

// Image returns the image for id, or nil.
func (a *Atlas) Image(id render.SpriteID) *ebiten.Image {
	if a == nil {
		return nil
	}
	return a.images[id]
}

// Len returns the number of loaded sprites.
func (a *Atlas) Len() int {
	if a == nil {
		return 0
	}
	return len(a.images)
}

// LoadAtlas reads <dir>/<id>.png for every sprite id. Missing files are
// skipped; any other failure is returned.
func LoadAtlas(fsys fs.FS, dir string) (*Atlas, error) {
	a := NewAtlas()
	for _, id := range render.SpriteIDs() {
		p := path.Join(dir, string(id)+".png")
		img, err := decodeFile(fsys, p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load sprite %s: %w", id, err)
		}
		a.Add(id, ebiten.NewImageFromImage(img))
	}
	return a, nil
}

func decodeFile(fsys fs.FS, p string) (image.Image, error) {
	f, err := fsys.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", p, err)
	}
	return img, nil
}
