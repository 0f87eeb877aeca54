// Package render draws collection cards for minted instances.
package render

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"

	"github.com/intrntsrfr/countrydex/database"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

var (
	artworkBox = image.Rect(34, 261, 1393, 992)
	iconBox    = image.Rect(1200, 30, 1392, 222)

	abilityNameFill = color.RGBA{230, 230, 230, 255}
	healthFill      = color.RGBA{237, 115, 101, 255}
	attackFill      = color.RGBA{252, 194, 76, 255}
)

const (
	abilityNameWidth = 28
	descriptionWidth = 33
)

// ConfigurationError is returned when a collectible references a regime or
// economy that has no asset.
type ConfigurationError struct {
	Field string
	Value string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("render: no %s asset for %q", e.Field, e.Value)
}

// Faces is the set of font faces used on a card.
type Faces struct {
	Title       font.Face
	AbilityName font.Face
	Description font.Face
	Stats       font.Face
}

// Assets holds everything needed to draw a card except the collectible
// artwork itself.
type Assets struct {
	Templates map[database.Regime]image.Image
	Icons     map[database.Economy]image.Image
	Faces     Faces
}

// ArtworkLoader resolves a collectible's CollectionCard path to an image.
type ArtworkLoader func(path string) (image.Image, error)

// FileArtwork loads artwork relative to root.
func FileArtwork(root string) ArtworkLoader {
	return func(path string) (image.Image, error) {
		return decodeFile(filepath.Join(root, path))
	}
}

// TextItem is a single run of text placed on the card.
type TextItem struct {
	Text        string
	At          image.Point
	Face        font.Face
	Fill        color.Color
	StrokeWidth int
}

type Renderer struct {
	assets  *Assets
	artwork ArtworkLoader
}

func New(assets *Assets, artwork ArtworkLoader) *Renderer {
	return &Renderer{assets: assets, artwork: artwork}
}

// Layout returns the text runs for a card in draw order.
func (r *Renderer) Layout(inst *database.Instance, def *database.Collectible) []TextItem {
	f := r.assets.Faces
	items := []TextItem{
		{Text: def.Name, At: image.Pt(50, 20), Face: f.Title, Fill: color.White},
	}
	for i, line := range wrap("Ability: "+def.AbilityName, abilityNameWidth) {
		items = append(items, TextItem{
			Text: line, At: image.Pt(100, 1050+100*i), Face: f.AbilityName,
			Fill: abilityNameFill, StrokeWidth: 2,
		})
	}
	for i, line := range wrap(def.AbilityDescription, descriptionWidth) {
		items = append(items, TextItem{
			Text: line, At: image.Pt(60, 1300+60*i), Face: f.Description,
			Fill: color.White, StrokeWidth: 1,
		})
	}
	items = append(items,
		TextItem{
			Text: strconv.Itoa(inst.Health(def)), At: image.Pt(320, 1670), Face: f.Stats,
			Fill: healthFill, StrokeWidth: 1,
		},
		TextItem{
			Text: strconv.Itoa(inst.Attack(def)), At: image.Pt(960, 1670), Face: f.Stats,
			Fill: attackFill, StrokeWidth: 1,
		},
	)
	return items
}

// Render draws the card for inst. The output only depends on its inputs and
// the loaded assets.
func (r *Renderer) Render(inst *database.Instance, def *database.Collectible) (*image.RGBA, error) {
	tmpl, ok := r.assets.Templates[def.Regime]
	if !ok {
		return nil, &ConfigurationError{Field: "regime", Value: def.Regime.String()}
	}
	icon, ok := r.assets.Icons[def.Economy]
	if !ok {
		return nil, &ConfigurationError{Field: "economy", Value: def.Economy.String()}
	}

	art, err := r.artwork(def.CollectionCard)
	if err != nil {
		return nil, fmt.Errorf("render: load artwork %q: %w", def.CollectionCard, err)
	}

	b := tmpl.Bounds()
	img := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(img, img.Bounds(), tmpl, b.Min, draw.Src)

	for _, it := range r.Layout(inst, def) {
		drawText(img, it)
	}

	draw.Draw(img, artworkBox, fit(art, artworkBox.Dx(), artworkBox.Dy()), image.Point{}, draw.Src)
	draw.Draw(img, iconBox, fit(icon, iconBox.Dx(), iconBox.Dy()), image.Point{}, draw.Over)
	return img, nil
}

func drawText(dst draw.Image, it TextItem) {
	if it.Face == nil || it.Text == "" {
		return
	}
	d := &font.Drawer{Dst: dst, Face: it.Face}
	baseline := it.At.Y + it.Face.Metrics().Ascent.Ceil()

	if it.StrokeWidth > 0 {
		d.Src = image.NewUniform(color.Black)
		for dy := -it.StrokeWidth; dy <= it.StrokeWidth; dy++ {
			for dx := -it.StrokeWidth; dx <= it.StrokeWidth; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				d.Dot = fixed.P(it.At.X+dx, baseline+dy)
				d.DrawString(it.Text)
			}
		}
	}

	d.Src = image.NewUniform(it.Fill)
	d.Dot = fixed.P(it.At.X, baseline)
	d.DrawString(it.Text)
}

// fit scales src to cover w×h and crops the overflow evenly from both sides.
func fit(src image.Image, w, h int) *image.RGBA {
	sb := src.Bounds()
	sw, sh := sb.Dx(), sb.Dy()
	crop := sb
	if sw*h > sh*w {
		cw := sh * w / h
		x0 := sb.Min.X + (sw-cw)/2
		crop = image.Rect(x0, sb.Min.Y, x0+cw, sb.Max.Y)
	} else if sw*h < sh*w {
		ch := sw * h / w
		y0 := sb.Min.Y + (sh-ch)/2
		crop = image.Rect(sb.Min.X, y0, sb.Max.X, y0+ch)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)
	return dst
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}
