package render

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/intrntsrfr/countrydex/database"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

var (
	templateFiles = map[database.Regime]string{
		database.RegimeDemocracy:    "democracy.png",
		database.RegimeDictatorship: "dictatorship.png",
		database.RegimeUnion:        "union.png",
	}
	iconFiles = map[database.Economy]string{
		database.EconomyCapitalist: "capitalist.png",
		database.EconomyCommunist:  "communist.png",
		database.EconomyAnarchy:    "anarchy.png",
	}
)

const (
	titleFont   = "ArsenicaTrial-Extrabold.ttf"
	capsFont    = "Bobby Jones Soft.otf"
	bodyFont    = "OpenSans-Semibold.ttf"
	titleSize   = 170
	abilitySize = 110
	bodySize    = 75
	statsSize   = 130
)

// LoadAssets reads card templates, economy icons and fonts from dir.
func LoadAssets(dir string) (*Assets, error) {
	a := &Assets{
		Templates: make(map[database.Regime]image.Image),
		Icons:     make(map[database.Economy]image.Image),
	}
	for regime, name := range templateFiles {
		img, err := decodeFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("load template %s: %w", name, err)
		}
		a.Templates[regime] = img
	}
	for economy, name := range iconFiles {
		img, err := decodeFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("load icon %s: %w", name, err)
		}
		a.Icons[economy] = img
	}

	var err error
	if a.Faces.Title, err = loadFace(filepath.Join(dir, titleFont), titleSize); err != nil {
		return nil, err
	}
	if a.Faces.AbilityName, err = loadFace(filepath.Join(dir, capsFont), abilitySize); err != nil {
		return nil, err
	}
	if a.Faces.Description, err = loadFace(filepath.Join(dir, bodyFont), bodySize); err != nil {
		return nil, err
	}
	if a.Faces.Stats, err = loadFace(filepath.Join(dir, capsFont), statsSize); err != nil {
		return nil, err
	}
	return a, nil
}

func loadFace(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", filepath.Base(path), err)
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
