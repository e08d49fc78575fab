package models

import "fmt"

// Color is an 8-bit RGB triple
type Color struct {
	R uint8
	G uint8
	B uint8
}

// Black is returned when a region yields no usable pixels
var Black = Color{}

// Hex formats the color as a lowercase #rrggbb string
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Feature names one facial feature of a palette
type Feature string

const (
	FeatureSkin Feature = "skin"
	FeatureEye  Feature = "eye"
	FeatureLip  Feature = "lip"
	FeatureHair Feature = "hair"
)

// Features lists every palette feature in output order
var Features = []Feature{FeatureSkin, FeatureEye, FeatureLip, FeatureHair}

// Palette is the four-color consensus for a capture batch
type Palette struct {
	SkinTone  string `json:"skin_tone"`
	EyeColor  string `json:"eye_color"`
	LipColor  string `json:"lip_color"`
	HairColor string `json:"hair_color"`
}

// Get returns the color stored for a feature
func (p Palette) Get(f Feature) string {
	switch f {
	case FeatureSkin:
		return p.SkinTone
	case FeatureEye:
		return p.EyeColor
	case FeatureLip:
		return p.LipColor
	case FeatureHair:
		return p.HairColor
	}
	return ""
}

// Set stores the color for a feature
func (p *Palette) Set(f Feature, hex string) {
	switch f {
	case FeatureSkin:
		p.SkinTone = hex
	case FeatureEye:
		p.EyeColor = hex
	case FeatureLip:
		p.LipColor = hex
	case FeatureHair:
		p.HairColor = hex
	}
}
