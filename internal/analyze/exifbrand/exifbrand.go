// Package exifbrand reads the camera manufacturer from EXIF data.
package exifbrand

import (
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// Provider implements analyze.BrandProvider on top of goexif.
type Provider struct{}

// New constructs a provider.
func New() *Provider {
	return &Provider{}
}

// ExtractBrand returns the EXIF Make tag with vendor boilerplate stripped,
// or "" when the file carries no usable EXIF data. It never fails: any
// decode error simply yields no tag.
func (p *Provider) ExtractBrand(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	meta, err := exif.Decode(f)
	if err != nil {
		return ""
	}
	tag, err := meta.Get(exif.Make)
	if err != nil {
		return ""
	}
	value, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return cleanBrand(value)
}

func cleanBrand(value string) string {
	brand := strings.TrimSpace(value)
	brand = strings.ReplaceAll(brand, "CORPORATION", "")
	brand = strings.ReplaceAll(brand, "Corporation", "")
	return strings.TrimSpace(brand)
}
