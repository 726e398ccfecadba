package mls

import (
	"regexp"
)

var photoSizePattern = regexp.MustCompile(`-w\d+_h\d+`)

// upgradePhotoURL asks the CDN for the large rendition of a resized photo.
func upgradePhotoURL(href string) string {
	if href == "" {
		return href
	}
	return photoSizePattern.ReplaceAllString(href, "-w2048_h1536")
}
