package receipt

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"time"

	"github.com/zombor/fuel-station/internal/station"
)

// MaxUploadSize is the largest accepted receipt image
const MaxUploadSize = 10 << 20

// Upload is a receipt image received from a client
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

var imageExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
}

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
}

// ValidateUpload checks that an upload is present, small enough and a supported image. Both
// the MIME type and the file extension must name a supported image type.
func ValidateUpload(u *Upload) error {
	if u == nil || len(u.Data) == 0 {
		return station.Invalid("image", "No image file provided")
	}
	if len(u.Data) > MaxUploadSize {
		return station.Invalid("image", fmt.Sprintf("File too large, the limit is %d MB", MaxUploadSize>>20))
	}

	contentType := strings.ToLower(strings.TrimSpace(u.ContentType))
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	ext := strings.ToLower(filepath.Ext(u.Filename))
	if !imageTypes[contentType] || !imageExtensions[ext] {
		return station.Invalid("image", "File upload only supports images: jpg, jpeg, png, gif")
	}
	return nil
}

// storedName builds the collision-resistant name an upload is stored under
func storedName(original string, now time.Time) string {
	return fmt.Sprintf("receipt-%d-%09d%s", now.UnixMilli(), rand.IntN(1e9), filepath.Ext(original))
}
