// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort              = "8080"
	DefaultDBPath            = "photodex.db"
	DefaultMaxDepth          = 10
	DefaultBatchSize         = 15
	DefaultParallelThreshold = 50
	DefaultMaxWorkers        = 4
	DefaultExtractor         = ExtractorExif
	DefaultSearchLimit       = 200
	DefaultShutdownTimeout   = 10 * time.Second
)

// Extractor backends
const (
	ExtractorExif     = "exif"
	ExtractorExiftool = "exiftool"
)

// Database
const (
	MigrationsTable = "schema_migrations"

	// TimestampLayout is how every time column is stored. Lexicographic order
	// of the text equals chronological order.
	TimestampLayout = "2006-01-02T15:04:05.000Z"
)

// Albums
const (
	FavouritesAlbumName        = "Favourites"
	FavouritesAlbumDescription = "Images marked as favourite"
)

// File Names
const (
	EjectFileName      = "photodex.db"
	ImportDirPrefix    = "import-"
	ImportDirTimestamp = "20060102-150405"
)

// File Permissions
const (
	DirPermissions  = 0755
	FilePermissions = 0644
)

// ImageExtensions lists the recognised image file extensions, lower case
// and without the leading dot.
var ImageExtensions = []string{
	"jpg", "jpeg", "png", "gif", "webp", "heic", "heif",
	"tif", "tiff", "avif", "bmp", "dng",
}
