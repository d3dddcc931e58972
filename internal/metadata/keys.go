// Package metadata turns image files into the open metadata map stored with
// every image.
package metadata

// Recognised keys. Anything else found in a file is dropped.
const (
	KeyMake                    = "Make"
	KeyModel                   = "Model"
	KeyLensMake                = "LensMake"
	KeyLensModel               = "LensModel"
	KeySoftware                = "Software"
	KeyExposureTime            = "ExposureTime"
	KeyFNumber                 = "FNumber"
	KeyISO                     = "ISO"
	KeyExposureProgram         = "ExposureProgram"
	KeyExposureBiasValue       = "ExposureBiasValue"
	KeyMeteringMode            = "MeteringMode"
	KeyFlash                   = "Flash"
	KeyFocalLength             = "FocalLength"
	KeyFocalLengthIn35mmFormat = "FocalLengthIn35mmFormat"
	KeyImageWidth              = "ImageWidth"
	KeyImageHeight             = "ImageHeight"
	KeyOrientation             = "Orientation"
	KeyDateTimeOriginal        = "DateTimeOriginal"
	KeyCreateDate              = "CreateDate"
	KeyModifyDate              = "ModifyDate"
	KeyOffsetTime              = "OffsetTime"
	KeyOffsetTimeOriginal      = "OffsetTimeOriginal"
	KeyGPSLatitude             = "GPSLatitude"
	KeyGPSLongitude            = "GPSLongitude"
	KeyGPSLatitudeRef          = "GPSLatitudeRef"
	KeyGPSLongitudeRef         = "GPSLongitudeRef"
	KeyGPSAltitude             = "GPSAltitude"
	KeyGPSTimeStamp            = "GPSTimeStamp"
	KeyGPSDateStamp            = "GPSDateStamp"
	KeyArtist                  = "Artist"
	KeyCopyright               = "Copyright"
	KeyImageDescription        = "ImageDescription"
	KeyUserComment             = "UserComment"
	KeyRating                  = "Rating"

	// File facts, filled from the file system rather than the EXIF block.
	KeyFileName     = "fileName"
	KeyFileSize     = "fileSize"
	KeyMimeType     = "mimeType"
	KeyLastModified = "lastModified"
)

// ExifDateLayout is how EXIF writes local date and time.
const ExifDateLayout = "2006:01:02 15:04:05"

var allowed = map[string]bool{
	KeyMake:                    true,
	KeyModel:                   true,
	KeyLensMake:                true,
	KeyLensModel:               true,
	KeySoftware:                true,
	KeyExposureTime:            true,
	KeyFNumber:                 true,
	KeyISO:                     true,
	KeyExposureProgram:         true,
	KeyExposureBiasValue:       true,
	KeyMeteringMode:            true,
	KeyFlash:                   true,
	KeyFocalLength:             true,
	KeyFocalLengthIn35mmFormat: true,
	KeyImageWidth:              true,
	KeyImageHeight:             true,
	KeyOrientation:             true,
	KeyDateTimeOriginal:        true,
	KeyCreateDate:              true,
	KeyModifyDate:              true,
	KeyOffsetTime:              true,
	KeyOffsetTimeOriginal:      true,
	KeyGPSLatitude:             true,
	KeyGPSLongitude:            true,
	KeyGPSLatitudeRef:          true,
	KeyGPSLongitudeRef:         true,
	KeyGPSAltitude:             true,
	KeyGPSTimeStamp:            true,
	KeyGPSDateStamp:            true,
	KeyArtist:                  true,
	KeyCopyright:               true,
	KeyImageDescription:        true,
	KeyUserComment:             true,
	KeyRating:                  true,
}

// aliases maps tag names used by the parsers to the recognised key.
// A tag already carrying the recognised name wins over its alias.
var aliases = map[string]string{
	"ISOSpeedRatings":         KeyISO,
	"PhotographicSensitivity": KeyISO,
	"FocalLengthIn35mmFilm":   KeyFocalLengthIn35mmFormat,
	"ImageLength":             KeyImageHeight,
	"PixelXDimension":         KeyImageWidth,
	"PixelYDimension":         KeyImageHeight,
	"ExifImageWidth":          KeyImageWidth,
	"ExifImageHeight":         KeyImageHeight,
	"DateTimeDigitized":       KeyCreateDate,
	"DateTime":                KeyModifyDate,
}

// IsKnown reports whether key is part of the allow-list or a file fact.
func IsKnown(key string) bool {
	switch key {
	case KeyFileName, KeyFileSize, KeyMimeType, KeyLastModified:
		return true
	}
	return allowed[key]
}
