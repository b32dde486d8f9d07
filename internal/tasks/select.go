package tasks

import (
	"github.com/desertthunder/trackrip/internal/models"
	"github.com/desertthunder/trackrip/internal/shared"
)

// SelectFile picks the most preferred Ogg Vorbis file offered.
func SelectFile(files map[models.FileFormat]models.FileID) (models.FileFormat, models.FileID, error) {
	for _, format := range models.VorbisPreference {
		if id, ok := files[format]; ok {
			return format, id, nil
		}
	}
	return 0, models.FileID{}, shared.ErrNoEncoding
}
