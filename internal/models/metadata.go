package models

import (
	"fmt"
	"slices"
	"strings"
)

// FileFormat is the encoding tier of an audio file offered for a track.
type FileFormat int

const (
	OggVorbis96 FileFormat = iota
	OggVorbis160
	OggVorbis320
	MP3_256
	MP3_320
	MP3_160
	MP3_96
	MP3_160Enc
	AAC24
	AAC48
)

var fileFormatNames = map[FileFormat]string{
	OggVorbis96:  "OGG_VORBIS_96",
	OggVorbis160: "OGG_VORBIS_160",
	OggVorbis320: "OGG_VORBIS_320",
	MP3_256:      "MP3_256",
	MP3_320:      "MP3_320",
	MP3_160:      "MP3_160",
	MP3_96:       "MP3_96",
	MP3_160Enc:   "MP3_160_ENC",
	AAC24:        "AAC_24",
	AAC48:        "AAC_48",
}

// VorbisPreference lists the Ogg Vorbis tiers from most to least preferred.
var VorbisPreference = []FileFormat{OggVorbis320, OggVorbis160, OggVorbis96}

func (f FileFormat) String() string {
	if name, ok := fileFormatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("FileFormat(%d)", int(f))
}

// IsVorbis reports whether the format is one of the Ogg Vorbis tiers.
func (f FileFormat) IsVorbis() bool {
	return slices.Contains(VorbisPreference, f)
}

// ParseFileFormat maps a wire name such as "OGG_VORBIS_320" to a [FileFormat].
func ParseFileFormat(name string) (FileFormat, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for f, n := range fileFormatNames {
		if n == name {
			return f, true
		}
	}
	return 0, false
}

// Track is the metadata of one catalog track.
type Track struct {
	ID           ID
	Name         string
	Artists      []ID
	Album        ID
	Available    bool
	Alternatives []ID
	Files        map[FileFormat]FileID
}

// Formats returns the offered formats in a stable order, for diagnostics.
func (t *Track) Formats() []string {
	names := make([]string, 0, len(t.Files))
	for f := range t.Files {
		names = append(names, f.String())
	}
	slices.Sort(names)
	return names
}

// Artist is the metadata of a contributing artist.
type Artist struct {
	ID   ID
	Name string
}

// Album is the metadata of the album owning a track.
type Album struct {
	ID   ID
	Name string
	Date Date
}

// Date is a release date whose month and day may be unknown (zero).
type Date struct {
	Year  int
	Month int
	Day   int
}

func (d Date) String() string {
	switch {
	case d.Month == 0:
		return fmt.Sprintf("%04d", d.Year)
	case d.Day == 0:
		return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
	default:
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	}
}
