package tasks

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackrip/internal/models"
	"github.com/desertthunder/trackrip/internal/shared"
)

var (
	uriPattern = regexp.MustCompile(`spotify:track:([[:alnum:]]+)`)
	urlPattern = regexp.MustCompile(`open\.spotify\.com/track/([[:alnum:]]+)`)
)

// MatchReference returns the encoded track identifier found in line.
//
// The URI form is tried before the URL form and the first match wins.
func MatchReference(line string) (string, bool) {
	for _, p := range []*regexp.Regexp{uriPattern, urlPattern} {
		if m := p.FindStringSubmatch(line); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// ParseReference decodes the track reference found in line.
func ParseReference(line string) (models.ID, error) {
	encoded, ok := MatchReference(line)
	if !ok {
		return models.ID{}, fmt.Errorf("%w: no track reference in %q", shared.ErrInvalidArgument, line)
	}
	return models.IDFromBase62(encoded)
}

// References yields the track reference of each line of r in input order.
//
// Lines without a decodable reference are logged and skipped; blank lines are skipped silently.
// A read error ends the sequence.
func References(r io.Reader, logger *log.Logger) iter.Seq[models.ID] {
	return func(yield func(models.ID) bool) {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.TrimSpace(line) == "" {
				continue
			}

			id, err := ParseReference(line)
			if err != nil {
				logger.Warn("cannot parse track from line", "line", line, "err", err)
				continue
			}

			if !yield(id) {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			logger.Error("failed to read input", "err", err)
		}
	}
}
