// Package m3u provides an M3U Plus playlist decoder and encoder.
package m3u

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Playlist is a type that represents an m3u playlist containing 0 or more tracks.
type Playlist struct {
	Tracks []Track
}

// Track represents an m3u track.
type Track struct {
	Name       string
	Length     float64
	URI        string
	Tags       map[string]string
	Raw        string
	LineNumber int
}

// UnmarshalTags will decode the Tags map into a struct containing fields with `m3u` tags matching map keys.
func (t *Track) UnmarshalTags(v interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "m3u",
		Result:  &v,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(t.Tags)
}

// Decode parses an m3u playlist in the given io.Reader and returns a Playlist.
func Decode(r io.Reader) (*Playlist, error) {
	playlist := &Playlist{}
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}

	if decErr := decode(playlist, buf); decErr != nil {
		return nil, decErr
	}

	return playlist, nil
}

func decode(playlist *Playlist, buf *bytes.Buffer) error {
	var eof bool
	var line string
	var err error

	lineNum := 0

	for !eof {
		lineNum = lineNum + 1
		if line, err = buf.ReadString('\n'); err == io.EOF {
			eof = true
		} else if err != nil {
			return err
		}

		if lineNum == 1 && !strings.HasPrefix(strings.TrimSpace(line), "#EXTM3U") {
			return fmt.Errorf("malformed M3U provided")
		}

		if err = decodeLine(playlist, line, lineNum); err != nil {
			return err
		}
	}
	return nil
}

func decodeLine(playlist *Playlist, line string, lineNumber int) error {
	line = strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(line, "#EXTINF:"):
		track := Track{
			Raw:        line,
			LineNumber: lineNumber,
		}

		length, name, tags, infoErr := decodeInfoLine(line)
		if infoErr != nil {
			return fmt.Errorf("line %d: %s", lineNumber, infoErr)
		}
		track.Length, track.Name, track.Tags = length, name, tags

		playlist.Tracks = append(playlist.Tracks, track)

	case isURI(line):
		if len(playlist.Tracks) == 0 {
			return fmt.Errorf("URI on line %d has no preceding #EXTINF", lineNumber)
		}
		playlist.Tracks[len(playlist.Tracks)-1].URI = line
	}

	return nil
}

func isURI(str string) bool {
	u, err := url.Parse(str)
	return err == nil && u.Scheme != "" && (u.Host != "" || u.Opaque != "")
}

var infoRegex = regexp.MustCompile(`([^\s="]+)=(?:"(.*?)"|(\d+))(?:,([.*^,]))?|#EXTINF:(-?\d*\s*)|,(.*)`)

func decodeInfoLine(line string) (float64, string, map[string]string, error) {
	matches := infoRegex.FindAllStringSubmatch(line, -1)
	// at minimum a duration match and a title match, even if the title is empty
	if len(matches) < 2 {
		return 0, "", nil, fmt.Errorf("malformed #EXTINF line %q", line)
	}

	var err error
	durationFloat := 0.0
	durationStr := strings.TrimSpace(matches[0][len(matches[0])-2])
	if durationStr != "-1" && len(durationStr) > 0 {
		if durationFloat, err = strconv.ParseFloat(durationStr, 64); err != nil {
			durationFloat = 0
		}
	}

	titleIndex := len(matches) - 1
	title := matches[titleIndex][len(matches[titleIndex])-1]

	keyMap := make(map[string]string)

	for _, match := range matches[1 : len(matches)-1] {
		val := match[2]
		if val == "" { // If empty string find a number in [3]
			val = match[3]
		}
		keyMap[strings.ToLower(match[1])] = val
	}

	return durationFloat, title, keyMap, nil
}

// Entry is a single channel to write out to a playlist.
type Entry struct {
	Name       string
	URI        string
	TVGID      string
	TVGName    string
	Logo       string
	GroupTitle string
}

// Encode writes the entries as an M3U Plus playlist. Entries sharing a
// display name get a numeric suffix so players that key on the name do not
// collapse them.
func Encode(w io.Writer, entries []Entry) error {
	if _, err := io.WriteString(w, "#EXTM3U\n"); err != nil {
		return err
	}

	nameCounts := make(map[string]int)

	for _, entry := range entries {
		displayName := entry.Name
		nameCounts[entry.Name]++
		if count := nameCounts[entry.Name]; count > 1 {
			displayName = fmt.Sprintf("%s %d", entry.Name, count)
		}

		attributes := make([]string, 0, 4)
		if entry.TVGName != "" {
			attributes = append(attributes, fmt.Sprintf("tvg-name=%q", entry.TVGName))
		}
		if entry.TVGID != "" {
			attributes = append(attributes, fmt.Sprintf("tvg-id=%q", entry.TVGID))
		}
		if entry.Logo != "" {
			attributes = append(attributes, fmt.Sprintf("tvg-logo=%q", entry.Logo))
		}
		if entry.GroupTitle != "" {
			attributes = append(attributes, fmt.Sprintf("group-title=%q", entry.GroupTitle))
		}

		extinf := "#EXTINF:-1"
		if len(attributes) > 0 {
			extinf = fmt.Sprintf("%s %s", extinf, strings.Join(attributes, " "))
		}

		if _, err := fmt.Fprintf(w, "%s,%s\n%s\n", extinf, displayName, entry.URI); err != nil {
			return err
		}
	}

	return nil
}
