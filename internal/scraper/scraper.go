// Package scraper extracts acestream streams from remote pages and playlists.
package scraper

import (
	"fmt"
	"io/ioutil"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/acetv/aceguide/internal/m3u"
)

// acestream content ids are 40 character SHA-1 infohashes.
var acestreamRegex = regexp.MustCompile(`acestream://([a-fA-F0-9]{40})`)

// Channel is a single stream found in a scraped source.
type Channel struct {
	ID         string
	Name       string
	TVGID      string
	TVGName    string
	Logo       string
	GroupTitle string
}

// Fetch downloads the given URL and extracts every acestream channel it
// advertises. The payload can either be an M3U playlist or an HTML page.
func Fetch(url string, timeout time.Duration) ([]Channel, error) {
	client := &http.Client{Timeout: timeout}

	req, reqErr := http.NewRequest("GET", url, nil)
	if reqErr != nil {
		return nil, reqErr
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")

	resp, respErr := client.Do(req)
	if respErr != nil {
		return nil, respErr
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	body, readErr := ioutil.ReadAll(resp.Body)
	if readErr != nil {
		return nil, readErr
	}

	content := string(body)
	if strings.HasPrefix(strings.TrimSpace(content), "#EXTM3U") {
		return ParseM3U(strings.NewReader(content))
	}

	return ParseHTML(strings.NewReader(content))
}

// ParseM3U extracts acestream channels from an M3U playlist, carrying over
// any tvg metadata present on the tracks.
func ParseM3U(r *strings.Reader) ([]Channel, error) {
	playlist, decodeErr := m3u.Decode(r)
	if decodeErr != nil {
		return nil, decodeErr
	}

	channels := make([]Channel, 0)
	seen := make(map[string]bool)

	for _, track := range playlist.Tracks {
		match := acestreamRegex.FindStringSubmatch(track.URI)
		if match == nil {
			continue
		}
		id := strings.ToLower(match[1])
		if seen[id] {
			continue
		}
		seen[id] = true

		name := track.Name
		if name == "" {
			name = fallbackName(id)
		}

		tags := trackTags{}
		if tagsErr := track.UnmarshalTags(&tags); tagsErr != nil {
			return nil, tagsErr
		}

		channels = append(channels, Channel{
			ID:         id,
			Name:       name,
			TVGID:      tags.TVGID,
			TVGName:    tags.TVGName,
			Logo:       tags.Logo,
			GroupTitle: tags.GroupTitle,
		})
	}

	return channels, nil
}

type trackTags struct {
	TVGID      string `m3u:"tvg-id"`
	TVGName    string `m3u:"tvg-name"`
	Logo       string `m3u:"tvg-logo"`
	GroupTitle string `m3u:"group-title"`
}

// ParseHTML extracts acestream channels from an HTML page. Anchor tags with
// an acestream href contribute their text as the channel name; ids that only
// appear in scripts or raw text get a placeholder name.
func ParseHTML(r *strings.Reader) ([]Channel, error) {
	content, readErr := ioutil.ReadAll(r)
	if readErr != nil {
		return nil, readErr
	}

	doc, docErr := goquery.NewDocumentFromReader(strings.NewReader(string(content)))
	if docErr != nil {
		return nil, docErr
	}

	channels := make([]Channel, 0)
	seen := make(map[string]bool)

	doc.Find(`a[href^="acestream://"]`).Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		match := acestreamRegex.FindStringSubmatch(href)
		if match == nil {
			return
		}
		id := strings.ToLower(match[1])
		if seen[id] {
			return
		}
		seen[id] = true

		name := strings.TrimSpace(s.Text())
		if name == "" {
			// Scraped pages often put the name in a sibling element.
			name = strings.TrimSpace(s.Parent().Find(".link-name").First().Text())
		}
		if name == "" {
			name = fallbackName(id)
		}

		channels = append(channels, Channel{ID: id, Name: name})
	})

	// Sweep the raw document for ids outside anchor tags (script blobs,
	// plain text listings).
	for _, match := range acestreamRegex.FindAllStringSubmatch(string(content), -1) {
		id := strings.ToLower(match[1])
		if seen[id] {
			continue
		}
		seen[id] = true
		channels = append(channels, Channel{ID: id, Name: fallbackName(id)})
	}

	return channels, nil
}

func fallbackName(id string) string {
	return fmt.Sprintf("Channel %s", id[:8])
}
