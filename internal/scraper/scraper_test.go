package scraper

import (
	"strings"
	"testing"
)

const samplePage = `<html>
<body>
  <div class="channel">
    <a href="acestream://b624ba39f9d496a5fcdb4e2be64e05add33bd3b1">ESPN HD</a>
  </div>
  <div class="channel">
    <a href="acestream://1111111111111111111111111111111111111111"></a>
    <div class="link-name">TNT Sports</div>
  </div>
  <script>
    const linksData = {"links": [{"url": "acestream://2222222222222222222222222222222222222222", "name": "Hidden"}]};
  </script>
  <p>not a link: acestream://tooshort</p>
</body>
</html>`

func TestParseHTML(t *testing.T) {
	channels, err := ParseHTML(strings.NewReader(samplePage))
	if err != nil {
		t.Fatal(err)
	}

	if len(channels) != 3 {
		t.Fatalf("expected 3 channels, got %d: %+v", len(channels), channels)
	}

	if channels[0].ID != "b624ba39f9d496a5fcdb4e2be64e05add33bd3b1" || channels[0].Name != "ESPN HD" {
		t.Errorf("unexpected first channel %+v", channels[0])
	}
	if channels[1].Name != "TNT Sports" {
		t.Errorf("expected sibling link-name to supply the name, got %q", channels[1].Name)
	}
	if channels[2].ID != "2222222222222222222222222222222222222222" {
		t.Errorf("expected script id to be swept up, got %+v", channels[2])
	}
	if !strings.HasPrefix(channels[2].Name, "Channel ") {
		t.Errorf("expected placeholder name for script id, got %q", channels[2].Name)
	}
}

func TestParseHTMLDeduplicates(t *testing.T) {
	page := `<html><body>
	<a href="acestream://b624ba39f9d496a5fcdb4e2be64e05add33bd3b1">ESPN</a>
	<a href="acestream://b624ba39f9d496a5fcdb4e2be64e05add33bd3b1">ESPN again</a>
	</body></html>`

	channels, err := ParseHTML(strings.NewReader(page))
	if err != nil {
		t.Fatal(err)
	}
	if len(channels) != 1 {
		t.Errorf("expected duplicate id collapsed, got %d channels", len(channels))
	}
}

func TestParseM3U(t *testing.T) {
	playlist := `#EXTM3U
#EXTINF:-1 tvg-id="espn.us" tvg-logo="http://example.com/espn.png" group-title="Sports",ESPN HD
acestream://B624BA39F9D496A5FCDB4E2BE64E05ADD33BD3B1
#EXTINF:-1,Not Acestream
http://example.com/stream.ts
`

	channels, err := ParseM3U(strings.NewReader(playlist))
	if err != nil {
		t.Fatal(err)
	}

	if len(channels) != 1 {
		t.Fatalf("expected only the acestream track, got %d", len(channels))
	}

	ch := channels[0]
	if ch.ID != "b624ba39f9d496a5fcdb4e2be64e05add33bd3b1" {
		t.Errorf("expected lowercased id, got %s", ch.ID)
	}
	if ch.TVGID != "espn.us" || ch.GroupTitle != "Sports" || ch.Logo != "http://example.com/espn.png" {
		t.Errorf("expected tvg metadata carried over, got %+v", ch)
	}
}
