package xmltv

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/kr/pretty"
)

const exampleDoc = `<?xml version="1.0" encoding="UTF-8"?>
<tv source-info-name="example" generator-info-name="aceguide-test">
  <channel id="espn.us">
    <display-name>ESPN</display-name>
    <display-name>ESPN US</display-name>
    <icon src="http://example.com/espn.png" width="100" height="100"/>
  </channel>
  <channel id="tnt.us">
    <display-name lang="en">TNT</display-name>
  </channel>
  <programme start="20080715003000 -0600" stop="20080715010000 -0600" channel="espn.us">
    <title lang="en">SportsCenter</title>
    <desc lang="en">Highlights and analysis.</desc>
    <category lang="en">Sports</category>
  </programme>
</tv>`

func TestLoadXML(t *testing.T) {
	var tv TV
	if err := tv.LoadXML(strings.NewReader(exampleDoc)); err != nil {
		t.Fatal(err)
	}

	if len(tv.Channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(tv.Channels))
	}

	ch := Channel{
		XMLName: tv.Channels[0].XMLName,
		ID:      "espn.us",
		DisplayNames: []CommonElement{
			{Value: "ESPN"},
			{Value: "ESPN US"},
		},
		Icons: []Icon{
			{Source: "http://example.com/espn.png", Width: 100, Height: 100},
		},
	}
	if !reflect.DeepEqual(ch, tv.Channels[0]) {
		t.Errorf("\texpected: %# v\n\t\tactual:   %# v\n", pretty.Formatter(ch), pretty.Formatter(tv.Channels[0]))
	}

	if len(tv.Programmes) != 1 {
		t.Fatalf("expected 1 programme, got %d", len(tv.Programmes))
	}

	loc := time.FixedZone("", -6*60*60)
	pr := tv.Programmes[0]
	if pr.Channel != "espn.us" {
		t.Errorf("expected programme channel espn.us, got %s", pr.Channel)
	}
	if !pr.Start.Equal(time.Date(2008, 7, 15, 0, 30, 0, 0, loc)) {
		t.Errorf("unexpected programme start %s", pr.Start)
	}
	if pr.Titles[0].Value != "SportsCenter" {
		t.Errorf("unexpected programme title %q", pr.Titles[0].Value)
	}
}

func TestTimeUnmarshalWithoutZone(t *testing.T) {
	var tv TV
	doc := strings.Replace(exampleDoc, " -0600", "", -1)
	if err := tv.LoadXML(strings.NewReader(doc)); err != nil {
		t.Fatal(err)
	}

	expected := time.Date(2008, 7, 15, 0, 30, 0, 0, time.UTC)
	if !tv.Programmes[0].Start.Equal(expected) {
		t.Errorf("expected %s, got %s", expected, tv.Programmes[0].Start)
	}
}
