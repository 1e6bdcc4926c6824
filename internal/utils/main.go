package utils

import (
	"fmt"
	"net/http"
	"time"

	"github.com/acetv/aceguide/internal/xmltv"
)

// GetXMLTV downloads and parses an XMLTV document from the given URL.
func GetXMLTV(url string, timeout time.Duration) (*xmltv.TV, error) {
	client := &http.Client{Timeout: timeout}

	resp, respErr := client.Get(url)
	if respErr != nil {
		return nil, fmt.Errorf("error getting XMLTV from %s: %s", url, respErr)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d getting XMLTV from %s", resp.StatusCode, url)
	}

	tv := &xmltv.TV{}
	if loadErr := tv.LoadXML(resp.Body); loadErr != nil {
		return nil, fmt.Errorf("error parsing XMLTV from %s: %s", url, loadErr)
	}

	return tv, nil
}
