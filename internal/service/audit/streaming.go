package audit

import "strings"

var streamingServices = []struct {
	domain string
	name   string
}{
	{"netflix.com", "Netflix"},
	{"primevideo.com", "Prime Video"},
	{"youtube.com", "YouTube"},
	{"youtu.be", "YouTube"},
	{"disneyplus.com", "Disney+"},
	{"hbomax.com", "HBO Max"},
	{"hulu.com", "Hulu"},
}

// ServiceFromURL maps a watch-target url to the streaming service name, or
// "Unknown" when the domain is not recognized.
func ServiceFromURL(url string) string {
	for _, s := range streamingServices {
		if strings.Contains(url, s.domain) {
			return s.name
		}
	}

	return "Unknown"
}
