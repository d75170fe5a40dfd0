package domain

import (
	"fmt"
	"regexp"
)

var youtubeIDPattern = regexp.MustCompile(`(youtu\.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*)`)

// ExtractYoutubeVideoID pulls the 11-character video id out of any of the
// common YouTube URL shapes. Empty when the link is absent or unparseable.
func ExtractYoutubeVideoID(link string) string {
	if link == "" {
		return ""
	}
	m := youtubeIDPattern.FindStringSubmatch(link)
	if m == nil || len(m[2]) != 11 {
		return ""
	}
	return m[2]
}

// EmbedURL builds the invisible audio-only embed URL: autoplay, unmuted,
// looping over a single-video playlist, all chrome suppressed.
func EmbedURL(videoID string) string {
	return fmt.Sprintf(
		"https://www.youtube.com/embed/%s?autoplay=1&mute=0&loop=1&playlist=%s&controls=0&showinfo=0&autohide=1&modestbranding=1&rel=0&enablejsapi=1",
		videoID, videoID,
	)
}
