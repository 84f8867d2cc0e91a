package internal

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	topicsSection  = regexp.MustCompile(`(?is)\[TOPICS\](.*?)(?:\n\[[A-Z ]+\]|\z)`)
	summarySection = regexp.MustCompile(`(?is)\[SUMMARY\](.*?)(?:\n\[[A-Z ]+\]|\z)`)
	leadingTime    = regexp.MustCompile(`^\[\d{1,2}:\d{2}(?::\d{2})?\]\s*`)
	leadingBullet  = regexp.MustCompile(`^(?:[\-\*•]|\d+[\.\)])\s+`)
	topicSplit     = regexp.MustCompile(`[:\-]`)
)

const maxQueryRunes = 60

// MeaningfulQuery turns a topic line such as "[00:01:23] Python Programming: basics"
// into a search query ("Python Programming")
func MeaningfulQuery(topic string) string {
	if strings.TrimSpace(topic) == "" {
		return ""
	}

	trimmed := leadingBullet.ReplaceAllString(strings.TrimSpace(topic), "")
	trimmed = leadingTime.ReplaceAllString(trimmed, "")
	topicName := strings.TrimSpace(topicSplit.Split(trimmed, 2)[0])

	if utf8.RuneCountInString(topicName) > maxQueryRunes {
		topicName = truncateRunes(topicName, maxQueryRunes)
		if i := strings.LastIndexByte(topicName, ' '); i > 0 {
			topicName = topicName[:i]
		}
	}
	if topicName == "" {
		return truncateRunes(trimmed, 50)
	}
	return topicName
}

// SearchQueryFromAnalysis picks a related-video search query from an analysis document
// with [TOPICS] and [SUMMARY] sections, falling back to the video title
func SearchQueryFromAnalysis(analysis, title string) string {
	if m := topicsSection.FindStringSubmatch(analysis); m != nil {
		for _, line := range strings.Split(m[1], "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			line = leadingBullet.ReplaceAllString(line, "")
			line = leadingTime.ReplaceAllString(line, "")
			topic := strings.TrimSpace(topicSplit.Split(line, 2)[0])
			if utf8.RuneCountInString(topic) > 5 {
				return truncateRunes(topic, maxQueryRunes)
			}
			break
		}
	}

	if m := summarySection.FindStringSubmatch(analysis); m != nil {
		sentences := strings.Split(strings.TrimSpace(m[1]), ".")
		for i, sentence := range sentences {
			if i == 2 {
				break
			}
			sentence = strings.TrimSpace(sentence)
			if n := utf8.RuneCountInString(sentence); n > 15 && n < 50 {
				return sentence
			}
		}
	}

	return truncateRunes(title, 50)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
