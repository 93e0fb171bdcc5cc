package gateway

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*\\S)\\s*```")

// parseSceneList は AI の応答から count 件のシーン記述を取り出します。
// 空要素は除外し、count を超える分は切り捨てます。
func parseSceneList(raw string, count int) ([]string, error) {
	raw = strings.TrimSpace(raw)
	var rawJSON string

	matches := jsonBlockRegex.FindStringSubmatch(raw)
	if len(matches) > 1 {
		rawJSON = matches[1]
	} else {
		// Fallback 1: 最も外側の JSON 配列を探します。
		first := strings.Index(raw, "[")
		last := strings.LastIndex(raw, "]")
		if first != -1 && last != -1 && last > first {
			rawJSON = raw[first : last+1]
		} else {
			// Fallback 2: 応答全体を JSON とみなします。
			rawJSON = raw
		}
	}

	var scenes []string
	if err := json.Unmarshal([]byte(rawJSON), &scenes); err != nil {
		return nil, fmt.Errorf("%w (応答抜粋: %q): %v", ErrMalformedPromptList, truncateString(raw, 200), err)
	}

	cleaned := make([]string, 0, len(scenes))
	for _, s := range scenes {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) < count {
		return nil, fmt.Errorf("%w: %d 件必要ですが %d 件しかありません", ErrMalformedPromptList, count, len(cleaned))
	}
	return cleaned[:count], nil
}

// fallbackScenes は同じ代替シーンを count 件並べます。
func fallbackScenes(scene string, count int) []string {
	out := make([]string, count)
	for i := range out {
		out[i] = scene
	}
	return out
}

// truncateString は s を maxLen 文字 (rune 単位) までに切り詰めます。
func truncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
