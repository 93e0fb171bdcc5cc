package gateway

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
)

func TestParseSceneList(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		count int
		want  []string
	}{
		{"素の配列", `["a","b"]`, 2, []string{"a", "b"}},
		{"コードブロック", "```json\n[\"a\", \"b\", \"c\"]\n```", 2, []string{"a", "b"}},
		{"前後の説明文", `Here you go: [" a ", "", "b"] enjoy`, 2, []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSceneList(tt.raw, tt.count)
			if err != nil {
				t.Fatalf("予期しないエラー: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("scenes mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("件数不足は ErrMalformedPromptList", func(t *testing.T) {
		if _, err := parseSceneList(`["a"]`, 2); !errors.Is(err, ErrMalformedPromptList) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("日本語の応答でも抜粋が壊れない", func(t *testing.T) {
		raw := strings.Repeat("恐竜", 150)
		_, err := parseSceneList(raw, 1)
		if !errors.Is(err, ErrMalformedPromptList) {
			t.Fatalf("err = %v", err)
		}
		msg := err.Error()
		if !strings.Contains(msg, strings.Repeat("恐竜", 100)+`..."`) || strings.Contains(msg, `\x`) {
			t.Errorf("抜粋が文字単位で切り詰められていません: %s", msg)
		}
	})
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc..."},
		{"ティラノサウルス", 4, "ティラノ..."},
		{"ぬりえ", 3, "ぬりえ"},
	}
	for _, tt := range tests {
		got := truncateString(tt.in, tt.max)
		if got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncateString(%q, %d) が不正な UTF-8 を返しました", tt.in, tt.max)
		}
	}
}
