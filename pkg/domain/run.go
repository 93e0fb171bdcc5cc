package domain

import (
	"fmt"
	"time"
)

// 進捗メッセージ
const (
	ProgressImagining = "Imagining your scenes..."
	ProgressComplete  = "Magic complete!"
	ProgressFailed    = "Oops! Something went wrong."
)

// ProgressDrawing はページ i (0 始まり) の描画中メッセージを返します。
func ProgressDrawing(index, total int) string {
	return fmt.Sprintf("Drawing page %d of %d...", index+1, total)
}

// RunState は1回の生成ランの状態です。
type RunState struct {
	RunID      string         `json:"run_id"`
	Settings   BookSettings   `json:"settings"`
	Pages      []ColoringPage `json:"pages"`
	Progress   string         `json:"progress"`
	InProgress bool           `json:"in_progress"`
	Error      string         `json:"error,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// Exportable はページが1枚以上あり、すべて終端状態のとき true を返します。
func (s RunState) Exportable() bool {
	return PagesExportable(s.Pages)
}

// PagesExportable はページ列がエクスポート可能かを判定します。
func PagesExportable(pages []ColoringPage) bool {
	if len(pages) == 0 {
		return false
	}
	for _, p := range pages {
		if !p.Status.IsTerminal() {
			return false
		}
	}
	return true
}

// Completed は Completed 状態のページを順序通りに返します。
func (s RunState) Completed() []ColoringPage {
	var out []ColoringPage
	for _, p := range s.Pages {
		if p.Status == StatusCompleted {
			out = append(out, p)
		}
	}
	return out
}

// Page は ID に一致するページを返します。
func (s RunState) Page(id string) (ColoringPage, bool) {
	for _, p := range s.Pages {
		if p.ID == id {
			return p, true
		}
	}
	return ColoringPage{}, false
}

// Clone はページ列を複製したスナップショットを返します。
// 画像データは書き換えないため共有します。
func (s RunState) Clone() RunState {
	if s.Pages != nil {
		pages := make([]ColoringPage, len(s.Pages))
		copy(pages, s.Pages)
		s.Pages = pages
	}
	return s
}

// Counts はステータスごとのページ数を返します。
func (s RunState) Counts() map[PageStatus]int {
	counts := make(map[PageStatus]int, 4)
	for _, p := range s.Pages {
		counts[p.Status]++
	}
	return counts
}
