package domain

import (
	"errors"
	"fmt"

	imgdom "github.com/shouni/gemini-image-kit/pkg/domain"
)

// ErrInvalidTransition はページの状態遷移が許可されていない場合のエラーです。
var ErrInvalidTransition = errors.New("不正なページ状態遷移です")

// PageStatus はページ単位の生成ライフサイクルです。
type PageStatus string

const (
	StatusPending    PageStatus = "pending"
	StatusGenerating PageStatus = "generating"
	StatusCompleted  PageStatus = "completed"
	StatusFailed     PageStatus = "failed"
)

// IsTerminal は Completed または Failed のとき true を返します。
func (s PageStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ColoringPage は1枚の塗り絵ページです。
// Pending -> Generating -> Completed | Failed の順にのみ進みます。
type ColoringPage struct {
	ID     string                `json:"id"`
	Index  int                   `json:"index"`
	Prompt string                `json:"prompt"`
	Status PageStatus            `json:"status"`
	Error  string                `json:"error,omitempty"`
	Image  *imgdom.ImageResponse `json:"-"`
}

// NewColoringPage は Pending 状態のページを作成します。
func NewColoringPage(index int, prompt string) ColoringPage {
	return ColoringPage{
		ID:     PageID(index),
		Index:  index,
		Prompt: prompt,
		Status: StatusPending,
	}
}

// PageID はラン内で一意なページ ID を返します。
func PageID(index int) string {
	return fmt.Sprintf("page-%d", index)
}

// HasImage は画像データを保持しているかを返します。
func (p ColoringPage) HasImage() bool {
	return p.Image != nil && len(p.Image.Data) > 0
}

// PageEventKind はページに適用されるイベントの種類です。
type PageEventKind int

const (
	EventDispatched PageEventKind = iota + 1
	EventSucceeded
	EventFailed
)

func (k PageEventKind) String() string {
	switch k {
	case EventDispatched:
		return "dispatched"
	case EventSucceeded:
		return "succeeded"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PageEvent はページ状態を進めるイベントです。
type PageEvent struct {
	Kind   PageEventKind
	Image  *imgdom.ImageResponse
	Reason string
}

// Dispatched は画像生成リクエストの送出を表すイベントです。
func Dispatched() PageEvent { return PageEvent{Kind: EventDispatched} }

// Succeeded は画像生成の成功を表すイベントです。
func Succeeded(img *imgdom.ImageResponse) PageEvent {
	return PageEvent{Kind: EventSucceeded, Image: img}
}

// Failed は画像生成の失敗を表すイベントです。
func Failed(reason string) PageEvent { return PageEvent{Kind: EventFailed, Reason: reason} }

// ApplyPageEvent はイベントを適用した新しいページを返す純粋関数です。
// 遷移が許可されない場合は元のページと ErrInvalidTransition を返します。
func ApplyPageEvent(page ColoringPage, ev PageEvent) (ColoringPage, error) {
	switch ev.Kind {
	case EventDispatched:
		if page.Status != StatusPending {
			return page, transitionError(page, ev)
		}
		page.Status = StatusGenerating
	case EventSucceeded:
		if page.Status != StatusGenerating {
			return page, transitionError(page, ev)
		}
		if ev.Image == nil || len(ev.Image.Data) == 0 {
			return page, fmt.Errorf("%w: 画像データのない成功イベントです (page: %s)", ErrInvalidTransition, page.ID)
		}
		page.Status = StatusCompleted
		page.Image = ev.Image
		page.Error = ""
	case EventFailed:
		if page.Status != StatusGenerating {
			return page, transitionError(page, ev)
		}
		page.Status = StatusFailed
		page.Image = nil
		page.Error = ev.Reason
	default:
		return page, transitionError(page, ev)
	}
	return page, nil
}

func transitionError(page ColoringPage, ev PageEvent) error {
	return fmt.Errorf("%w: %s -> %s (page: %s)", ErrInvalidTransition, page.Status, ev.Kind, page.ID)
}
