package prompts

import (
	_ "embed"
)

const (
	ModeSceneList    = "scene_list"
	ModeColoringPage = "coloring_page"
)

// TemplateData はプロンプトテンプレートに渡すデータ構造です。
type TemplateData struct {
	Theme           string
	Count           int
	Scene           string
	StyleDirectives string
}

var (
	//go:embed scene_list.md
	SceneListPrompt string
	//go:embed coloring_page.md
	ColoringPagePrompt string
)

// allTemplates はモードとテンプレート文字列を紐づけるマップです。
var allTemplates = map[string]string{
	ModeSceneList:    SceneListPrompt,
	ModeColoringPage: ColoringPagePrompt,
}

// FallbackScene はシーン一覧が得られなかった場合の代替シーンを返します。
func FallbackScene(theme string) string {
	return "A simple coloring page about " + theme
}
