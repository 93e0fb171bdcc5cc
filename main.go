package main

import (
	"github.com/shouni/go-coloring-kit/cmd"
)

// main は塗り絵キットの入口なのだ。
// フラグの解析からサブコマンドの実行までは cmd パッケージに任せるのだ。
func main() {
	cmd.Execute()
}
