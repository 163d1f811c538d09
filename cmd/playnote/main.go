// Command playnote は分析ノート共有APIサーバーを起動する。
// サブコマンド: serve（デフォルト）, migrate, healthcheck
package main

import (
	"fmt"
	"os"

	"github.com/kyohei/playnote/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
