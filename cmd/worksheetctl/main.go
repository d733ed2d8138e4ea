// Package main 练习册运维命令行：调试提示词、离线渲染与直接生成
package main

import (
	"os"

	"github.com/fatih/color"
)

// Version 版本信息，构建时注入
var Version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgHiRed).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
