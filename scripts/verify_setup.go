package main

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

func main() {
	fmt.Println("==============================================")
	fmt.Println("  TruthGuardian 运行环境验证")
	fmt.Println("==============================================")
	fmt.Println()

	allOK := true

	// 检查Go版本
	goVersion := runtime.Version()
	fmt.Printf("✅ Go版本: %s\n", goVersion)

	if !strings.HasPrefix(goVersion, "go1.23") &&
		!strings.HasPrefix(goVersion, "go1.24") {
		fmt.Println("⚠️  警告: 建议使用Go 1.23+版本")
	}

	// 检查操作系统
	fmt.Printf("✅ 操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	// 检查PostgreSQL客户端工具(数据库连通性排查用)
	if checkCommand("pg_isready", "--version") {
		fmt.Println("✅ pg_isready已安装")
	} else {
		fmt.Println("⚠️  pg_isready未安装 - 数据库连通性检查不可用")
		fmt.Println("   安装方法: apt install postgresql-client")
	}

	// 检查Chromium(动态渲染回退功能依赖)
	chromiumFound := false
	for _, browser := range []string{"chromium", "chromium-browser", "google-chrome"} {
		if checkCommand(browser, "--version") {
			version := getCommandOutput(browser, "--version")
			fmt.Printf("✅ 浏览器已安装: %s\n", strings.TrimSpace(version))
			chromiumFound = true
			break
		}
	}
	if !chromiumFound {
		fmt.Println("⚠️  Chromium未安装 - dynamic_fallback功能首次运行时将自动下载浏览器")
	}

	// 检查配置文件
	configFound := false
	for _, path := range []string{"configs/config.yaml", "config.yaml"} {
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("✅ 配置文件: %s\n", path)
			configFound = true
			break
		}
	}
	if !configFound {
		fmt.Println("⚠️  未找到配置文件 - 将使用内置默认值")
	}

	// 检查日志目录可写
	if err := os.MkdirAll("logs", 0755); err != nil {
		fmt.Printf("❌ 日志目录不可写: %v\n", err)
		allOK = false
	} else {
		fmt.Println("✅ 日志目录可写: logs/")
	}

	fmt.Println()
	if allOK {
		fmt.Println("✨ 环境验证通过!")
	} else {
		fmt.Println("❌ 环境验证失败,请根据上述提示修复")
		os.Exit(1)
	}
}

func checkCommand(name string, args ...string) bool {
	cmd := exec.Command(name, args...)
	return cmd.Run() == nil
}

func getCommandOutput(name string, args ...string) string {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return ""
	}
	return string(out)
}
