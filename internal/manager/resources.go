package manager

import (
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/truthguardian/crawler/internal/config"
	"github.com/truthguardian/crawler/internal/utils"
)

// resourceGuard 启动爬虫进程前的系统资源检查
type resourceGuard interface {
	// Check 返回是否允许启动新进程,不允许时给出原因
	Check() (ok bool, reason string)
}

// systemGuard 基于gopsutil的真实系统资源检查
type systemGuard struct {
	maxMemoryUsage float64
	maxCPUUsage    float64
}

func newSystemGuard(cfg config.ManagerConfig) *systemGuard {
	return &systemGuard{
		maxMemoryUsage: cfg.MaxMemoryUsage,
		maxCPUUsage:    cfg.MaxCPUUsage,
	}
}

// Check 实现resourceGuard接口
// 阈值设为0或以上100时视为禁用对应项检查
func (g *systemGuard) Check() (bool, string) {
	if g.maxMemoryUsage > 0 && g.maxMemoryUsage < 100 {
		vmStat, err := mem.VirtualMemory()
		if err != nil {
			utils.Warnf("获取内存状态失败,跳过内存检查: %v", err)
		} else if vmStat.UsedPercent > g.maxMemoryUsage {
			return false, fmt.Sprintf("内存占用过高(当前%.1f%%)", vmStat.UsedPercent)
		}
	}

	if g.maxCPUUsage > 0 && g.maxCPUUsage < 100 {
		percentages, err := cpu.Percent(100*time.Millisecond, false)
		if err != nil {
			utils.Warnf("获取CPU状态失败,跳过CPU检查: %v", err)
		} else if len(percentages) > 0 && percentages[0] > g.maxCPUUsage {
			return false, fmt.Sprintf("CPU负载过高(当前%.1f%%)", percentages[0])
		}
	}

	return true, ""
}
