package manager

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/truthguardian/crawler/internal/config"
	"github.com/truthguardian/crawler/internal/models"
	"github.com/truthguardian/crawler/internal/spiders"
	"github.com/truthguardian/crawler/internal/utils"
)

// launcher 爬虫进程启动抽象,测试时替换为假进程
type launcher interface {
	Start(spider string) (process, error)
}

// process 运行中的爬虫进程
type process interface {
	// PID 返回进程ID
	PID() int

	// Done 进程退出时关闭
	Done() <-chan struct{}

	// Err 进程退出后返回退出错误,进程未退出时不可靠
	Err() error

	// Stop 先SIGTERM等待宽限期,超时后SIGKILL
	Stop(grace time.Duration) error
}

// Manager 爬虫管理器
// 每个爬虫作为独立OS进程运行,崩溃互不影响
// 调度循环按计划入队任务,监控循环消费队列并重启异常退出的爬虫
type Manager struct {
	cfg      *config.Config
	launcher launcher
	guard    resourceGuard

	mu       sync.Mutex
	status   map[string]*models.CrawlerStatus
	procs    map[string]process
	crashed  map[string]bool
	stopping map[string]bool
	queue    *taskQueue

	lastDaily  string
	lastHourly map[string]string
}

// NewManager 创建爬虫管理器,为每个注册爬虫初始化状态
// configPath传递给爬虫子进程,保证父子进程使用同一配置
func NewManager(cfg *config.Config, configPath string) *Manager {
	selfPath, err := os.Executable()
	if err != nil {
		utils.Warnf("获取可执行文件路径失败,使用argv[0]: %v", err)
		selfPath = os.Args[0]
	}

	m := &Manager{
		cfg:        cfg,
		launcher:   &execLauncher{selfPath: selfPath, configPath: configPath},
		guard:      newSystemGuard(cfg.Manager),
		status:     make(map[string]*models.CrawlerStatus),
		procs:      make(map[string]process),
		crashed:    make(map[string]bool),
		stopping:   make(map[string]bool),
		queue:      newTaskQueue(),
		lastHourly: make(map[string]string),
	}
	for _, name := range spiders.Names() {
		m.status[name] = &models.CrawlerStatus{Status: models.StateStopped}
	}
	return m
}

// StartCrawler 启动指定爬虫,已在运行时返回false
// 显式启动会重置错误计数
func (m *Manager) StartCrawler(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.status[name]
	if !ok {
		utils.Warnf("未知的爬虫: %s", name)
		return false
	}
	if st.Status == models.StateRunning {
		utils.Infof("爬虫 %s 已在运行", name)
		return false
	}
	if ok, reason := m.guard.Check(); !ok {
		utils.Warnf("系统资源不足(%s),拒绝启动爬虫 %s", reason, name)
		return false
	}

	st.ErrorCount = 0
	return m.startLocked(name)
}

// startLocked 在持有锁的前提下启动爬虫进程
func (m *Manager) startLocked(name string) bool {
	st := m.status[name]

	proc, err := m.launcher.Start(name)
	if err != nil {
		utils.Errorf("启动爬虫 %s 失败: %v", name, err)
		st.ErrorCount++
		return false
	}

	now := time.Now()
	st.Status = models.StateRunning
	st.LastStart = &now
	m.procs[name] = proc
	delete(m.crashed, name)
	utils.Infof("爬虫 %s 已启动 (PID %d)", name, proc.PID())

	go m.watch(name, proc)
	return true
}

// watch 等待爬虫进程退出并更新状态
func (m *Manager) watch(name string, proc process) {
	<-proc.Done()
	err := proc.Err()

	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.status[name]
	now := time.Now()
	st.Status = models.StateStopped
	st.LastEnd = &now
	delete(m.procs, name)

	switch {
	case m.stopping[name]:
		delete(m.stopping, name)
		utils.Infof("爬虫 %s 已停止", name)
	case err != nil:
		m.crashed[name] = true
		utils.Errorf("爬虫 %s 异常退出: %v", name, err)
	default:
		utils.Infof("爬虫 %s 运行结束", name)
	}
}

// StopCrawler 停止指定爬虫,未在运行时返回false
func (m *Manager) StopCrawler(name string) bool {
	m.mu.Lock()
	st, ok := m.status[name]
	proc, running := m.procs[name]
	if !ok || !running || st.Status != models.StateRunning {
		m.mu.Unlock()
		return false
	}
	m.stopping[name] = true
	m.mu.Unlock()

	grace := time.Duration(m.cfg.Manager.StopGrace) * time.Second
	if grace <= 0 {
		grace = 5 * time.Second
	}
	utils.Infof("正在停止爬虫 %s (宽限期 %v)", name, grace)
	if err := proc.Stop(grace); err != nil {
		utils.Debugf("爬虫 %s 停止时退出状态: %v", name, err)
	}
	return true
}

// AddTask 添加爬虫任务到优先级队列,由监控循环消费
func (m *Manager) AddTask(spider string, priority int) (models.CrawlTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.status[spider]; !ok {
		return models.CrawlTask{}, fmt.Errorf("未知的爬虫: %s", spider)
	}
	if priority < 0 {
		priority = 0
	}
	if priority > 9 {
		priority = 9
	}

	task := m.queue.PushTask(spider, priority)
	utils.Infof("任务已入队: %s (爬虫 %s, 优先级 %d)", task.ID, spider, priority)
	return task, nil
}

// Status 返回所有爬虫的状态快照
func (m *Manager) Status() map[string]models.CrawlerStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[string]models.CrawlerStatus, len(m.status))
	for name, st := range m.status {
		snapshot[name] = *st
	}
	return snapshot
}

// QueueLen 返回当前队列中的任务数量
func (m *Manager) QueueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.Len()
}

// Run 运行调度和监控循环,阻塞到ctx取消
func (m *Manager) Run(ctx context.Context) error {
	interval := time.Duration(m.cfg.Manager.MonitorInterval) * time.Second
	if interval <= 0 {
		interval = 60 * time.Second
	}
	utils.Infof("爬虫管理器启动,监控间隔 %v, 已注册爬虫: %v", interval, spiders.Names())

	monitorTicker := time.NewTicker(interval)
	defer monitorTicker.Stop()
	scheduleTicker := time.NewTicker(time.Minute)
	defer scheduleTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			utils.Infof("爬虫管理器收到退出信号,停止所有爬虫")
			m.stopAll()
			return nil
		case <-monitorTicker.C:
			m.monitorPass()
		case now := <-scheduleTicker.C:
			m.schedulePass(now)
		}
	}
}

// monitorPass 单轮监控: 重启异常退出的爬虫,消费任务队列
func (m *Manager) monitorPass() {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 自动重启异常退出的爬虫,每次重启错误计数加1
	for name := range m.crashed {
		st := m.status[name]
		if st.Status == models.StateRunning {
			continue
		}
		delete(m.crashed, name)
		st.ErrorCount++
		utils.Warnf("检测到爬虫 %s 异常退出,自动重启(累计错误 %d 次)", name, st.ErrorCount)
		m.startLocked(name)
	}

	// 消费任务队列,资源不足时任务回队推迟到下一轮
	var deferred []models.CrawlTask
	for {
		task, ok := m.queue.PopTask()
		if !ok {
			break
		}

		st := m.status[task.Spider]
		if st == nil {
			utils.Warnf("丢弃未知爬虫的任务: %s", task.Spider)
			continue
		}
		if st.Status == models.StateRunning {
			utils.Infof("爬虫 %s 正在运行,跳过任务 %s", task.Spider, task.ID)
			continue
		}
		if ok, reason := m.guard.Check(); !ok {
			utils.Warnf("系统资源不足(%s),任务 %s 推迟执行", reason, task.ID)
			deferred = append(deferred, task)
			break
		}

		utils.Infof("执行任务 %s: 启动爬虫 %s (优先级 %d)", task.ID, task.Spider, task.Priority)
		m.startLocked(task.Spider)
	}
	for _, task := range deferred {
		m.queue.Requeue(task)
	}
}

// schedulePass 单轮调度: 每日全量触发和按小时的单爬虫计划
func (m *Manager) schedulePass(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 每日全量采集
	day := now.Format("2006-01-02")
	if m.cfg.Schedule.DailyAt != "" && now.Format("15:04") == m.cfg.Schedule.DailyAt && m.lastDaily != day {
		m.lastDaily = day
		utils.Infof("触发每日全量采集")
		for name := range m.status {
			m.queue.PushTask(name, 5)
		}
	}

	// 单爬虫按小时计划,每个计划小时只触发一次
	for spider, hours := range m.cfg.Schedule.Hours {
		if _, ok := m.status[spider]; !ok {
			continue
		}
		for _, hour := range hours {
			if now.Hour() != hour {
				continue
			}
			key := fmt.Sprintf("%s-%02d", day, hour)
			if m.lastHourly[spider] == key {
				continue
			}
			m.lastHourly[spider] = key
			utils.Infof("按计划入队爬虫 %s (小时 %d)", spider, hour)
			m.queue.PushTask(spider, 3)
		}
	}
}

// stopAll 停止所有运行中的爬虫
func (m *Manager) stopAll() {
	m.mu.Lock()
	var running []string
	for name := range m.procs {
		running = append(running, name)
	}
	m.mu.Unlock()

	for _, name := range running {
		m.StopCrawler(name)
	}
}

// execLauncher 以子进程方式启动爬虫: <self> crawl --spider <name>
type execLauncher struct {
	selfPath   string
	configPath string
}

// Start 实现launcher接口
func (l *execLauncher) Start(spider string) (process, error) {
	args := []string{"crawl", "--spider", spider}
	if l.configPath != "" {
		args = append(args, "--config", l.configPath)
	}

	cmd := exec.Command(l.selfPath, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	p := &osProcess{cmd: cmd, done: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

// osProcess 真实OS进程
type osProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// PID 实现process接口
func (p *osProcess) PID() int { return p.cmd.Process.Pid }

// Done 实现process接口
func (p *osProcess) Done() <-chan struct{} { return p.done }

// Err 实现process接口
func (p *osProcess) Err() error { return p.err }

// Stop 实现process接口
func (p *osProcess) Stop(grace time.Duration) error {
	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		return p.cmd.Process.Kill()
	}

	select {
	case <-p.done:
		return p.err
	case <-time.After(grace):
		utils.Warnf("进程 %d 未在宽限期内退出,强制杀死", p.PID())
		if err := p.cmd.Process.Kill(); err != nil {
			return err
		}
		<-p.done
		return p.err
	}
}
