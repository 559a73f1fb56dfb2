package manager

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/truthguardian/crawler/internal/config"
	"github.com/truthguardian/crawler/internal/models"
	"github.com/truthguardian/crawler/internal/spiders"
)

// fakeProcess 假进程,测试中手动控制退出
type fakeProcess struct {
	pid  int
	done chan struct{}
	err  error
	once sync.Once
}

func newFakeProcess(pid int) *fakeProcess {
	return &fakeProcess{pid: pid, done: make(chan struct{})}
}

func (p *fakeProcess) exit(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

func (p *fakeProcess) PID() int { return p.pid }

func (p *fakeProcess) Done() <-chan struct{} { return p.done }

func (p *fakeProcess) Err() error { return p.err }

func (p *fakeProcess) Stop(grace time.Duration) error {
	p.exit(nil)
	return nil
}

// fakeLauncher 记录启动调用并返回假进程
type fakeLauncher struct {
	mu      sync.Mutex
	starts  []string
	procs   []*fakeProcess
	failErr error
}

func (l *fakeLauncher) Start(spider string) (process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failErr != nil {
		return nil, l.failErr
	}
	l.starts = append(l.starts, spider)
	p := newFakeProcess(1000 + len(l.starts))
	l.procs = append(l.procs, p)
	return p, nil
}

func (l *fakeLauncher) startCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.starts)
}

func (l *fakeLauncher) lastProc() *fakeProcess {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.procs) == 0 {
		return nil
	}
	return l.procs[len(l.procs)-1]
}

type allowGuard struct{}

func (allowGuard) Check() (bool, string) { return true, "" }

type denyGuard struct{}

func (denyGuard) Check() (bool, string) { return false, "内存占用过高(当前95.0%)" }

func testManager(l launcher, g resourceGuard) *Manager {
	m := &Manager{
		cfg: &config.Config{
			Manager: config.ManagerConfig{MonitorInterval: 60, StopGrace: 1},
		},
		launcher:   l,
		guard:      g,
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

// waitForState 轮询等待爬虫进入目标状态
func waitForState(t *testing.T, m *Manager, name string, want models.CrawlerState) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.Status()[name].Status == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("爬虫 %s 未在超时前进入状态 %s", name, want)
}

func TestStartCrawlerTwice(t *testing.T) {
	l := &fakeLauncher{}
	m := testManager(l, allowGuard{})

	if !m.StartCrawler("news") {
		t.Fatal("首次启动应成功")
	}
	if m.StartCrawler("news") {
		t.Error("重复启动应返回false")
	}
	if l.startCount() != 1 {
		t.Errorf("期望启动1次, 实际 %d", l.startCount())
	}

	st := m.Status()["news"]
	if st.Status != models.StateRunning {
		t.Errorf("状态应为running, 实际 %s", st.Status)
	}
	if st.LastStart == nil {
		t.Error("启动后last_start应被记录")
	}
}

func TestStartCrawlerUnknown(t *testing.T) {
	m := testManager(&fakeLauncher{}, allowGuard{})
	if m.StartCrawler("douyin") {
		t.Error("未知爬虫启动应返回false")
	}
}

func TestStartCrawlerResetsErrorCount(t *testing.T) {
	l := &fakeLauncher{}
	m := testManager(l, allowGuard{})
	m.status["news"].ErrorCount = 3

	if !m.StartCrawler("news") {
		t.Fatal("启动失败")
	}
	if got := m.Status()["news"].ErrorCount; got != 0 {
		t.Errorf("显式启动应重置错误计数, 实际 %d", got)
	}
}

func TestCrashAutoRestartIncrementsErrorCount(t *testing.T) {
	l := &fakeLauncher{}
	m := testManager(l, allowGuard{})

	if !m.StartCrawler("news") {
		t.Fatal("启动失败")
	}
	l.lastProc().exit(errors.New("exit status 1"))
	waitForState(t, m, "news", models.StateStopped)

	m.monitorPass()

	st := m.Status()["news"]
	if st.Status != models.StateRunning {
		t.Errorf("监控循环应重启异常退出的爬虫, 状态 %s", st.Status)
	}
	if st.ErrorCount != 1 {
		t.Errorf("自动重启应使错误计数恰好加1, 实际 %d", st.ErrorCount)
	}
	if l.startCount() != 2 {
		t.Errorf("期望启动2次, 实际 %d", l.startCount())
	}
}

func TestNormalExitNotRestarted(t *testing.T) {
	l := &fakeLauncher{}
	m := testManager(l, allowGuard{})

	m.StartCrawler("news")
	l.lastProc().exit(nil)
	waitForState(t, m, "news", models.StateStopped)

	m.monitorPass()

	if got := m.Status()["news"].Status; got != models.StateStopped {
		t.Errorf("正常结束的爬虫不应被重启, 状态 %s", got)
	}
	if l.startCount() != 1 {
		t.Errorf("期望启动1次, 实际 %d", l.startCount())
	}
}

func TestStopCrawler(t *testing.T) {
	l := &fakeLauncher{}
	m := testManager(l, allowGuard{})

	m.StartCrawler("news")
	if !m.StopCrawler("news") {
		t.Fatal("停止运行中的爬虫应成功")
	}
	waitForState(t, m, "news", models.StateStopped)

	if m.StopCrawler("news") {
		t.Error("停止未运行的爬虫应返回false")
	}

	// 主动停止不算异常,监控循环不应重启
	m.monitorPass()
	if got := m.Status()["news"].Status; got != models.StateStopped {
		t.Errorf("主动停止的爬虫不应被重启, 状态 %s", got)
	}
	if got := m.Status()["news"].ErrorCount; got != 0 {
		t.Errorf("主动停止不应增加错误计数, 实际 %d", got)
	}
}

func TestTaskQueuePriority(t *testing.T) {
	q := newTaskQueue()
	q.PushTask("news", 1)
	q.PushTask("gov", 5)
	q.PushTask("weibo", 5)

	first, _ := q.PopTask()
	if first.Spider != "gov" {
		t.Errorf("优先级最高且最早入队的任务应先出队, 实际 %s", first.Spider)
	}
	second, _ := q.PopTask()
	if second.Spider != "weibo" {
		t.Errorf("同优先级应先进先出, 实际 %s", second.Spider)
	}
	third, _ := q.PopTask()
	if third.Spider != "news" {
		t.Errorf("低优先级最后出队, 实际 %s", third.Spider)
	}
	if _, ok := q.PopTask(); ok {
		t.Error("空队列出队应返回false")
	}
	if first.ID == second.ID {
		t.Error("任务ID应唯一")
	}
}

func TestMonitorDrainsQueueSkippingRunning(t *testing.T) {
	l := &fakeLauncher{}
	m := testManager(l, allowGuard{})

	m.StartCrawler("news")
	if _, err := m.AddTask("news", 9); err != nil {
		t.Fatal(err)
	}
	if _, err := m.AddTask("gov", 1); err != nil {
		t.Fatal(err)
	}

	m.monitorPass()

	if got := m.Status()["gov"].Status; got != models.StateRunning {
		t.Errorf("队列中的gov任务应被执行, 状态 %s", got)
	}
	if m.QueueLen() != 0 {
		t.Errorf("队列应被清空, 剩余 %d", m.QueueLen())
	}
	// news已在运行,任务被跳过而不是重复启动
	if l.startCount() != 2 {
		t.Errorf("期望总共启动2次(news+gov), 实际 %d", l.startCount())
	}
}

func TestResourceShortageDefersTask(t *testing.T) {
	l := &fakeLauncher{}
	m := testManager(l, denyGuard{})

	if _, err := m.AddTask("news", 5); err != nil {
		t.Fatal(err)
	}
	m.monitorPass()

	if l.startCount() != 0 {
		t.Errorf("资源不足时不应启动爬虫, 实际启动 %d 次", l.startCount())
	}
	if m.QueueLen() != 1 {
		t.Errorf("任务应回队推迟执行, 队列长度 %d", m.QueueLen())
	}
}

func TestAddTaskUnknownSpider(t *testing.T) {
	m := testManager(&fakeLauncher{}, allowGuard{})
	if _, err := m.AddTask("douyin", 5); err == nil {
		t.Error("未知爬虫的任务应返回错误")
	}
}

func TestSchedulePassDaily(t *testing.T) {
	m := testManager(&fakeLauncher{}, allowGuard{})
	m.cfg.Schedule.DailyAt = "03:00"

	at := time.Date(2024, 1, 5, 3, 0, 30, 0, time.Local)
	m.schedulePass(at)

	if got, want := m.QueueLen(), len(spiders.Names()); got != want {
		t.Errorf("每日触发应为全部爬虫入队, 期望 %d 实际 %d", want, got)
	}

	// 同一天内不重复触发
	m.schedulePass(at.Add(10 * time.Second))
	if got, want := m.QueueLen(), len(spiders.Names()); got != want {
		t.Errorf("每日触发一天内不应重复, 期望 %d 实际 %d", want, got)
	}
}

func TestSchedulePassHourly(t *testing.T) {
	m := testManager(&fakeLauncher{}, allowGuard{})
	m.cfg.Schedule.Hours = map[string][]int{"weibo": {8, 20}}

	m.schedulePass(time.Date(2024, 1, 5, 8, 15, 0, 0, time.Local))
	if m.QueueLen() != 1 {
		t.Fatalf("计划小时内应入队1个任务, 实际 %d", m.QueueLen())
	}

	// 同一小时内不重复入队
	m.schedulePass(time.Date(2024, 1, 5, 8, 30, 0, 0, time.Local))
	if m.QueueLen() != 1 {
		t.Errorf("同一计划小时不应重复入队, 实际 %d", m.QueueLen())
	}

	// 晚间计划小时再次触发
	m.schedulePass(time.Date(2024, 1, 5, 20, 5, 0, 0, time.Local))
	if m.QueueLen() != 2 {
		t.Errorf("第二个计划小时应再次入队, 实际 %d", m.QueueLen())
	}

	task, _ := m.queue.PopTask()
	if task.Spider != "weibo" {
		t.Errorf("任务爬虫错误: %s", task.Spider)
	}
}

func TestLaunchFailureCountsError(t *testing.T) {
	l := &fakeLauncher{failErr: errors.New("no such file")}
	m := testManager(l, allowGuard{})

	if m.StartCrawler("news") {
		t.Error("启动失败应返回false")
	}
	if got := m.Status()["news"].ErrorCount; got != 1 {
		t.Errorf("启动失败应记1次错误, 实际 %d", got)
	}
	if got := m.Status()["news"].Status; got != models.StateStopped {
		t.Errorf("启动失败后状态应保持stopped, 实际 %s", got)
	}
}
