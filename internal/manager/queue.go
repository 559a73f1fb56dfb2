package manager

import (
	"container/heap"
	"time"

	"github.com/google/uuid"

	"github.com/truthguardian/crawler/internal/models"
)

// queuedTask 队列内部任务,seq保证同优先级时先进先出
type queuedTask struct {
	task models.CrawlTask
	seq  uint64
}

// taskQueue 爬虫任务优先级队列,优先级高的先出队
// 非并发安全,由Manager的互斥锁保护
type taskQueue struct {
	items []*queuedTask
	seq   uint64
}

func newTaskQueue() *taskQueue {
	q := &taskQueue{}
	heap.Init(q)
	return q
}

// PushTask 任务入队,返回分配的任务ID
func (q *taskQueue) PushTask(spider string, priority int) models.CrawlTask {
	task := models.CrawlTask{
		ID:       uuid.NewString(),
		Spider:   spider,
		Priority: priority,
		AddedAt:  time.Now(),
	}
	q.seq++
	heap.Push(q, &queuedTask{task: task, seq: q.seq})
	return task
}

// PopTask 取出优先级最高的任务,队列为空时ok为false
func (q *taskQueue) PopTask() (models.CrawlTask, bool) {
	if q.Len() == 0 {
		return models.CrawlTask{}, false
	}
	item := heap.Pop(q).(*queuedTask)
	return item.task, true
}

// Requeue 任务回队(资源不足推迟执行时),保留原任务ID
func (q *taskQueue) Requeue(task models.CrawlTask) {
	q.seq++
	heap.Push(q, &queuedTask{task: task, seq: q.seq})
}

// heap.Interface实现

func (q *taskQueue) Len() int { return len(q.items) }

func (q *taskQueue) Less(i, j int) bool {
	if q.items[i].task.Priority != q.items[j].task.Priority {
		return q.items[i].task.Priority > q.items[j].task.Priority
	}
	return q.items[i].seq < q.items[j].seq
}

func (q *taskQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *taskQueue) Push(x interface{}) {
	q.items = append(q.items, x.(*queuedTask))
}

func (q *taskQueue) Pop() interface{} {
	old := q.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	q.items = old[:n-1]
	return item
}
