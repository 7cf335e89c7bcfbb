package scheduler

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Scheduler 任务调度器
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler 创建任务调度器，接受秒级cron表达式
func NewScheduler() *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
	}
}

// AddJob 注册一个定时任务
func (s *Scheduler) AddJob(spec string, name string, job func()) error {
	_, err := s.cron.AddFunc(spec, func() {
		log.Printf("定时任务触发: %s", name)
		job()
	})
	if err != nil {
		return fmt.Errorf("注册定时任务 %s 失败: %w", name, err)
	}
	return nil
}

// Start 启动调度器
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("调度器已启动")
}

// Stop 停止调度器并等待在途任务结束
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("调度器已停止")
}
