// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package scheduler

import (
	"log"
	"time"
)

// Task is a unit of periodic work. Errors are logged, not fatal.
type Task func() error

// Scheduler runs a named task on a fixed interval.
type Scheduler struct {
	name     string
	interval time.Duration
	task     Task
	stopChan chan bool
}

// New creates a scheduler that runs task every interval.
func New(name string, interval time.Duration, task Task) *Scheduler {
	return &Scheduler{
		name:     name,
		interval: interval,
		task:     task,
		stopChan: make(chan bool),
	}
}

// Start begins the scheduler loop in a background goroutine.
func (s *Scheduler) Start() {
	ticker := time.NewTicker(s.interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				if err := s.task(); err != nil {
					log.Printf("Scheduled task %s failed: %v", s.name, err)
				}
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.stopChan <- true
}
