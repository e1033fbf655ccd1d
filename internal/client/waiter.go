package client

import (
	"context"
	"time"

	"github.com/iimeta/kling/internal/errors"
	"github.com/iimeta/kling/internal/model"
	"github.com/iimeta/kling/utility/logger"
)

// 等待结果
type WaitOutcome string

const (
	WaitSucceeded WaitOutcome = "succeeded"
	WaitFailed    WaitOutcome = "failed"
	WaitTimeout   WaitOutcome = "timeout"
	WaitCancelled WaitOutcome = "cancelled"
)

// 轮询间隔下限, 保护服务端限流
const minPollInterval = time.Second

type WaitOptions struct {
	Interval             time.Duration // 轮询间隔, 默认5s, 下限1s
	Timeout              time.Duration // 等待总时限, 默认300s
	MaxConsecutiveErrors int           // 连续查询失败次数上限, 超过后快速失败, 默认3
}

func (o *WaitOptions) normalize() {

	if o.Interval <= 0 {
		o.Interval = 5 * time.Second
	}

	if o.Interval < minPollInterval {
		o.Interval = minPollInterval
	}

	if o.Timeout <= 0 {
		o.Timeout = 300 * time.Second
	}

	if o.MaxConsecutiveErrors <= 0 {
		o.MaxConsecutiveErrors = 3
	}
}

type WaitResult struct {
	Outcome WaitOutcome       // 终态结果
	Task    *model.TaskRecord // 终态任务快照, 超时/取消时为最后一次观察到的快照
}

// 等待任务完成, 轮询任务状态直到终态/超时/取消
// 单次查询的瞬时失败按错过一次轮询处理, 连续失败超过上限时携带原错误快速失败
func (c *Client) WaitForTask(ctx context.Context, kind, taskId string, opts WaitOptions) (*WaitResult, error) {

	opts.normalize()

	deadline := time.Now().Add(opts.Timeout)

	var (
		last        *model.TaskRecord
		consecutive int
	)

	for {

		if ctx.Err() != nil {
			return &WaitResult{Outcome: WaitCancelled, Task: last}, nil
		}

		if time.Now().After(deadline) {
			return &WaitResult{Outcome: WaitTimeout, Task: last}, nil
		}

		record, err := c.GetTaskById(ctx, kind, taskId)
		if err != nil {

			if ctx.Err() != nil {
				return &WaitResult{Outcome: WaitCancelled, Task: last}, nil
			}

			if !errors.IsRetryableError(err) {
				return nil, err
			}

			consecutive++
			logger.Warningf(ctx, "waitForTask taskId: %s, poll failed %d/%d, error: %v", taskId, consecutive, opts.MaxConsecutiveErrors, err)

			if consecutive > opts.MaxConsecutiveErrors {
				return nil, err
			}

		} else {

			consecutive = 0
			last = record

			switch record.TaskStatus {
			case model.TaskStatusSucceed:
				logger.Infof(ctx, "waitForTask taskId: %s, succeed", taskId)
				return &WaitResult{Outcome: WaitSucceeded, Task: record}, nil
			case model.TaskStatusFailed:
				logger.Infof(ctx, "waitForTask taskId: %s, failed: %s", taskId, record.TaskStatusMsg)
				return &WaitResult{Outcome: WaitFailed, Task: record}, nil
			}

			logger.Debugf(ctx, "waitForTask taskId: %s, status: %s, next poll in %s", taskId, record.TaskStatus, opts.Interval)
		}

		// 每次休眠前复查时限
		if time.Now().After(deadline) {
			return &WaitResult{Outcome: WaitTimeout, Task: last}, nil
		}

		timer := time.NewTimer(opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return &WaitResult{Outcome: WaitCancelled, Task: last}, nil
		case <-timer.C:
		}
	}
}
