package client

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gogf/gf/v2/os/gctx"
	"github.com/gogf/gf/v2/test/gtest"
	"github.com/iimeta/kling/internal/consts"
	"github.com/iimeta/kling/internal/errors"
	"github.com/iimeta/kling/internal/model"
)

func TestWaitForTaskImageToVideo(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		polls := 0

		// 创建带dynamic_masks和image的视频任务, 第一次轮询processing, 第二次succeed
		c, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {

			if r.Method == http.MethodPost {
				fmt.Fprint(w, taskBody("task-dm", "submitted"))
				return
			}

			polls++
			if polls == 1 {
				fmt.Fprint(w, taskBody("task-dm", "processing"))
				return
			}
			fmt.Fprint(w, `{"code":0,"message":"SUCCEED","request_id":"req-1","data":{"task_id":"task-dm","task_status":"succeed","task_info":{},"task_result":{"videos":[{"id":"v1","url":"https://cdn.example.com/v1.mp4","duration":"5"}]},"created_at":1,"updated_at":2}}`)
		}, testRetryPolicy(3))
		defer server.Close()

		ctx := gctx.New()

		record, err := c.CreateImageToVideoTask(ctx, &model.ImageToVideoRequest{
			Image:    "https://example.com/sample.jpg",
			Duration: "5",
			DynamicMasks: []model.DynamicMask{{
				Mask:         "https://example.com/mask.png",
				Trajectories: []model.TrajectoryPoint{{X: 0, Y: 0}, {X: 100, Y: 100}},
			}},
		})
		t.AssertNil(err)

		result, err := c.WaitForTask(ctx, consts.TASK_KIND_IMAGE2VIDEO, record.TaskId, WaitOptions{Interval: time.Second, Timeout: 30 * time.Second})
		t.AssertNil(err)
		t.Assert(result.Outcome, WaitSucceeded)
		t.Assert(polls, 2)

		videos := result.Task.TaskResult.Videos
		t.Assert(len(videos), 1)
		t.Assert(videos[0].Url, "https://cdn.example.com/v1.mp4")
		t.Assert(videos[0].Duration, "5")
	})
}

func TestWaitForTaskImageGeneration(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		// n=2的图片生成任务, 轮询succeed后按编号顺序返回两张图片
		c, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {

			if r.Method == http.MethodPost {
				fmt.Fprint(w, taskBody("task-img", "submitted"))
				return
			}

			fmt.Fprint(w, `{"code":0,"message":"SUCCEED","request_id":"req-1","data":{"task_id":"task-img","task_status":"succeed","task_info":{},"task_result":{"images":[{"index":0,"url":"https://cdn.example.com/0.png"},{"index":1,"url":"https://cdn.example.com/1.png"}]},"created_at":1,"updated_at":2}}`)
		}, testRetryPolicy(3))
		defer server.Close()

		ctx := gctx.New()

		record, err := c.CreateImageGenerationTask(ctx, &model.ImageGenerationRequest{
			Prompt: "A beautiful mountain landscape with a lake",
			N:      2,
		})
		t.AssertNil(err)

		result, err := c.WaitForTask(ctx, consts.TASK_KIND_IMAGE_GENERATION, record.TaskId, WaitOptions{Interval: time.Second, Timeout: 30 * time.Second})
		t.AssertNil(err)
		t.Assert(result.Outcome, WaitSucceeded)

		images := result.Task.TaskResult.Images
		t.Assert(len(images), 2)
		t.Assert(images[0].Index, 0)
		t.Assert(images[0].Url, "https://cdn.example.com/0.png")
		t.Assert(images[1].Index, 1)
		t.Assert(images[1].Url, "https://cdn.example.com/1.png")
	})
}

func TestWaitForTaskExactPollCount(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		polls := 0

		statuses := []string{"submitted", "processing", "succeed"}

		c, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			status := statuses[polls]
			polls++
			fmt.Fprint(w, taskBody("task-1", status))
		}, testRetryPolicy(3))
		defer server.Close()

		result, err := c.WaitForTask(gctx.New(), consts.TASK_KIND_IMAGE2VIDEO, "task-1", WaitOptions{Interval: time.Second, Timeout: 30 * time.Second})
		t.AssertNil(err)
		t.Assert(result.Outcome, WaitSucceeded)

		// 到达终态后不再有多余轮询
		t.Assert(polls, 3)
	})
}

func TestWaitForTaskFailed(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		c, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"code":0,"message":"SUCCEED","request_id":"req-1","data":{"task_id":"task-1","task_status":"failed","task_status_msg":"content moderation failed","task_info":{},"created_at":1,"updated_at":2}}`)
		}, testRetryPolicy(3))
		defer server.Close()

		// 任务失败是正常终态, 不是调用错误
		result, err := c.WaitForTask(gctx.New(), consts.TASK_KIND_IMAGE2VIDEO, "task-1", WaitOptions{Interval: time.Second, Timeout: 30 * time.Second})
		t.AssertNil(err)
		t.Assert(result.Outcome, WaitFailed)
		t.Assert(result.Task.TaskStatusMsg, "content moderation failed")
	})
}

func TestWaitForTaskTimeout(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		c, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, taskBody("task-1", "processing"))
		}, testRetryPolicy(3))
		defer server.Close()

		// 任务卡在processing, 约2个轮询间隔后超时, 携带最后一次观察到的快照
		result, err := c.WaitForTask(gctx.New(), consts.TASK_KIND_IMAGE2VIDEO, "task-1", WaitOptions{Interval: time.Second, Timeout: 1500 * time.Millisecond})
		t.AssertNil(err)
		t.Assert(result.Outcome, WaitTimeout)
		t.AssertNE(result.Task, nil)
		t.Assert(result.Task.TaskStatus, model.TaskStatusProcessing)
	})
}

func TestWaitForTaskCancelled(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		c, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, taskBody("task-1", "processing"))
		}, testRetryPolicy(3))
		defer server.Close()

		ctx, cancel := context.WithCancel(gctx.New())

		go func() {
			time.Sleep(200 * time.Millisecond)
			cancel()
		}()

		start := time.Now()

		result, err := c.WaitForTask(ctx, consts.TASK_KIND_IMAGE2VIDEO, "task-1", WaitOptions{Interval: 5 * time.Second, Timeout: 60 * time.Second})
		t.AssertNil(err)
		t.Assert(result.Outcome, WaitCancelled)
		t.Assert(result.Task.TaskStatus, model.TaskStatusProcessing)

		// 取消后立即返回, 不等满一个轮询间隔
		t.AssertLT(time.Since(start), 2*time.Second)
	})
}

func TestWaitForTaskConsecutiveErrors(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		polls := 0

		c, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			polls++
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintf(w, `{"code":%d,"message":"server error","request_id":"req-1"}`, consts.CODE_SERVER_ERROR)
		}, testRetryPolicy(1))
		defer server.Close()

		// 连续瞬时失败超过上限后, 携带底层错误快速失败
		_, err := c.WaitForTask(gctx.New(), consts.TASK_KIND_IMAGE2VIDEO, "task-1", WaitOptions{Interval: time.Second, Timeout: 60 * time.Second, MaxConsecutiveErrors: 2})
		t.AssertNE(err, nil)
		t.Assert(polls, 3)

		e := &errors.KlingError{}
		t.Assert(errors.As(err, &e), true)
		t.Assert(e.Status(), http.StatusInternalServerError)
	})
}

func TestWaitForTaskNotFoundFailsFast(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		polls := 0

		c, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			polls++
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintf(w, `{"code":%d,"message":"task not found","request_id":"req-1"}`, consts.CODE_RESOURCE_NOT_FOUND)
		}, testRetryPolicy(3))
		defer server.Close()

		_, err := c.WaitForTask(gctx.New(), consts.TASK_KIND_IMAGE2VIDEO, "missing", WaitOptions{Interval: time.Second, Timeout: 60 * time.Second})
		t.AssertNE(err, nil)
		t.Assert(errors.IsNotFoundError(err), true)
		t.Assert(polls, 1)
	})
}
