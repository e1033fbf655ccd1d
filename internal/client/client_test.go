package client

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/gogf/gf/v2/encoding/gjson"
	"github.com/gogf/gf/v2/os/gctx"
	"github.com/gogf/gf/v2/test/gtest"
	"github.com/iimeta/kling/internal/config"
	"github.com/iimeta/kling/internal/consts"
	"github.com/iimeta/kling/internal/errors"
	"github.com/iimeta/kling/internal/model"
)

func TestNew(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		_, err := New(config.Kling{SecretKey: "sk"})
		t.Assert(errors.Is(err, errors.ERR_MISSING_ACCESS_KEY), true)

		_, err = New(config.Kling{AccessKey: "ak"})
		t.Assert(errors.Is(err, errors.ERR_MISSING_SECRET_KEY), true)

		c, err := New(config.Kling{AccessKey: "ak", SecretKey: "sk"})
		t.AssertNil(err)
		t.Assert(c.pipeline.baseUrl, consts.DEFAULT_BASE_URL)
	})
}

func TestCreateImageToVideoTask(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		var (
			method string
			path   string
			body   string
		)

		c, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			method = r.Method
			path = r.URL.Path
			data, _ := io.ReadAll(r.Body)
			body = string(data)
			fmt.Fprint(w, taskBody("task-1", "submitted"))
		}, testRetryPolicy(3))
		defer server.Close()

		record, err := c.CreateImageToVideoTask(gctx.New(), &model.ImageToVideoRequest{
			Image:    "https://example.com/sample.jpg",
			Prompt:   "Astronaut standing up and walking away",
			Mode:     "pro",
			Duration: "5",
		})
		t.AssertNil(err)
		t.Assert(record.TaskId, "task-1")
		t.Assert(record.TaskStatus, model.TaskStatusSubmitted)
		t.Assert(method, http.MethodPost)
		t.Assert(path, consts.PATH_IMAGE2VIDEO)

		request := gjson.New(body)
		t.Assert(request.Get("image").String(), "https://example.com/sample.jpg")
		t.Assert(request.Get("mode").String(), "pro")
		t.Assert(request.Get("duration").String(), "5")
	})
}

func TestCreateTaskValidationFailsFast(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		requests := 0

		c, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			requests++
		}, testRetryPolicy(3))
		defer server.Close()

		// 首尾帧图像都缺失, 校验不通过, 不发起网络请求
		_, err := c.CreateImageToVideoTask(gctx.New(), &model.ImageToVideoRequest{Prompt: "p"})
		t.AssertNE(err, nil)
		t.Assert(requests, 0)

		e := &errors.KlingError{}
		t.Assert(errors.As(err, &e), true)
		t.Assert(e.ErrCode(), consts.CODE_PARAM_INVALID)
	})
}

func TestGetTaskById(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		var path string

		c, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			fmt.Fprint(w, taskBody("task-9", "processing"))
		}, testRetryPolicy(3))
		defer server.Close()

		record, err := c.GetTaskById(gctx.New(), consts.TASK_KIND_IMAGE2VIDEO, "task-9")
		t.AssertNil(err)
		t.Assert(record.TaskId, "task-9")
		t.Assert(record.TaskStatus, model.TaskStatusProcessing)
		t.Assert(path, consts.PATH_IMAGE2VIDEO+"/task-9")
	})
}

func TestGetTaskByIdNotFound(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		c, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintf(w, `{"code":%d,"message":"task not found","request_id":"req-1"}`, consts.CODE_RESOURCE_NOT_FOUND)
		}, testRetryPolicy(3))
		defer server.Close()

		_, err := c.GetTaskById(gctx.New(), consts.TASK_KIND_IMAGE2VIDEO, "missing")
		t.AssertNE(err, nil)
		t.Assert(errors.IsNotFoundError(err), true)
	})
}

func TestGetTaskByExternalId(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		var externalTaskId string

		c, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			externalTaskId = r.URL.Query().Get("external_task_id")
			fmt.Fprint(w, `{"code":0,"message":"SUCCEED","request_id":"req-1","data":{"task_id":"task-2","task_status":"succeed","task_info":{"external_task_id":"ext-7"},"created_at":1,"updated_at":2}}`)
		}, testRetryPolicy(3))
		defer server.Close()

		record, err := c.GetTaskByExternalId(gctx.New(), consts.TASK_KIND_IMAGE2VIDEO, "ext-7")
		t.AssertNil(err)
		t.Assert(record.TaskId, "task-2")
		t.Assert(record.TaskInfo.ExternalTaskId, "ext-7")
		t.Assert(externalTaskId, "ext-7")
	})
}

func TestGetTaskByExternalIdAmbiguousTreatedAsNotFound(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		// 服务端对不明确的external_task_id返回空data, 按不存在处理
		c, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"code":0,"message":"SUCCEED","request_id":"req-1","data":{}}`)
		}, testRetryPolicy(3))
		defer server.Close()

		_, err := c.GetTaskByExternalId(gctx.New(), consts.TASK_KIND_IMAGE2VIDEO, "ambiguous")
		t.Assert(errors.Is(err, errors.ERR_NOT_FOUND), true)
	})
}

func TestListTasks(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		var query string

		c, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			query = r.URL.RawQuery
			fmt.Fprint(w, `{"code":0,"message":"SUCCEED","request_id":"req-1","data":[`+
				`{"task_id":"task-1","task_status":"succeed","task_info":{},"created_at":1,"updated_at":2},`+
				`{"task_id":"task-2","task_status":"processing","task_info":{},"created_at":3,"updated_at":4}]}`)
		}, testRetryPolicy(3))
		defer server.Close()

		records, err := c.ListTasks(gctx.New(), consts.TASK_KIND_IMAGE2VIDEO, 1, 30)
		t.AssertNil(err)
		t.Assert(len(records), 2)
		t.Assert(records[0].TaskId, "task-1")
		t.Assert(records[1].TaskId, "task-2")
		t.Assert(query != "", true)
	})
}

func TestListTasksInvalidPagination(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		requests := 0

		c, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			requests++
		}, testRetryPolicy(3))
		defer server.Close()

		ctx := gctx.New()

		_, err := c.ListTasks(ctx, consts.TASK_KIND_IMAGE2VIDEO, 0, 30)
		t.AssertNE(err, nil)

		_, err = c.ListTasks(ctx, consts.TASK_KIND_IMAGE2VIDEO, 1, 0)
		t.AssertNE(err, nil)

		_, err = c.ListTasks(ctx, consts.TASK_KIND_IMAGE2VIDEO, 1, 501)
		t.AssertNE(err, nil)

		// 分页参数越界时直接失败, 无网络调用
		t.Assert(requests, 0)
	})
}

func TestGetTaskByIdIdempotent(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		// 终态任务重复查询, 每次返回完全一致的快照
		c, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"code":0,"message":"SUCCEED","request_id":"req-1","data":{"task_id":"task-1","task_status":"succeed","task_info":{},"task_result":{"videos":[{"id":"v1","url":"https://cdn.example.com/v1.mp4","duration":"5"}]},"created_at":1722769557708,"updated_at":1722769657708}}`)
		}, testRetryPolicy(3))
		defer server.Close()

		ctx := gctx.New()

		first, err := c.GetTaskById(ctx, consts.TASK_KIND_IMAGE2VIDEO, "task-1")
		t.AssertNil(err)

		second, err := c.GetTaskById(ctx, consts.TASK_KIND_IMAGE2VIDEO, "task-1")
		t.AssertNil(err)

		t.Assert(gjson.MustEncodeString(first), gjson.MustEncodeString(second))
	})
}

func TestUnknownTaskKind(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		c, err := New(config.Kling{AccessKey: "ak", SecretKey: "sk"})
		t.AssertNil(err)

		_, err = c.GetTaskById(gctx.New(), "audio", "task-1")
		t.AssertNE(err, nil)

		_, err = c.ListTasks(gctx.New(), "audio", 1, 30)
		t.AssertNE(err, nil)
	})
}
