package client

import (
	"context"
	"net/http"
	"time"

	"github.com/gogf/gf/v2/text/gstr"
	"github.com/gogf/gf/v2/util/gconv"
	"github.com/iimeta/kling/internal/auth"
	"github.com/iimeta/kling/internal/config"
	"github.com/iimeta/kling/internal/consts"
	"github.com/iimeta/kling/internal/errors"
	"github.com/iimeta/kling/internal/model"
	"github.com/iimeta/kling/utility/logger"
)

// Kling接口客户端, 所有任务操作直连服务端, 不在本地缓存任务状态
type Client struct {
	pipeline *pipeline
	signer   *auth.Signer
}

func New(cfg config.Kling) (*Client, error) {
	return NewWithRetryPolicy(cfg, DefaultRetryPolicy(cfg.MaxRetries, time.Duration(cfg.Timeout)*time.Second))
}

func NewWithRetryPolicy(cfg config.Kling, policy RetryPolicy) (*Client, error) {

	signer, err := auth.NewSigner(cfg.AccessKey, cfg.SecretKey, time.Duration(cfg.TokenExpiration)*time.Second)
	if err != nil {
		return nil, err
	}

	baseUrl := gstr.TrimRight(cfg.BaseUrl, "/")
	if baseUrl == "" {
		baseUrl = consts.DEFAULT_BASE_URL
	}

	return &Client{
		pipeline: &pipeline{
			baseUrl: baseUrl,
			signer:  signer,
			policy:  policy,
		},
		signer: signer,
	}, nil
}

// 创建图生视频任务
func (c *Client) CreateImageToVideoTask(ctx context.Context, request *model.ImageToVideoRequest) (*model.TaskRecord, error) {

	if err := request.Validate(); err != nil {
		return nil, err
	}

	return c.createTask(ctx, consts.PATH_IMAGE2VIDEO, request)
}

// 创建图片生成任务
func (c *Client) CreateImageGenerationTask(ctx context.Context, request *model.ImageGenerationRequest) (*model.TaskRecord, error) {

	if err := request.Validate(); err != nil {
		return nil, err
	}

	return c.createTask(ctx, consts.PATH_IMAGE_GENERATION, request)
}

func (c *Client) createTask(ctx context.Context, path string, request interface{}) (*model.TaskRecord, error) {

	data, err := c.pipeline.Request(ctx, http.MethodPost, path, nil, request, false)
	if err != nil {
		logger.Errorf(ctx, "createTask path: %s, error: %v", path, err)
		return nil, err
	}

	record := &model.TaskRecord{}
	if err = data.Scan(record); err != nil {
		return nil, err
	}

	// 创建要么完整成功返回任务Id, 要么完整失败
	if record.TaskId == "" {
		return nil, errors.New("create response is missing task_id")
	}

	logger.Infof(ctx, "createTask path: %s, taskId: %s, status: %s", path, record.TaskId, record.TaskStatus)

	return record, nil
}

// 按任务Id查询任务
func (c *Client) GetTaskById(ctx context.Context, kind, taskId string) (*model.TaskRecord, error) {

	path, err := taskPath(kind)
	if err != nil {
		return nil, err
	}

	data, err := c.pipeline.Request(ctx, http.MethodGet, path+"/"+taskId, nil, nil, true)
	if err != nil {
		return nil, err
	}

	record := &model.TaskRecord{}
	if err = data.Scan(record); err != nil {
		return nil, err
	}

	return record, nil
}

// 按客户自定义任务Id查询任务, 服务端语义不明确的结果一律按不存在处理
func (c *Client) GetTaskByExternalId(ctx context.Context, kind, externalTaskId string) (*model.TaskRecord, error) {

	path, err := taskPath(kind)
	if err != nil {
		return nil, err
	}

	data, err := c.pipeline.Request(ctx, http.MethodGet, path, map[string]string{"external_task_id": externalTaskId}, nil, true)
	if err != nil {
		return nil, err
	}

	record := &model.TaskRecord{}
	if err = data.Scan(record); err != nil || record.TaskId == "" {
		return nil, errors.ERR_NOT_FOUND
	}

	return record, nil
}

// 分页查询任务列表, 分页参数越界时直接失败, 不发起网络请求
func (c *Client) ListTasks(ctx context.Context, kind string, pageNum, pageSize int) ([]model.TaskRecord, error) {

	path, err := taskPath(kind)
	if err != nil {
		return nil, err
	}

	if pageNum < consts.PAGE_NUM_MIN {
		return nil, errors.NewError(400, consts.CODE_PARAM_INVALID, "pageNum must be greater than or equal to 1")
	}

	if pageSize < consts.PAGE_SIZE_MIN || pageSize > consts.PAGE_SIZE_MAX {
		return nil, errors.NewError(400, consts.CODE_PARAM_INVALID, "pageSize must be within [1, 500]")
	}

	data, err := c.pipeline.Request(ctx, http.MethodGet, path, map[string]string{
		"pageNum":  gconv.String(pageNum),
		"pageSize": gconv.String(pageSize),
	}, nil, true)
	if err != nil {
		return nil, err
	}

	records := make([]model.TaskRecord, 0)
	if err = data.Scan(&records); err != nil {
		return nil, err
	}

	return records, nil
}

func taskPath(kind string) (string, error) {

	switch kind {
	case consts.TASK_KIND_IMAGE2VIDEO:
		return consts.PATH_IMAGE2VIDEO, nil
	case consts.TASK_KIND_IMAGE_GENERATION:
		return consts.PATH_IMAGE_GENERATION, nil
	}

	return "", errors.Newf("unknown task kind: %s", kind)
}
