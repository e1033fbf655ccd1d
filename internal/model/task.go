package model

// 任务状态
type TaskStatus string

const (
	TaskStatusSubmitted  TaskStatus = "submitted"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusSucceed    TaskStatus = "succeed"
	TaskStatusFailed     TaskStatus = "failed"
)

// 终态: succeed/failed, 不再发生状态迁移
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusSucceed || s == TaskStatusFailed
}

// 响应公共结构
type Response struct {
	Code      int    `json:"code"`       // 错误码, 0表示成功
	Message   string `json:"message"`    // 错误信息
	RequestId string `json:"request_id"` // 请求Id
}

// 任务快照, 每次查询返回服务端当前视图, 收到后不可变
type TaskRecord struct {
	TaskId        string      `json:"task_id"`                  // 任务Id
	TaskStatus    TaskStatus  `json:"task_status"`              // 任务状态
	TaskStatusMsg string      `json:"task_status_msg,omitempty"` // 任务状态信息, 失败时展示失败原因
	TaskInfo      TaskInfo    `json:"task_info"`                // 任务创建时的参数信息
	TaskResult    *TaskResult `json:"task_result,omitempty"`    // 任务结果, 仅成功时返回
	CreatedAt     int64       `json:"created_at"`               // 任务创建时间, Unix时间戳, 单位ms
	UpdatedAt     int64       `json:"updated_at"`               // 任务更新时间, Unix时间戳, 单位ms
}

type TaskInfo struct {
	ExternalTaskId string `json:"external_task_id,omitempty"` // 客户自定义任务Id
}

// 任务结果, 视频任务返回Videos, 图片任务返回Images
type TaskResult struct {
	Videos []VideoResult `json:"videos,omitempty"`
	Images []ImageResult `json:"images,omitempty"`
}

type VideoResult struct {
	Id       string `json:"id"`       // 生成的视频Id
	Url      string `json:"url"`      // 生成视频的URL
	Duration string `json:"duration"` // 视频总时长, 单位s
}

type ImageResult struct {
	Index int    `json:"index"` // 图片编号, 从0开始
	Url   string `json:"url"`   // 生成图片的URL
}
