package model

import (
	"github.com/iimeta/kling/internal/consts"
	"github.com/iimeta/kling/internal/errors"
)

// 运动轨迹坐标点
type TrajectoryPoint struct {
	X int `json:"x"` // 横坐标
	Y int `json:"y"` // 纵坐标
}

// 动态笔刷配置, 控制指定区域的运动
type DynamicMask struct {
	Mask         string            `json:"mask"`         // 动态笔刷涂抹区域, 图片URL或Base64编码
	Trajectories []TrajectoryPoint `json:"trajectories"` // 运动轨迹坐标序列, 2-77个点
}

// 摄像机运动配置, 六个参数有且仅有一个不为0
type CameraControlConfig struct {
	Horizontal float64 `json:"horizontal"` // 水平运镜 [-10, 10]
	Vertical   float64 `json:"vertical"`   // 垂直运镜 [-10, 10]
	Pan        float64 `json:"pan"`        // 水平摇镜 [-10, 10]
	Tilt       float64 `json:"tilt"`       // 垂直摇镜 [-10, 10]
	Roll       float64 `json:"roll"`       // 旋转运镜 [-10, 10]
	Zoom       float64 `json:"zoom"`       // 变焦 [-10, 10]
}

type CameraControl struct {
	Type   string               `json:"type"`             // 运镜类型 [simple, down_back, forward_up, right_turn_forward, left_turn_forward]
	Config *CameraControlConfig `json:"config,omitempty"` // type为simple时必填, 其它类型不填
}

// 图生视频请求参数
type ImageToVideoRequest struct {
	ModelName      string         `json:"model_name,omitempty"`      // 模型名称
	Image          string         `json:"image,omitempty"`           // 参考图像, 图片URL或Base64编码
	ImageTail      string         `json:"image_tail,omitempty"`      // 尾帧图像, 图片URL或Base64编码
	Prompt         string         `json:"prompt,omitempty"`          // 正向文本提示词, 不超过2500字符
	NegativePrompt string         `json:"negative_prompt,omitempty"` // 负向文本提示词, 不超过2500字符
	CfgScale       *float64       `json:"cfg_scale,omitempty"`       // 生成视频的自由度 [0, 1], 值越大与提示词相关性越强
	Mode           string         `json:"mode,omitempty"`            // 生成模式 [std, pro]
	StaticMask     string         `json:"static_mask,omitempty"`     // 静态笔刷涂抹区域
	DynamicMasks   []DynamicMask  `json:"dynamic_masks,omitempty"`   // 动态笔刷配置列表, 最多6组
	CameraControl  *CameraControl `json:"camera_control,omitempty"`  // 摄像机运动配置
	Duration       string         `json:"duration,omitempty"`        // 视频时长, 单位s [5, 10]
	CallbackUrl    string         `json:"callback_url,omitempty"`    // 任务结果回调通知地址
	ExternalTaskId string         `json:"external_task_id,omitempty"` // 客户自定义任务Id, 单账户下需唯一
}

var cameraControlTypes = []string{"simple", "down_back", "forward_up", "right_turn_forward", "left_turn_forward"}

// 校验请求字段约束, 不通过网络
func (r *ImageToVideoRequest) Validate() error {

	if r.Image == "" && r.ImageTail == "" {
		return errors.NewError(400, consts.CODE_PARAM_INVALID, "at least one of image or image_tail must be provided")
	}

	if len(r.Prompt) > 2500 {
		return errors.NewError(400, consts.CODE_PARAM_INVALID, "prompt cannot exceed 2500 characters")
	}

	if len(r.NegativePrompt) > 2500 {
		return errors.NewError(400, consts.CODE_PARAM_INVALID, "negative_prompt cannot exceed 2500 characters")
	}

	if r.CfgScale != nil && (*r.CfgScale < 0 || *r.CfgScale > 1) {
		return errors.NewError(400, consts.CODE_PARAM_INVALID, "cfg_scale must be within [0, 1]")
	}

	if r.Mode != "" && r.Mode != "std" && r.Mode != "pro" {
		return errors.NewError(400, consts.CODE_PARAM_INVALID, "mode must be one of [std, pro]")
	}

	if r.Duration != "" && r.Duration != "5" && r.Duration != "10" {
		return errors.NewError(400, consts.CODE_PARAM_INVALID, "duration must be one of [5, 10]")
	}

	// 尾帧/笔刷能力仅支持5s时长
	if (r.ImageTail != "" || r.StaticMask != "" || len(r.DynamicMasks) > 0) && r.Duration == "10" {
		return errors.NewError(400, consts.CODE_PARAM_INVALID, "duration must be 5 when using image_tail, static_mask or dynamic_masks")
	}

	if len(r.DynamicMasks) > 6 {
		return errors.NewError(400, consts.CODE_PARAM_INVALID, "dynamic_masks cannot exceed 6 groups")
	}

	for _, dynamicMask := range r.DynamicMasks {

		if dynamicMask.Mask == "" {
			return errors.NewError(400, consts.CODE_PARAM_INVALID, "dynamic_masks.mask is required")
		}

		if len(dynamicMask.Trajectories) < 2 || len(dynamicMask.Trajectories) > 77 {
			return errors.NewError(400, consts.CODE_PARAM_INVALID, "dynamic_masks.trajectories must contain 2 to 77 points")
		}
	}

	if r.CameraControl != nil {
		if err := r.CameraControl.Validate(); err != nil {
			return err
		}
	}

	return nil
}

func (c *CameraControl) Validate() error {

	typeValid := false
	for _, cameraControlType := range cameraControlTypes {
		if c.Type == cameraControlType {
			typeValid = true
			break
		}
	}

	if !typeValid {
		return errors.NewError(400, consts.CODE_PARAM_INVALID, "camera_control.type is invalid")
	}

	if c.Type == "simple" {

		if c.Config == nil {
			return errors.NewError(400, consts.CODE_PARAM_INVALID, "camera_control.config is required when type is simple")
		}

		values := []float64{c.Config.Horizontal, c.Config.Vertical, c.Config.Pan, c.Config.Tilt, c.Config.Roll, c.Config.Zoom}

		nonZero := 0
		for _, value := range values {
			if value < -10 || value > 10 {
				return errors.NewError(400, consts.CODE_PARAM_INVALID, "camera_control.config values must be within [-10, 10]")
			}
			if value != 0 {
				nonZero++
			}
		}

		if nonZero != 1 {
			return errors.NewError(400, consts.CODE_PARAM_INVALID, "exactly one camera_control.config parameter must be non-zero")
		}

	} else if c.Config != nil {
		return errors.NewError(400, consts.CODE_PARAM_INVALID, "camera_control.config is only allowed when type is simple")
	}

	return nil
}
