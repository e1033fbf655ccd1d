package model

import (
	"github.com/iimeta/kling/internal/consts"
	"github.com/iimeta/kling/internal/errors"
)

// 图片参考类型
const (
	ImageReferenceSubject = "subject" // 角色特征参考
	ImageReferenceFace    = "face"    // 人物长相参考
)

var aspectRatios = []string{"16:9", "9:16", "1:1", "4:3", "3:4", "3:2", "2:3", "21:9"}

// 图片生成请求参数, 文生图和图生图共用
type ImageGenerationRequest struct {
	ModelName      string   `json:"model_name,omitempty"`      // 模型名称
	Prompt         string   `json:"prompt"`                    // 正向文本提示词, 不超过500字符
	NegativePrompt string   `json:"negative_prompt,omitempty"` // 负向文本提示词, 不超过200字符, 图生图时不支持
	Image          string   `json:"image,omitempty"`           // 参考图像, 图片URL或Base64编码
	ImageReference string   `json:"image_reference,omitempty"` // 图片参考类型 [subject, face]
	ImageFidelity  *float64 `json:"image_fidelity,omitempty"`  // 图片参考强度 [0, 1]
	HumanFidelity  *float64 `json:"human_fidelity,omitempty"`  // 面部参考强度 [0, 1], 仅image_reference为face时生效
	N              int      `json:"n,omitempty"`               // 生成图片数量 [1, 9]
	AspectRatio    string   `json:"aspect_ratio,omitempty"`    // 生成图片的画面纵横比
	CallbackUrl    string   `json:"callback_url,omitempty"`    // 任务结果回调通知地址
}

// 校验请求字段约束, 不通过网络
func (r *ImageGenerationRequest) Validate() error {

	if r.Prompt == "" {
		return errors.NewError(400, consts.CODE_PARAM_INVALID, "prompt is required")
	}

	if len(r.Prompt) > 500 {
		return errors.NewError(400, consts.CODE_PARAM_INVALID, "prompt cannot exceed 500 characters")
	}

	if len(r.NegativePrompt) > 200 {
		return errors.NewError(400, consts.CODE_PARAM_INVALID, "negative_prompt cannot exceed 200 characters")
	}

	// 图生图不支持负向提示词
	if r.Image != "" && r.NegativePrompt != "" {
		return errors.NewError(400, consts.CODE_PARAM_INVALID, "negative_prompt is not supported in image-to-image generation")
	}

	if r.ImageReference != "" && r.ImageReference != ImageReferenceSubject && r.ImageReference != ImageReferenceFace {
		return errors.NewError(400, consts.CODE_PARAM_INVALID, "image_reference must be one of [subject, face]")
	}

	// kling-v1-5图生图时必须指定参考类型
	if r.ModelName == "kling-v1-5" && r.Image != "" && r.ImageReference == "" {
		return errors.NewError(400, consts.CODE_PARAM_INVALID, "image_reference is required when using kling-v1-5 model with an image")
	}

	if r.ImageFidelity != nil && (*r.ImageFidelity < 0 || *r.ImageFidelity > 1) {
		return errors.NewError(400, consts.CODE_PARAM_INVALID, "image_fidelity must be within [0, 1]")
	}

	if r.HumanFidelity != nil && (*r.HumanFidelity < 0 || *r.HumanFidelity > 1) {
		return errors.NewError(400, consts.CODE_PARAM_INVALID, "human_fidelity must be within [0, 1]")
	}

	if r.N < 0 || r.N > 9 {
		return errors.NewError(400, consts.CODE_PARAM_INVALID, "n must be within [1, 9]")
	}

	if r.AspectRatio != "" {

		valid := false
		for _, aspectRatio := range aspectRatios {
			if r.AspectRatio == aspectRatio {
				valid = true
				break
			}
		}

		if !valid {
			return errors.NewError(400, consts.CODE_PARAM_INVALID, "aspect_ratio is invalid")
		}
	}

	return nil
}
