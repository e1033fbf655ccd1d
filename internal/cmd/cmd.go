package cmd

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gogf/gf/v2/encoding/gjson"
	"github.com/gogf/gf/v2/os/gcmd"
	"github.com/gogf/gf/v2/os/grpool"
	"github.com/gogf/gf/v2/text/gstr"
	"github.com/iimeta/kling/internal/client"
	"github.com/iimeta/kling/internal/config"
	"github.com/iimeta/kling/internal/consts"
	"github.com/iimeta/kling/internal/model"
	"github.com/iimeta/kling/utility/logger"
	"github.com/iimeta/kling/utility/util"
)

var (
	Main = gcmd.Command{
		Name:  "kling",
		Usage: "kling COMMAND [OPTION]",
		Brief: "Kling AI generative task client",
	}

	I2V = gcmd.Command{
		Name:  "i2v",
		Usage: "kling i2v [OPTION]",
		Brief: "create an image-to-video task and wait for the result",
		Func:  runI2V,
		Arguments: append([]gcmd.Argument{
			{Name: "model", Brief: "model name"},
			{Name: "image", Brief: "image url or base64"},
			{Name: "image-file", Brief: "local image file or url, encoded to base64 before submit"},
			{Name: "image-tail", Brief: "tail frame image url or base64"},
			{Name: "prompt", Brief: "positive prompt"},
			{Name: "negative-prompt", Brief: "negative prompt"},
			{Name: "mode", Brief: "generation mode [std, pro]"},
			{Name: "duration", Brief: "video duration in seconds [5, 10]"},
			{Name: "external-id", Brief: "client-defined task id"},
			{Name: "output", Brief: "path to save the generated video"},
			{Name: "no-wait", Orphan: true, Brief: "submit only, do not poll for completion"},
		}, waitArguments...),
	}

	Image = gcmd.Command{
		Name:  "image",
		Usage: "kling image [OPTION]",
		Brief: "create an image generation task and wait for the result",
		Func:  runImage,
		Arguments: append([]gcmd.Argument{
			{Name: "model", Brief: "model name"},
			{Name: "prompt", Brief: "positive prompt"},
			{Name: "negative-prompt", Brief: "negative prompt"},
			{Name: "image", Brief: "reference image url or base64"},
			{Name: "image-file", Brief: "local reference image file or url"},
			{Name: "image-reference", Brief: "image reference type [subject, face]"},
			{Name: "n", Brief: "number of images to generate [1, 9]"},
			{Name: "aspect-ratio", Brief: "aspect ratio of the generated images"},
			{Name: "output-dir", Brief: "directory to save the generated images"},
			{Name: "no-wait", Orphan: true, Brief: "submit only, do not poll for completion"},
		}, waitArguments...),
	}

	Task = gcmd.Command{
		Name:  "task",
		Usage: "kling task [OPTION]",
		Brief: "query a task by id/external id or list tasks",
		Func:  runTask,
		Arguments: []gcmd.Argument{
			{Name: "kind", Brief: "task kind [image2video, image_generation]"},
			{Name: "id", Brief: "task id"},
			{Name: "external-id", Brief: "client-defined task id"},
			{Name: "page", Brief: "page number, starts from 1"},
			{Name: "size", Brief: "page size [1, 500]"},
		},
	}

	Wait = gcmd.Command{
		Name:  "wait",
		Usage: "kling wait [OPTION]",
		Brief: "wait for one or more task ids to reach a terminal state",
		Func:  runWait,
		Arguments: append([]gcmd.Argument{
			{Name: "kind", Brief: "task kind [image2video, image_generation]"},
			{Name: "id", Brief: "task ids, comma separated"},
		}, waitArguments...),
	}

	waitArguments = []gcmd.Argument{
		{Name: "interval", Brief: "poll interval in seconds"},
		{Name: "timeout", Brief: "overall wait deadline in seconds"},
	}
)

func init() {
	if err := Main.AddCommand(&I2V, &Image, &Task, &Wait); err != nil {
		panic(err)
	}
}

func newClient() (*client.Client, error) {
	return client.New(config.Cfg.Kling)
}

func runI2V(ctx context.Context, parser *gcmd.Parser) error {

	c, err := newClient()
	if err != nil {
		return err
	}

	request := &model.ImageToVideoRequest{
		ModelName:      parser.GetOpt("model", consts.DEFAULT_MODEL).String(),
		Image:          parser.GetOpt("image", "").String(),
		ImageTail:      parser.GetOpt("image-tail", "").String(),
		Prompt:         parser.GetOpt("prompt", "").String(),
		NegativePrompt: parser.GetOpt("negative-prompt", "").String(),
		Mode:           parser.GetOpt("mode", "std").String(),
		Duration:       parser.GetOpt("duration", "5").String(),
		ExternalTaskId: parser.GetOpt("external-id", "").String(),
	}

	if imagePath := parser.GetOpt("image-file", "").String(); imagePath != "" {
		image, err := resolveImage(ctx, imagePath)
		if err != nil {
			return err
		}
		request.Image = image
	}

	if request.ExternalTaskId == "" {
		request.ExternalTaskId = util.NewExternalTaskId("i2v")
	}

	record, err := c.CreateImageToVideoTask(ctx, request)
	if err != nil {
		return err
	}

	logger.Infof(ctx, "task created, taskId: %s, externalTaskId: %s, status: %s", record.TaskId, request.ExternalTaskId, record.TaskStatus)

	if parser.GetOpt("no-wait", false).Bool() {
		fmt.Println(gjson.MustEncodeString(record))
		return nil
	}

	result, err := c.WaitForTask(ctx, consts.TASK_KIND_IMAGE2VIDEO, record.TaskId, waitOptions(parser))
	if err != nil {
		return err
	}

	return printWaitResult(ctx, parser, result)
}

func runImage(ctx context.Context, parser *gcmd.Parser) error {

	c, err := newClient()
	if err != nil {
		return err
	}

	request := &model.ImageGenerationRequest{
		ModelName:      parser.GetOpt("model", consts.DEFAULT_MODEL).String(),
		Prompt:         parser.GetOpt("prompt", "").String(),
		NegativePrompt: parser.GetOpt("negative-prompt", "").String(),
		Image:          parser.GetOpt("image", "").String(),
		ImageReference: parser.GetOpt("image-reference", "").String(),
		N:              parser.GetOpt("n", 1).Int(),
		AspectRatio:    parser.GetOpt("aspect-ratio", "16:9").String(),
	}

	if imagePath := parser.GetOpt("image-file", "").String(); imagePath != "" {
		image, err := resolveImage(ctx, imagePath)
		if err != nil {
			return err
		}
		request.Image = image
	}

	record, err := c.CreateImageGenerationTask(ctx, request)
	if err != nil {
		return err
	}

	logger.Infof(ctx, "task created, taskId: %s, status: %s", record.TaskId, record.TaskStatus)

	if parser.GetOpt("no-wait", false).Bool() {
		fmt.Println(gjson.MustEncodeString(record))
		return nil
	}

	result, err := c.WaitForTask(ctx, consts.TASK_KIND_IMAGE_GENERATION, record.TaskId, waitOptions(parser))
	if err != nil {
		return err
	}

	return printWaitResult(ctx, parser, result)
}

func runTask(ctx context.Context, parser *gcmd.Parser) error {

	c, err := newClient()
	if err != nil {
		return err
	}

	kind := parser.GetOpt("kind", consts.TASK_KIND_IMAGE2VIDEO).String()

	if taskId := parser.GetOpt("id", "").String(); taskId != "" {

		record, err := c.GetTaskById(ctx, kind, taskId)
		if err != nil {
			return err
		}

		fmt.Println(gjson.MustEncodeString(record))
		return nil
	}

	if externalTaskId := parser.GetOpt("external-id", "").String(); externalTaskId != "" {

		record, err := c.GetTaskByExternalId(ctx, kind, externalTaskId)
		if err != nil {
			return err
		}

		fmt.Println(gjson.MustEncodeString(record))
		return nil
	}

	records, err := c.ListTasks(ctx, kind, parser.GetOpt("page", 1).Int(), parser.GetOpt("size", 30).Int())
	if err != nil {
		return err
	}

	for _, record := range records {
		fmt.Println(gjson.MustEncodeString(record))
	}

	return nil
}

// 多个任务Id并发等待, 各任务的轮询相互独立
func runWait(ctx context.Context, parser *gcmd.Parser) error {

	c, err := newClient()
	if err != nil {
		return err
	}

	kind := parser.GetOpt("kind", consts.TASK_KIND_IMAGE2VIDEO).String()

	taskIds := gstr.SplitAndTrim(parser.GetOpt("id", "").String(), ",")
	if len(taskIds) == 0 {
		return fmt.Errorf("at least one task id is required")
	}

	var (
		pool = grpool.New(len(taskIds))
		wg   sync.WaitGroup
	)

	for _, taskId := range taskIds {

		wg.Add(1)

		taskId := taskId
		if err := pool.Add(ctx, func(ctx context.Context) {

			defer wg.Done()

			result, err := c.WaitForTask(ctx, kind, taskId, waitOptions(parser))
			if err != nil {
				logger.Errorf(ctx, "wait taskId: %s, error: %v", taskId, err)
				return
			}

			fmt.Printf("taskId: %s, outcome: %s\n", taskId, result.Outcome)
			if result.Task != nil {
				fmt.Println(gjson.MustEncodeString(result.Task))
			}

		}); err != nil {
			wg.Done()
			logger.Error(ctx, err)
		}
	}

	wg.Wait()

	return nil
}

// 本地文件或远程URL统一转为Base64
func resolveImage(ctx context.Context, path string) (string, error) {

	if gstr.HasPrefix(path, "http://") || gstr.HasPrefix(path, "https://") {
		return util.UrlToBase64(ctx, path)
	}

	return util.EncodeImageToBase64(path)
}

func waitOptions(parser *gcmd.Parser) client.WaitOptions {
	return client.WaitOptions{
		Interval: time.Duration(parser.GetOpt("interval", 5).Int()) * time.Second,
		Timeout:  time.Duration(parser.GetOpt("timeout", 300).Int()) * time.Second,
	}
}

func printWaitResult(ctx context.Context, parser *gcmd.Parser, result *client.WaitResult) error {

	switch result.Outcome {
	case client.WaitSucceeded:

		task := result.Task

		logger.Infof(ctx, "task %s succeed, created: %s, updated: %s", task.TaskId, util.FormatDatetime(task.CreatedAt), util.FormatDatetime(task.UpdatedAt))

		if task.TaskResult != nil {

			for _, video := range task.TaskResult.Videos {
				fmt.Printf("video id: %s, duration: %ss, url: %s\n", video.Id, video.Duration, video.Url)
				if output := parser.GetOpt("output", "").String(); output != "" {
					if err := util.DownloadFile(ctx, video.Url, output); err != nil {
						return err
					}
					logger.Infof(ctx, "video saved to %s", output)
				}
			}

			for _, image := range task.TaskResult.Images {
				fmt.Printf("image index: %d, url: %s\n", image.Index, image.Url)
				if outputDir := parser.GetOpt("output-dir", "").String(); outputDir != "" {
					path := fmt.Sprintf("%s/%s_%d.png", outputDir, task.TaskId, image.Index)
					if err := util.DownloadFile(ctx, image.Url, path); err != nil {
						return err
					}
					logger.Infof(ctx, "image saved to %s", path)
				}
			}
		}

		return nil

	case client.WaitFailed:
		return fmt.Errorf("task %s failed: %s", result.Task.TaskId, result.Task.TaskStatusMsg)

	case client.WaitTimeout:
		return fmt.Errorf("task did not complete before the deadline")

	default:
		return fmt.Errorf("wait cancelled")
	}
}
