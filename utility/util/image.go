package util

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/os/gfile"
	"github.com/gogf/gf/v2/text/gstr"
	"github.com/iimeta/kling/internal/errors"
	"github.com/iimeta/kling/utility/logger"
)

const downloadTimeout = 30 * time.Second

// 读取本地图片文件并编码为Base64, 不带前缀
func EncodeImageToBase64(path string) (string, error) {

	if !gfile.Exists(path) {
		return "", errors.Newf("image file not found: %s", path)
	}

	data := gfile.GetBytes(path)
	if len(data) == 0 {
		return "", errors.Newf("failed to read image file: %s", path)
	}

	return base64.StdEncoding.EncodeToString(data), nil
}

// 下载生成结果文件到本地
func DownloadFile(ctx context.Context, fileURL, path string) error {

	logger.Debugf(ctx, "DownloadFile fileURL: %s, path: %s", fileURL, path)

	data, err := fetch(ctx, fileURL)
	if err != nil {
		return err
	}

	if err = gfile.PutBytes(path, data); err != nil {
		logger.Error(ctx, err)
		return err
	}

	return nil
}

// 下载远端图片并编码为Base64
func UrlToBase64(ctx context.Context, imageURL string) (string, error) {

	logger.Debugf(ctx, "UrlToBase64 imageURL: %s", imageURL)

	data, err := fetchImage(ctx, imageURL)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(data), nil
}

func fetch(ctx context.Context, fileURL string) ([]byte, error) {

	response, err := g.Client().Timeout(downloadTimeout).Get(ctx, fileURL)
	if err != nil {
		logger.Error(ctx, err)
		return nil, err
	}

	defer func() {
		if err := response.Close(); err != nil {
			logger.Error(ctx, err)
		}
	}()

	if response.StatusCode != 200 {
		return nil, errors.Newf("failed to download file: %s, status: %d", fileURL, response.StatusCode)
	}

	return response.ReadAll(), nil
}

func fetchImage(ctx context.Context, imageURL string) ([]byte, error) {

	response, err := g.Client().Timeout(downloadTimeout).Get(ctx, imageURL)
	if err != nil {
		logger.Error(ctx, err)
		return nil, err
	}

	defer func() {
		if err := response.Close(); err != nil {
			logger.Error(ctx, err)
		}
	}()

	if response.StatusCode != 200 {
		return nil, errors.Newf("failed to download image: %s, status: %d", imageURL, response.StatusCode)
	}

	if contentType := response.Header.Get("Content-Type"); contentType != "" && !gstr.HasPrefix(contentType, "image/") {
		return nil, errors.Newf("url does not point to an image: %s", contentType)
	}

	return response.ReadAll(), nil
}
