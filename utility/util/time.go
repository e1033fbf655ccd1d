package util

import (
	"github.com/gogf/gf/v2/os/gtime"
)

// 格式化任务时间戳, 服务端返回Unix毫秒
func FormatDatetime(timestamp int64) string {
	return gtime.NewFromTimeStamp(timestamp).String()
}
