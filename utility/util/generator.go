package util

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/gogf/gf/v2/os/gtime"
)

var node *snowflake.Node

func init() {

	var err error
	node, err = snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
}

func GenerateId() string {
	return node.Generate().String()
}

// 生成默认的客户自定义任务Id, 单账户下需唯一
func NewExternalTaskId(prefix string) string {

	if prefix == "" {
		return GenerateId()
	}

	return fmt.Sprintf("%s_%s_%d", prefix, GenerateId(), gtime.Timestamp())
}
