package service

import "strings"

// OperatorContext 发起写操作的管理员。鉴权在上游完成，这里只携带结果。
type OperatorContext struct {
	ID   string
	Role string
}

func (o OperatorContext) validate() error {
	if strings.TrimSpace(o.ID) == "" {
		return validationf("operator id is required")
	}
	return nil
}
