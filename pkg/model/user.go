// pkg/model/user.go
package model

// UserProfile 用户目录返回的公开资料
//
// 通知服务不维护用户表，资料全部来自外部用户目录服务。
type UserProfile struct {
	ID             string `json:"id"`
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	ChatHandle     string `json:"chat_handle"`
	IdentifierCode string `json:"identifier_code"`
}

// SystemUserID 系统用户ID，未提供发送者时使用
const SystemUserID = "00000000-0000-0000-0000-000000000000"
