// pkg/repository/directory.go
package repository

import (
	"context"
	"strings"
	"sync"

	"NotifyHub/pkg/errno"
	"NotifyHub/pkg/model"
)

// containsFold 不区分大小写的包含判断
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// StaticDirectory 内存用户目录，用于本地开发和测试
type StaticDirectory struct {
	profiles map[string]*model.UserProfile
	mutex    sync.RWMutex
}

// NewStaticDirectory 创建内存用户目录
func NewStaticDirectory() *StaticDirectory {
	return &StaticDirectory{
		profiles: make(map[string]*model.UserProfile),
	}
}

// Put 写入用户资料
func (d *StaticDirectory) Put(profile *model.UserProfile) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	clone := *profile
	d.profiles[profile.ID] = &clone
}

// Resolve 解析用户资料，未知用户返回未找到
func (d *StaticDirectory) Resolve(ctx context.Context, userID string) (*model.UserProfile, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	profile, ok := d.profiles[userID]
	if !ok {
		return nil, errno.ErrRecipientNotFound
	}
	clone := *profile
	return &clone, nil
}
