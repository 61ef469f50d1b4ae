// pkg/database/template.go
package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"NotifyHub/pkg/errno"
	"NotifyHub/pkg/model"
)

type TemplateDB struct {
	db *gorm.DB
}

func (p *Postgres) Template() *TemplateDB {
	return &TemplateDB{db: p.db}
}

func (t *TemplateDB) CreateTemplate(ctx context.Context, template *model.NotificationTemplate) error {
	// 模板标识全局唯一
	var count int64
	err := t.db.WithContext(ctx).Model(&model.NotificationTemplate{}).
		Where("template_key = ?", template.TemplateKey).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("检查模板标识失败: %w", err)
	}
	if count > 0 {
		return errno.ErrTemplateKeyExists
	}

	if err := t.db.WithContext(ctx).Create(template).Error; err != nil {
		return fmt.Errorf("创建模板失败: %w", err)
	}
	return nil
}

func (t *TemplateDB) GetTemplate(ctx context.Context, id string) (*model.NotificationTemplate, error) {
	var template model.NotificationTemplate
	err := t.db.WithContext(ctx).First(&template, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errno.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("获取模板失败: %w", err)
	}
	return &template, nil
}

func (t *TemplateDB) UpdateTemplate(ctx context.Context, template *model.NotificationTemplate) error {
	if err := t.db.WithContext(ctx).Save(template).Error; err != nil {
		return fmt.Errorf("更新模板失败: %w", err)
	}
	return nil
}

// DeleteTemplate 删除模板，已经用于发送的模板不允许删除
func (t *TemplateDB) DeleteTemplate(ctx context.Context, id string) error {
	template, err := t.GetTemplate(ctx, id)
	if err != nil {
		return err
	}
	if template.SentTimes > 0 {
		return errno.ErrTemplateInUse
	}

	if err := t.db.WithContext(ctx).Delete(&model.NotificationTemplate{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("删除模板失败: %w", err)
	}
	return nil
}

// IncrementSentTimes 模板使用次数加一
func (t *TemplateDB) IncrementSentTimes(ctx context.Context, id string) error {
	err := t.db.WithContext(ctx).Model(&model.NotificationTemplate{}).
		Where("id = ?", id).
		Update("sent_times", gorm.Expr("sent_times + 1")).Error
	if err != nil {
		return fmt.Errorf("更新模板使用次数失败: %w", err)
	}
	return nil
}

// ListTemplates 按条件查询模板
func (t *TemplateDB) ListTemplates(
	ctx context.Context,
	templateType model.TemplateType,
	search string,
	limit, offset int,
) ([]*model.NotificationTemplate, int64, error) {
	query := t.db.WithContext(ctx).Model(&model.NotificationTemplate{})
	if templateType != "" {
		query = query.Where("type = ?", templateType)
	}
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("template_name ILIKE ? OR template_key ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计模板失败: %w", err)
	}

	var templates []*model.NotificationTemplate
	err := query.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&templates).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询模板失败: %w", err)
	}
	return templates, total, nil
}
