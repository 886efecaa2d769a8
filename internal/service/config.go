// Package service implements the business logic layer
// Package service 实现业务逻辑层
package service

const (
	NotifyScopeAll   = "all"
	NotifyScopeOwner = "owner"
)

// ServiceConfig 服务层配置
type ServiceConfig struct {
	User UserServiceConfig
	Note NoteServiceConfig
}

// UserServiceConfig 用户服务配置
type UserServiceConfig struct {
	RegisterIsEnable bool // 注册是否启用
}

// NoteServiceConfig 笔记服务配置
type NoteServiceConfig struct {
	// StrictRevision switches updates to compare-and-swap on the note revision.
	StrictRevision bool
	// HistoryDiff allows ?diff=true on the history endpoint.
	HistoryDiff bool
}
