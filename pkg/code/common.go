package code

import "net/http"

var (
	Success = NewSuss(1, http.StatusOK, lang{en: "Success", zh_cn: "成功"})
	Created = NewSuss(2, http.StatusCreated, lang{en: "Created", zh_cn: "创建成功"})

	SuccessNoteDeleted   = NewSuss(10, http.StatusOK, lang{en: "Note deleted successfully", zh_cn: "笔记删除成功"})
	SuccessFolderDeleted = NewSuss(11, http.StatusOK, lang{en: "Folder deleted successfully", zh_cn: "文件夹删除成功"})
	SuccessTagDeleted    = NewSuss(12, http.StatusOK, lang{en: "Tag deleted successfully", zh_cn: "标签删除成功"})
)

// 通用错误
var (
	ErrorServerInternal  = NewError(500, http.StatusInternalServerError, lang{en: "Internal Server Error", zh_cn: "服务器内部错误"})
	ErrorInvalidParams   = NewError(400, http.StatusBadRequest, lang{en: "Invalid parameters", zh_cn: "参数错误"})
	ErrorNotFoundAPI     = NewError(404, http.StatusNotFound, lang{en: "API not found", zh_cn: "接口不存在"})
	ErrorTooManyRequests = NewError(429, http.StatusTooManyRequests, lang{en: "Too many requests, please try again later", zh_cn: "请求过多，请稍后再试"})
	ErrorDBQuery         = NewError(5001, http.StatusInternalServerError, lang{en: "Database query failed", zh_cn: "数据库查询失败"})
	ErrorDBWrite         = NewError(5002, http.StatusInternalServerError, lang{en: "Database write failed", zh_cn: "数据库写入失败"})
	ErrorServerBusy      = NewError(5003, http.StatusServiceUnavailable, lang{en: "Server is busy, please try again later", zh_cn: "服务繁忙，请稍后再试"})
)

// 认证
var (
	ErrorNotUserAuthToken     = NewError(1001, http.StatusUnauthorized, lang{en: "No token provided, authorization denied", zh_cn: "未提供令牌，拒绝访问"})
	ErrorInvalidUserAuthToken = NewError(1002, http.StatusUnauthorized, lang{en: "Token is not valid", zh_cn: "令牌无效"})
	ErrorTokenGenerate        = NewError(1003, http.StatusInternalServerError, lang{en: "Failed to generate token", zh_cn: "令牌生成失败"})
)

// 用户
var (
	ErrorUserAlreadyExists      = NewError(2001, http.StatusConflict, lang{en: "User already exists", zh_cn: "用户已存在"})
	ErrorUserNotFound           = NewError(2002, http.StatusNotFound, lang{en: "User not found", zh_cn: "用户不存在"})
	ErrorUserInvalidCredentials = NewError(2003, http.StatusBadRequest, lang{en: "Invalid credentials", zh_cn: "账号或密码错误"})
	ErrorUserRegisterIsDisable  = NewError(2004, http.StatusForbidden, lang{en: "Registration is disabled", zh_cn: "注册已关闭"})
	ErrorPasswordNotValid       = NewError(2005, http.StatusBadRequest, lang{en: "Password is not valid", zh_cn: "密码不合法"})
	ErrorUserRegister           = NewError(2006, http.StatusInternalServerError, lang{en: "Registration failed", zh_cn: "注册失败"})
)

// 笔记
var (
	ErrorNoteNotFound         = NewError(3001, http.StatusNotFound, lang{en: "Note not found", zh_cn: "笔记不存在"})
	ErrorNoteRevisionConflict = NewError(3002, http.StatusConflict, lang{en: "Note was modified concurrently", zh_cn: "笔记已被并发修改"})
	ErrorExportUnsupported    = NewError(3003, http.StatusBadRequest, lang{en: "Unsupported export format", zh_cn: "不支持的导出格式"})
	ErrorExportNotImplemented = NewError(3004, http.StatusNotImplemented, lang{en: "PDF export not implemented yet", zh_cn: "PDF 导出尚未实现"})
)

// 文件夹 / 标签
var (
	ErrorFolderNotFound   = NewError(4001, http.StatusNotFound, lang{en: "Folder not found", zh_cn: "文件夹不存在"})
	ErrorTagNotFound      = NewError(4101, http.StatusNotFound, lang{en: "Tag not found", zh_cn: "标签不存在"})
	ErrorTagAlreadyExists = NewError(4102, http.StatusConflict, lang{en: "Tag with this name already exists", zh_cn: "同名标签已存在"})
)
