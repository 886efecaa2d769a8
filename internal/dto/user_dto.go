// Package dto Defines data transfer objects (request parameters and response structs)
// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

import "time"

// UserSignupRequest 注册请求参数
type UserSignupRequest struct {
	Username string `json:"username" form:"username" binding:"required,max=191"`
	Email    string `json:"email" form:"email" binding:"required,email,max=191"`
	Password string `json:"password" form:"password" binding:"required,min=6,max=72"`
}

// UserLoginRequest 登录请求参数
type UserLoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

// UserDTO user without credentials
// UserDTO 用户信息，不含密码
type UserDTO struct {
	UID       int64     `json:"uid"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AuthDTO 注册/登录返回的令牌
type AuthDTO struct {
	Token string   `json:"token"`
	User  *UserDTO `json:"user"`
}
