package middleware

import (
	"strings"

	"github.com/haierkeys/fast-note-service/pkg/app"
	"github.com/haierkeys/fast-note-service/pkg/code"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// normalizeLang maps "zh-CN", "zh" and friends to the message keys of pkg/code.
func normalizeLang(s string) string {
	s = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	if i := strings.IndexByte(s, ','); i != -1 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, ';'); i != -1 {
		s = s[:i]
	}
	switch {
	case s == "":
		return code.FALLBACK_LNG
	case strings.HasPrefix(s, "zh"):
		return "zh_cn"
	case strings.HasPrefix(s, "en"):
		return "en"
	}
	return code.FALLBACK_LNG
}

// Lang picks the response language from ?lang=, the lang header or Accept-Language,
// and the matching validator translator.
// Lang 语言中间件（支持依赖注入）
func Lang(uni *ut.UniversalTranslator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var raw string
		if s, exist := c.GetQuery("lang"); exist {
			raw = s
		} else if s = c.GetHeader("lang"); s != "" {
			raw = s
		} else {
			raw = c.GetHeader("Accept-Language")
		}

		lang := normalizeLang(raw)
		c.Set(app.LangKey, lang)

		if uni != nil {
			locale := "en"
			if lang == "zh_cn" {
				locale = "zh"
			}
			if trans, found := uni.GetTranslator(locale); found {
				c.Set(app.TransKey, trans)
			}
		}

		c.Next()
	}
}

// GetLangFromGin 从 gin.Context 获取语言
func GetLangFromGin(c *gin.Context) string {
	if c == nil {
		return code.FALLBACK_LNG
	}
	if lang := c.GetString(app.LangKey); lang != "" {
		return lang
	}
	return code.FALLBACK_LNG
}
