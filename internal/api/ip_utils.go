package api

import (
	"net/http"
	"strings"
)

// 文档注释：获取访问来源 IP（用于访客去重统计）
// 背景：多层代理环境下优先常见反向代理头，最后回退远端地址；仅用于统计口径，不参与鉴权。
// 约束：头部存在伪造风险；部署于未经信任的代理链路需配合网关过滤。
func getClientIP(r *http.Request) string {
	h := r.Header
	if x := h.Get("x-forwarded-for"); x != "" {
		return strings.TrimSpace(strings.Split(x, ",")[0])
	}
	if x := h.Get("x-real-ip"); x != "" {
		return x
	}
	host := r.RemoteAddr
	if host != "" {
		if i := strings.LastIndex(host, ":"); i > 0 {
			return host[:i]
		}
		return host
	}
	return ""
}
