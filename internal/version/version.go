// 包 version：构建版本标识，供日志与对外请求头使用
package version

// Version：发布版本号；构建时通过 -ldflags "-X voter-geo/internal/version.Version=..." 覆盖
var Version = "dev"
