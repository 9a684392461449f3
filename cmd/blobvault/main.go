// Package main 启动应用程序
package main

import "github.com/yeisme/blobvault/pkg/cmd"

//	@title			BlobVault API
//	@version		1.0
//	@description	BlobVault 是一个内容寻址的文件保管服务，提供去重存储、用户配额与文件管理接口。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

func main() {
	if err := cmd.Execute(); err != nil {
		panic(err)
	}
}
