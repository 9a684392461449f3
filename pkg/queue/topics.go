// Package queue 定义消息主题常量与通配模式，供发布/订阅使用.
package queue

// 主题命名规范：bv.<域>.<动作>，尽量稳定且向后兼容.
// 域：file(用户文件目录)、blob(物理内容寻址对象)、quota(配额)
// 动作：uploaded/deleted/created/released/exceeded 等完成态动词

const (
	// 文件目录领域.
	TopicFileUploaded = "bv.file.uploaded" // 文件记录已落库（含去重结果与引用的 blob）
	TopicFileDeleted  = "bv.file.deleted"  // 文件记录已删除（含释放的配额字节数）

	// 物理 blob 领域.
	TopicBlobCreated  = "bv.blob.created"  // 新的物理对象首次写入（引用数 0->1）
	TopicBlobReleased = "bv.blob.released" // 物理对象引用归零并被移除

	// 配额领域.
	TopicQuotaExceeded = "bv.quota.exceeded" // 上传因配额不足被拒绝
)

// 主题分组，用于批量操作或权限控制.
var (
	// 文件相关主题集合.
	FileTopics = []string{
		TopicFileUploaded, TopicFileDeleted,
	}

	// 物理 blob 相关主题集合.
	BlobTopics = []string{
		TopicBlobCreated, TopicBlobReleased,
	}

	// 配额相关主题集合.
	QuotaTopics = []string{
		TopicQuotaExceeded,
	}
)
