package util

import "lms_backend/internal/model"

// storage.type 的取值
const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 上传时嗅探到的 MIME
const (
	MimeVideo       = "video/"
	MimeHLS         = "application/x-mpegURL"
	MimePDF         = "application/pdf"
	MimeDOCX        = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeZip         = "application/zip"
	MimeOctetStream = "application/octet-stream"
)

// MIME 无法判断时按扩展名兜底；docx 的文件头会被嗅探成 zip
var contentTypeByExt = map[string]model.ContentType{
	".mp4":  model.ContentVideo,
	".mov":  model.ContentVideo,
	".avi":  model.ContentVideo,
	".mkv":  model.ContentVideo,
	".wmv":  model.ContentVideo,
	".flv":  model.ContentVideo,
	".webm": model.ContentVideo,
	".m3u8": model.ContentVideo,
	".pdf":  model.ContentPDF,
	".docx": model.ContentDOCX,
}
