package util

import (
	"io"
	"lms_backend/internal/model"
	"net/http"
	"path/filepath"
	"strings"
)

// DetectMimeType 读取文件头嗅探 MIME 类型，reader 需要调用方自行 Seek 回起点
func DetectMimeType(reader io.Reader) (string, error) {
	buffer := make([]byte, 512)
	n, err := reader.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}
	return http.DetectContentType(buffer[:n]), nil
}

// GuessContentType 根据 MIME 与扩展名推断内容项类型，供前端预填
func GuessContentType(mimeType, filename string) model.ContentType {
	switch {
	case strings.HasPrefix(mimeType, MimeVideo), mimeType == MimeHLS:
		return model.ContentVideo
	case mimeType == MimePDF:
		return model.ContentPDF
	case mimeType == MimeDOCX:
		return model.ContentDOCX
	}
	if ct, ok := contentTypeByExt[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return model.ContentOther
}
