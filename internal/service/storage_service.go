package service

import (
	"context"
	"fmt"
	"io"
	"lms_backend/internal/config"
	"lms_backend/internal/model"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// StorageProvider 定义通用存储接口
type StorageProvider interface {
	Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, filename string) error
	GetURL(filename string) string
}

// LocalStorageProvider 本地存储实现，文件放在对外提供静态服务的目录
type LocalStorageProvider struct {
	Config *config.StorageConfig
}

func (p *LocalStorageProvider) Path(filename string) string {
	return filepath.Join(p.Config.LocalPath, filename)
}

func (p *LocalStorageProvider) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	dst := p.Path(filename)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", err
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		os.Remove(dst)
		return "", err
	}

	return p.GetURL(filename), nil
}

func (p *LocalStorageProvider) Delete(ctx context.Context, filename string) error {
	return os.Remove(p.Path(filename))
}

func (p *LocalStorageProvider) GetURL(filename string) string {
	prefix := strings.TrimRight(p.Config.PublicPrefix, "/")
	if prefix == "" {
		prefix = "/uploads"
	}
	return prefix + "/" + filename
}

// MinioStorageProvider MinIO存储实现
type MinioStorageProvider struct {
	Config *config.StorageConfig
	Client *minio.Client
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioSecure,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Config: cfg, Client: client}, nil
}

func (p *MinioStorageProvider) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := p.Client.PutObject(ctx, p.Config.MinioBucket, filename, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return p.GetURL(filename), nil
}

func (p *MinioStorageProvider) Delete(ctx context.Context, filename string) error {
	return p.Client.RemoveObject(ctx, p.Config.MinioBucket, filename, minio.RemoveObjectOptions{})
}

func (p *MinioStorageProvider) GetURL(filename string) string {
	return "/" + p.Config.MinioBucket + "/" + filename
}

// OSSStorageProvider 阿里云OSS存储实现
type OSSStorageProvider struct {
	Config *config.StorageConfig
	Client *oss.Client
}

func NewOSSStorageProvider(cfg *config.StorageConfig) (*OSSStorageProvider, error) {
	client, err := oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey)
	if err != nil {
		return nil, err
	}
	return &OSSStorageProvider{Config: cfg, Client: client}, nil
}

func (p *OSSStorageProvider) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return "", err
	}

	if err := bucket.PutObject(filename, reader, oss.ContentType(contentType), oss.WithContext(ctx)); err != nil {
		return "", err
	}
	return p.GetURL(filename), nil
}

func (p *OSSStorageProvider) Delete(ctx context.Context, filename string) error {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return err
	}
	return bucket.DeleteObject(filename, oss.WithContext(ctx))
}

func (p *OSSStorageProvider) GetURL(filename string) string {
	return fmt.Sprintf("https://%s.%s/%s", p.Config.OSSBucket, p.Config.OSSEndpoint, filename)
}

// UploadResult 上传结果，Video 仅在开启探测且为本地视频时填充
type UploadResult struct {
	URL         string            `json:"url"`
	Filename    string            `json:"filename"`
	Size        int64             `json:"size"`
	MimeType    string            `json:"mimeType"`
	ContentType model.ContentType `json:"contentType"`
	Video       *util.VideoInfo   `json:"video,omitempty"`
}

// StorageService 存储服务
type StorageService struct {
	Provider StorageProvider
	Cfg      *config.StorageConfig
	now      func() time.Time
}

// NewStorageService 远端存储初始化失败时回退到本地存储
func NewStorageService(cfg *config.Config) *StorageService {
	var provider StorageProvider
	switch cfg.Storage.Type {
	case util.StorageMinio:
		p, err := NewMinioStorageProvider(&cfg.Storage)
		if err != nil {
			logger.Log.Error("Failed to init minio storage, falling back to local", zap.Error(err))
		} else {
			provider = p
		}
	case util.StorageOSS:
		p, err := NewOSSStorageProvider(&cfg.Storage)
		if err != nil {
			logger.Log.Error("Failed to init oss storage, falling back to local", zap.Error(err))
		} else {
			provider = p
		}
	}

	if provider == nil {
		provider = &LocalStorageProvider{Config: &cfg.Storage}
	}

	return &StorageService{Provider: provider, Cfg: &cfg.Storage, now: time.Now}
}

// StoredName 生成 {原文件名}-{毫秒时间戳}-{uuid}{扩展名}
func StoredName(original string, now time.Time) string {
	base := filepath.Base(original)
	ext := strings.ToLower(filepath.Ext(base))
	name := strings.TrimSuffix(base, filepath.Ext(base))

	name = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, name)
	if name == "" || strings.Trim(name, "_") == "" {
		name = "file"
	}
	return fmt.Sprintf("%s-%d-%s%s", name, now.UnixMilli(), uuid.New().String(), ext)
}

func (s *StorageService) maxBytes() int64 {
	if s.Cfg == nil || s.Cfg.MaxUploadMB <= 0 {
		return 200 << 20
	}
	return s.Cfg.MaxUploadMB << 20
}

// Store 保存上传文件，只有 TEACHER/ADMIN 可以上传
func (s *StorageService) Store(ctx context.Context, identity *model.Identity, header *multipart.FileHeader) (*UploadResult, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	if !canAuthor(identity) {
		return nil, util.ErrForbidden
	}
	if header == nil {
		return nil, util.NewValidationError("file is required")
	}
	if header.Size == 0 {
		return nil, util.NewValidationError("file is empty")
	}
	if header.Size > s.maxBytes() {
		return nil, util.NewValidationError(fmt.Sprintf("file exceeds the %d MB limit", s.maxBytes()>>20))
	}

	file, err := header.Open()
	if err != nil {
		return nil, errors.Wrap(err, "open upload")
	}
	defer file.Close()

	mimeType, err := util.DetectMimeType(file)
	if err != nil {
		return nil, errors.Wrap(err, "detect mime type")
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "rewind upload")
	}

	filename := StoredName(header.Filename, s.now())
	url, err := s.Provider.Upload(ctx, filename, file, header.Size, mimeType)
	if err != nil {
		return nil, errors.Wrap(err, "store upload")
	}

	result := &UploadResult{
		URL:         url,
		Filename:    filename,
		Size:        header.Size,
		MimeType:    mimeType,
		ContentType: util.GuessContentType(mimeType, header.Filename),
	}

	if local, ok := s.Provider.(*LocalStorageProvider); ok && s.Cfg.ProbeVideos && result.ContentType == model.ContentVideo {
		info, err := util.ProbeVideo(local.Path(filename))
		if err != nil {
			logger.Log.Warn("Video probe failed", zap.String("file", filename), zap.Error(err))
		} else {
			result.Video = info
		}
	}

	logger.Log.Info("File uploaded",
		zap.String("user_id", identity.UserID),
		zap.String("file", filename),
		zap.Int64("size", header.Size),
		zap.String("mime", mimeType),
	)
	return result, nil
}

func (s *StorageService) Delete(ctx context.Context, filename string) error {
	return s.Provider.Delete(ctx, filename)
}
