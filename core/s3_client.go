package core

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"farshore.ai/comfy-ws-client/model"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Client struct {
	Client *minio.Client
	Config model.S3Config
}

// NewS3Client 创建一个新的 S3 客户端实例
func NewS3Client(cfg model.S3Config) (*S3Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("连接 S3 失败: %w", err)
	}

	s3 := &S3Client{
		Client: client,
		Config: cfg,
	}

	// 确保桶存在并设置策略
	if err := s3.ensureBucket(); err != nil {
		return nil, err
	}

	return s3, nil
}

// ensureBucket 检查桶是否存在，不存在则创建并设置为公有
func (s *S3Client) ensureBucket() error {
	ctx := context.Background()
	found, err := s.Client.BucketExists(ctx, s.Config.Bucket)
	if err != nil {
		return fmt.Errorf("检查桶失败: %w", err)
	}

	if !found {
		if err := s.Client.MakeBucket(ctx, s.Config.Bucket, minio.MakeBucketOptions{Region: s.Config.Region}); err != nil {
			return fmt.Errorf("创建桶失败: %w", err)
		}
	}

	// 设置桶为公有（MinIO / S3 通用）
	policy := fmt.Sprintf(`{
	  "Version": "2012-10-17",
	  "Statement": [
	    {
	      "Effect": "Allow",
	      "Principal": {"AWS": ["*"]},
	      "Action": ["s3:GetObject"],
	      "Resource": ["arn:aws:s3:::%s/*"]
	    }
	  ]
	}`, s.Config.Bucket)

	if err := s.Client.SetBucketPolicy(ctx, s.Config.Bucket, policy); err != nil {
		// 某些 S3 兼容服务（如 Cloudflare R2）不支持 SetBucketPolicy
		LogOutput("⚠️ 设置桶策略失败（可忽略）: %v", err)
	}

	return nil
}

// UploadOutputFile 上传生成结果到 output 目录（自动识别 content-type），返回公有 URL
func (s *S3Client) UploadOutputFile(ctx context.Context, filePath string) (string, error) {
	LogOutput("⏫ 正在向 S3 上传文件: %s", filePath)

	filename := filepath.Base(filePath)
	objectName := fmt.Sprintf("%s/%s", strings.TrimSuffix(s.Config.OutputPrefix, "/"), filename)

	// 自动识别 content-type
	contentType := detectContentType(filePath)

	_, err := s.Client.FPutObject(ctx, s.Config.Bucket, objectName, filePath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("上传文件失败: %w", err)
	}

	LogOutput("✅ 上传文件成功: %s", objectName)

	// 返回公开 URL
	return s.BuildPublicURL(objectName), nil
}

// UploadOutputFiles 批量上传生成结果，返回公有 URL 列表
func (s *S3Client) UploadOutputFiles(ctx context.Context, filePaths []string) ([]string, error) {
	urls := make([]string, 0, len(filePaths))
	for _, filePath := range filePaths {
		u, err := s.UploadOutputFile(ctx, filePath)
		if err != nil {
			return urls, err
		}
		urls = append(urls, u)
	}
	return urls, nil
}

// 辅助函数 detectContentType 自动识别文件类型
func detectContentType(filePath string) string {
	ext := filepath.Ext(filePath)
	if ext != "" {
		if mimeType := mime.TypeByExtension(ext); mimeType != "" {
			return mimeType
		}
	}

	// 如果扩展名无法识别，再尝试读取文件头
	f, err := os.Open(filePath)
	if err != nil {
		return "application/octet-stream"
	}
	defer f.Close()

	buffer := make([]byte, 512)
	n, _ := f.Read(buffer)
	return http.DetectContentType(buffer[:n])
}

// 辅助函数 BuildPublicURL 构建公有访问 URL
func (s *S3Client) BuildPublicURL(key string) string {
	endpoint := strings.TrimSuffix(s.Config.Endpoint, "/")

	if strings.Contains(endpoint, "amazonaws.com") {
		// AWS S3
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.Config.Bucket, key)
	}

	// MinIO / 其他 S3 兼容存储
	scheme := "http"
	if s.Config.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, endpoint, s.Config.Bucket, key)
}
