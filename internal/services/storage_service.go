package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ezhulati/liftout-platform-sub011/internal/config"
)

// StorageService keeps generated documents on local disk under UploadDir.
type StorageService struct {
	config *config.Config
}

func NewStorageService(cfg *config.Config) *StorageService {
	return &StorageService{config: cfg}
}

// SaveDocument writes a generated document under documents/<docType>/ and
// returns its path. Names are prefixed with a timestamp so regenerated
// letters never overwrite earlier ones.
func (s *StorageService) SaveDocument(docType, name string, content []byte) (string, error) {
	if strings.ContainsAny(docType, `/\`) || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid document path %s/%s", docType, name)
	}

	docDir := filepath.Join(s.config.UploadDir, "documents", docType)
	if err := os.MkdirAll(docDir, 0755); err != nil {
		return "", err
	}

	filename := fmt.Sprintf("%d_%s", time.Now().Unix(), name)
	filePath := filepath.Join(docDir, filename)

	if err := os.WriteFile(filePath, content, 0644); err != nil {
		return "", err
	}

	return filePath, nil
}

// DocumentPaths lists the stored documents of one type, oldest first.
func (s *StorageService) DocumentPaths(docType string) ([]string, error) {
	return filepath.Glob(filepath.Join(s.config.UploadDir, "documents", docType, "*"))
}
