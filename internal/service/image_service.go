package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"yatube/internal/config"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMediaRoot            = "media"
	DefaultImageMaxUploadSizeMB = 5
	PostImageDir                = "posts"
	MasterMaxSize               = 1920
	JPEGQuality                 = 82
	WebPQuality                 = 70
	// MaxSourcePixels bounds the decoded size of an upload; small files can declare huge canvases.
	MaxSourcePixels = 40_000_000
)

type UploadImageInput struct {
	UserID      uint
	Filename    string
	ContentType string
	Content     []byte
}

// ImageService normalizes post images and stores them under the media root.
type ImageService struct {
	mediaRoot          string
	maxUploadSizeBytes int64
}

func NewImageService(cfg *config.Config) *ImageService {
	mediaRoot := DefaultMediaRoot
	maxUploadSizeMB := DefaultImageMaxUploadSizeMB

	if cfg != nil {
		if cfg.MediaRoot != "" {
			mediaRoot = cfg.MediaRoot
		}
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
		}
	}

	return &ImageService{
		mediaRoot:          mediaRoot,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

func (s *ImageService) MediaRoot() string {
	return s.mediaRoot
}

// SavePostImage validates and re-encodes an upload, writes a JPEG and a WebP copy
// and returns the JPEG path relative to the media root.
func (s *ImageService) SavePostImage(ctx context.Context, in UploadImageInput) (path string, err error) {
	_, span := observability.StartSpan(ctx, "service", "SavePostImage")
	defer func() { observability.EndSpan(span, err) }()

	if len(in.Content) == 0 {
		return "", models.NewFieldValidationError("image", "The submitted file is empty.", in.Filename)
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return "", models.NewFieldValidationError("image",
			fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)), in.Filename)
	}

	invalid := models.NewFieldValidationError("image",
		"Upload a valid image. The file you uploaded was either not an image or a corrupted image.", in.Filename)

	if !isAllowedImageMIME(http.DetectContentType(in.Content)) {
		return "", invalid
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(in.Content))
	if err != nil || !isSupportedDecodedFormat(format) || !withinPixelBudget(cfg.Width, cfg.Height) {
		return "", invalid
	}
	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil || !isSupportedDecodedFormat(format) {
		return "", invalid
	}

	master := resizeToFit(decoded, MasterMaxSize, MasterMaxSize)
	jpg, err := encodeJPEG(master, JPEGQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	wp, err := encodeWebP(master, WebPQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	hash := imageHash(jpg)
	jpgRel := filepath.ToSlash(filepath.Join(PostImageDir, hash, "master.jpg"))
	webpRel := filepath.ToSlash(filepath.Join(PostImageDir, hash, "master.webp"))

	if err := writeBytesToFile(filepath.Join(s.mediaRoot, jpgRel), jpg); err != nil {
		return "", models.NewInternalError(err)
	}
	if err := writeBytesToFile(filepath.Join(s.mediaRoot, webpRel), wp); err != nil {
		_ = os.Remove(filepath.Join(s.mediaRoot, jpgRel))
		return "", models.NewInternalError(err)
	}

	middleware.Logger.Debug("stored post image",
		"user_id", in.UserID,
		"filename", in.Filename,
		"path", jpgRel,
		"bytes", len(jpg),
	)
	return jpgRel, nil
}

// WebPPath returns the sibling WebP path for a stored JPEG path.
func WebPPath(jpgPath string) string {
	if jpgPath == "" {
		return ""
	}
	return strings.TrimSuffix(jpgPath, filepath.Ext(jpgPath)) + ".webp"
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if scaleH := float64(maxHeight) / float64(h); scaleH < scale {
		scale = scaleH
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func withinPixelBudget(width, height int) bool {
	return width > 0 && height > 0 && int64(width)*int64(height) <= MaxSourcePixels
}

func isAllowedImageMIME(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	switch strings.ToLower(strings.TrimSpace(mediaType)) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func isSupportedDecodedFormat(format string) bool {
	switch strings.ToLower(format) {
	case "jpeg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}

func imageHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
