package imgutil

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"strings"
)

// Info はデコードせずに得られる画像の情報です。
type Info struct {
	MimeType string
	Format   string
	Width    int
	Height   int
}

// Inspect は画像データの形式とサイズを確認します。
// レンダリングサービスが画像以外（エラーページ等）を返した場合はエラーになります。
func Inspect(data []byte) (Info, error) {
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return Info{}, fmt.Errorf("not an image: detected %s", mimeType)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("画像ヘッダーの解析に失敗しました: %w", err)
	}
	return Info{MimeType: mimeType, Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// CompressToJPEG は画像データ（PNG, GIF, JPEG等）をJPEG形式に圧縮します。
// image.Decodeがサポートするフォーマットに対応しています。
func CompressToJPEG(data []byte, quality int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
