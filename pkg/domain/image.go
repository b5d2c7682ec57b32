package domain

// RenderResult はレンダリング結果の画像参照です。
type RenderResult struct {
	ImageReference string
}

// Empty は結果を保持していないかを返します。
func (r RenderResult) Empty() bool {
	return r.ImageReference == ""
}

// Image はダウンロードした画像データとそのメタデータです。
type Image struct {
	Data      []byte
	MimeType  string
	Width     int
	Height    int
	SourceURL string
}
