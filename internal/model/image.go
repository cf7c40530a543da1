package model

// Image is a single uploaded photo.
type Image struct {
	Name string // original file name, sent as the multipart filename
	Data []byte
}
