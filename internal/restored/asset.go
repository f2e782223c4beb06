package restored

import (
	"fmt"
	"strings"
)

// Asset is one row of the restored-file index.
type Asset struct {
	ID       int64  `json:"id"`
	UUID     string `json:"uuid"`
	Bytes    int64  `json:"bytes"`
	MD5      string `json:"md5"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// Shape names which attributes a Key constrains.
type Shape uint8

const (
	ShapeName Shape = iota + 1
	ShapeNameBytes
	ShapeFull
)

func (s Shape) String() string {
	switch s {
	case ShapeFull:
		return "filename_md5_bytes"
	case ShapeNameBytes:
		return "filename_bytes"
	case ShapeName:
		return "filename"
	default:
		return "unknown"
	}
}

// Key is an index query. Fields outside the shape are zero.
type Key struct {
	Shape    Shape
	Filename string
	Bytes    int64
	MD5      string
}

// FullKey matches filename, md5, and size.
func FullKey(filename string, bytes int64, md5 string) Key {
	return Key{Shape: ShapeFull, Filename: filename, Bytes: bytes, MD5: strings.ToLower(md5)}
}

// NameBytesKey matches filename and size.
func NameBytesKey(filename string, bytes int64) Key {
	return Key{Shape: ShapeNameBytes, Filename: filename, Bytes: bytes}
}

// NameKey matches filename only.
func NameKey(filename string) Key {
	return Key{Shape: ShapeName, Filename: filename}
}

// Weaken drops the md5 (full → name+bytes) or the size (name+bytes → name).
// It reports false when k is already the weakest shape.
func (k Key) Weaken() (Key, bool) {
	switch k.Shape {
	case ShapeFull:
		return NameBytesKey(k.Filename, k.Bytes), true
	case ShapeNameBytes:
		return NameKey(k.Filename), true
	default:
		return k, false
	}
}

func (k Key) String() string {
	switch k.Shape {
	case ShapeFull:
		return fmt.Sprintf("%s/%d/%s", k.Filename, k.Bytes, k.MD5)
	case ShapeNameBytes:
		return fmt.Sprintf("%s/%d", k.Filename, k.Bytes)
	default:
		return k.Filename
	}
}
