// Package pagestream reads and writes the page stream produced by the flash
// page unpacker: one JSON page object per line, in flash order.
package pagestream

import "errors"

// ErrEmptyStream is returned when a page stream holds no pages.
var ErrEmptyStream = errors.New("page stream is empty")

// StorageInfo is the flash geometry the dump was taken from (storage.var).
type StorageInfo struct {
	FlashPageSize  uint32 `json:"FlashPageSize"`
	FlashPages     uint32 `json:"FlashPages"`
	FlashUsedPages uint32 `json:"FlashUsedPages"`
}

// StreamStats counts what a page stream contains.
type StreamStats struct {
	Pages         int `json:"pages"`
	Consistent    int `json:"consistent"`
	SessionStarts int `json:"session_starts"`
	Sentinel      int `json:"sentinel"`
}
