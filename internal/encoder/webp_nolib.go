//go:build !libwebp

package encoder

// nativeWebP is nil without the libwebp build tag; WebP then goes through cwebp.
func nativeWebP() Encoder { return nil }
