// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package files

import "io"

// ProgressReader reports how much of a body of known size has been read,
// as a percentage. The callback fires only when the percentage changes.
type ProgressReader struct {
	r          io.Reader
	total      int64
	read       int64
	last       int
	onProgress func(percent int)
}

// NewProgressReader wraps r. onProgress may be nil.
func NewProgressReader(r io.Reader, total int64, onProgress func(percent int)) *ProgressReader {
	return &ProgressReader{r: r, total: total, last: -1, onProgress: onProgress}
}

func (p *ProgressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	p.read += int64(n)
	if p.onProgress != nil && p.total > 0 {
		pct := int(p.read * 100 / p.total)
		if pct > 100 {
			pct = 100
		}
		if pct != p.last {
			p.last = pct
			p.onProgress(pct)
		}
	}
	return n, err
}

// BytesRead returns the number of bytes consumed so far.
func (p *ProgressReader) BytesRead() int64 {
	return p.read
}
