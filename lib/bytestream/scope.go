// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bytestream

import (
	"context"
	"io"
	"sync"
)

// onceCloser closes the wrapped closer at most once and remembers the
// result for later callers.
type onceCloser struct {
	io.ReadCloser
	once sync.Once
	err  error
}

func (c *onceCloser) Close() error {
	c.once.Do(func() {
		c.err = c.ReadCloser.Close()
	})
	return c.err
}

// CloseOnce wraps rc so that Close reaches the underlying closer
// exactly once no matter how many times it is called.
func CloseOnce(rc io.ReadCloser) io.ReadCloser {
	if already, ok := rc.(*onceCloser); ok {
		return already
	}
	return &onceCloser{ReadCloser: rc}
}

// Use runs fn with a Reader over source and releases source exactly
// once afterwards. If ctx is cancelled while fn is running, source is
// closed immediately so a blocked read returns, and fn's error becomes
// the context error.
//
// The close error is returned only when fn itself succeeded.
func Use(ctx context.Context, source io.ReadCloser, fn func(*Reader) error) (err error) {
	closer := CloseOnce(source)
	stop := context.AfterFunc(ctx, func() {
		closer.Close()
	})
	defer func() {
		stop()
		closeErr := closer.Close()
		if err == nil && ctx.Err() == nil {
			err = closeErr
		}
	}()
	return fn(NewReader(ctx, closer))
}
