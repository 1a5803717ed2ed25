/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package certgen

import (
	"crypto/tls"
	"sync"

	"github.com/fsnotify/fsnotify"

	liberr "github.com/lhamowski/luxnet/errors"
	"github.com/lhamowski/luxnet/logger"
)

// FileWatcher reloads a certificate/key pair from disk whenever either
// file changes, handing a fresh tls.Config to OnReload. This lets a long
// running httpserver pick up a renewed certificate without a restart.
type FileWatcher struct {
	certPath string
	keyPath  string
	log      logger.Logger

	OnReload func(cfg *tls.Config, err error)

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// WatchFiles starts watching certPath and keyPath for changes. The
// caller must call Close when done.
func WatchFiles(certPath, keyPath string, log logger.Logger) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, liberr.Wrap(liberr.ErrIO, "fsnotify watcher init failed", err)
	}
	if err := w.Add(certPath); err != nil {
		w.Close()
		return nil, liberr.Wrap(liberr.ErrIO, "watching cert file failed", err)
	}
	if err := w.Add(keyPath); err != nil {
		w.Close()
		return nil, liberr.Wrap(liberr.ErrIO, "watching key file failed", err)
	}

	fw := &FileWatcher{certPath: certPath, keyPath: keyPath, log: logger.OrDiscard(log), watcher: w}
	go fw.loop()
	return fw, nil
}

func (fw *FileWatcher) loop() {
	for {
		select {
		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			fw.reload()
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.Warning("certificate watch error: %v", err)
		}
	}
}

func (fw *FileWatcher) reload() {
	cert, err := tls.LoadX509KeyPair(fw.certPath, fw.keyPath)
	if err != nil {
		if fw.OnReload != nil {
			fw.OnReload(nil, liberr.Wrap(liberr.ErrTLS, "certificate reload failed", err))
		}
		return
	}
	if fw.OnReload != nil {
		fw.OnReload(&tls.Config{Certificates: []tls.Certificate{cert}}, nil)
	}
}

// Close stops the watch.
func (fw *FileWatcher) Close() error {
	fw.mu.Lock()
	if fw.closed {
		fw.mu.Unlock()
		return nil
	}
	fw.closed = true
	fw.mu.Unlock()
	return fw.watcher.Close()
}
